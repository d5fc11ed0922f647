package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nkarlsen/payflow/internal/apperror"
	"github.com/nkarlsen/payflow/internal/config"
)

// --- Mock Repository ---

// mockUserRepo implements UserRepository for testing.
type mockUserRepo struct {
	createFn          func(ctx context.Context, user *User) error
	findByIDFn        func(ctx context.Context, id string) (*User, error)
	findByEmailFn     func(ctx context.Context, email string) (*User, error)
	emailExistsFn     func(ctx context.Context, email string) (bool, error)
	updateLastLoginFn func(ctx context.Context, id string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id)
	}
	return nil
}

// --- Mock Activity Recorder ---

// mockRecorder implements ActivityRecorder and captures recorded events.
type mockRecorder struct {
	actions []string
	emails  []string
}

func (m *mockRecorder) Record(ctx context.Context, action, userID, email, remoteIP string) {
	m.actions = append(m.actions, action)
	m.emails = append(m.emails, email)
}

// --- Test Helpers ---

func newTestService(repo UserRepository, recorder ActivityRecorder) AuthService {
	issuer := NewTokenIssuer(config.AuthConfig{
		JWTSecret: "test-secret-key-that-is-long-enough!!!!!",
		TokenTTL:  time.Hour,
	})
	return NewAuthService(repo, issuer, recorder)
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) *apperror.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
	return appErr
}

const validPassword = "Abcdefg1!x"

// --- Register Tests ---

func TestRegister_Success(t *testing.T) {
	var created *User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			created = user
			return nil
		},
	}
	recorder := &mockRecorder{}

	svc := newTestService(repo, recorder)
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Alice@Example.COM ",
		Password: validPassword,
		Name:     "Alice Smith",
	}, "10.0.0.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created == nil {
		t.Fatal("expected repo.Create to be called")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.ID == "" {
		t.Error("expected generated user ID")
	}
	if user.PasswordHash == "" || user.PasswordHash == validPassword {
		t.Error("expected password to be hashed")
	}
	if !strings.HasPrefix(user.PasswordHash, "$argon2id$") {
		t.Errorf("expected argon2id hash, got %q", user.PasswordHash)
	}
	if len(recorder.actions) != 1 || recorder.actions[0] != ActionUserRegistered {
		t.Errorf("expected one %s event, got %v", ActionUserRegistered, recorder.actions)
	}
}

func TestRegister_ValidationFailure(t *testing.T) {
	repoCalled := false
	repo := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			repoCalled = true
			return false, nil
		},
	}

	svc := newTestService(repo, nil)
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "not-an-email",
		Password: "short",
		Name:     "X",
	}, "")

	appErr := assertAppError(t, err, http.StatusBadRequest)
	if len(appErr.Fields) != 3 {
		t.Errorf("expected 3 field errors, got %d", len(appErr.Fields))
	}
	if repoCalled {
		t.Error("validation failure must not touch the store")
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	repo := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}

	svc := newTestService(repo, nil)
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Password: validPassword,
		Name:     "Alice",
	}, "")

	appErr := assertAppError(t, err, http.StatusBadRequest)
	if appErr.Type != apperror.TypeEmailTaken {
		t.Errorf("expected type %s, got %s", apperror.TypeEmailTaken, appErr.Type)
	}
}

func TestRegister_DuplicateRace(t *testing.T) {
	// The pre-check passes but the insert hits the unique index: the error
	// must still come back as email-taken, not a 500.
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			return apperror.NewEmailTaken()
		},
	}

	svc := newTestService(repo, nil)
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Password: validPassword,
		Name:     "Alice",
	}, "")

	appErr := assertAppError(t, err, http.StatusBadRequest)
	if appErr.Type != apperror.TypeEmailTaken {
		t.Errorf("expected type %s, got %s", apperror.TypeEmailTaken, appErr.Type)
	}
}

func TestRegister_StoreError(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			return errors.New("connection refused")
		},
	}

	svc := newTestService(repo, nil)
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Password: validPassword,
		Name:     "Alice",
	}, "")

	appErr := assertAppError(t, err, http.StatusInternalServerError)
	if strings.Contains(appErr.Message, "connection refused") {
		t.Error("internal detail must not leak into the public message")
	}
}

// --- Login Tests ---

func loginTestRepo(t *testing.T) (*mockUserRepo, *User) {
	t.Helper()
	hash, err := hashPassword(validPassword)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := &User{
		ID:           "user-123",
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			if email == user.Email {
				return user, nil
			}
			return nil, apperror.NewNotFound("user not found")
		},
	}
	return repo, user
}

func TestLogin_Success(t *testing.T) {
	repo, want := loginTestRepo(t)
	recorder := &mockRecorder{}

	svc := newTestService(repo, recorder)
	user, err := svc.Login(context.Background(), LoginInput{
		Email:    "Alice@Example.com",
		Password: validPassword,
	}, "10.0.0.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != want.ID {
		t.Errorf("expected user %s, got %s", want.ID, user.ID)
	}
	if len(recorder.actions) != 1 || recorder.actions[0] != ActionLoginSucceeded {
		t.Errorf("expected one %s event, got %v", ActionLoginSucceeded, recorder.actions)
	}
}

func TestLogin_GenericErrorForUnknownAndWrongPassword(t *testing.T) {
	// Unknown email and wrong password must produce byte-identical errors
	// so responses never reveal whether an email is registered.
	repo, _ := loginTestRepo(t)
	svc := newTestService(repo, nil)

	_, errUnknown := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: validPassword,
	}, "")
	_, errWrong := svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "Wrongpass1!",
	}, "")

	unknownErr := assertAppError(t, errUnknown, http.StatusUnauthorized)
	wrongErr := assertAppError(t, errWrong, http.StatusUnauthorized)

	if unknownErr.Message != wrongErr.Message {
		t.Errorf("messages differ: %q vs %q", unknownErr.Message, wrongErr.Message)
	}
	if unknownErr.Type != wrongErr.Type {
		t.Errorf("types differ: %q vs %q", unknownErr.Type, wrongErr.Type)
	}
}

func TestLogin_RecordsFailedAttempt(t *testing.T) {
	repo, _ := loginTestRepo(t)
	recorder := &mockRecorder{}

	svc := newTestService(repo, recorder)
	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "Wrongpass1!",
	}, "")
	assertAppError(t, err, http.StatusUnauthorized)

	if len(recorder.actions) != 1 || recorder.actions[0] != ActionLoginFailed {
		t.Errorf("expected one %s event, got %v", ActionLoginFailed, recorder.actions)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, nil)

	_, err := svc.Login(context.Background(), LoginInput{}, "")
	appErr := assertAppError(t, err, http.StatusBadRequest)
	if len(appErr.Fields) != 2 {
		t.Errorf("expected 2 field errors, got %d", len(appErr.Fields))
	}
}

func TestLogin_UpdateLastLoginFailureIsNonFatal(t *testing.T) {
	repo, _ := loginTestRepo(t)
	repo.updateLastLoginFn = func(ctx context.Context, id string) error {
		return errors.New("deadlock")
	}

	svc := newTestService(repo, nil)
	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: validPassword,
	}, "")
	if err != nil {
		t.Fatalf("last-login bookkeeping failure must not fail the login: %v", err)
	}
}

// --- VerifyRequest Tests ---

func TestVerifyRequest(t *testing.T) {
	issuer := NewTokenIssuer(config.AuthConfig{
		JWTSecret: "test-secret-key-that-is-long-enough!!!!!",
		TokenTTL:  time.Hour,
	})
	svc := NewAuthService(&mockUserRepo{}, issuer, nil)

	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	userID, err := svc.VerifyRequest(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("expected user-123, got %s", userID)
	}

	_, err = svc.VerifyRequest("garbage")
	assertAppError(t, err, http.StatusUnauthorized)
}

// --- Password Hashing Tests ---

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword(validPassword)
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}

	if !verifyPassword(validPassword, hash) {
		t.Error("expected correct password to verify")
	}
	if verifyPassword("Wrongpass1!", hash) {
		t.Error("expected wrong password to fail")
	}
	if verifyPassword(validPassword, "not-a-hash") {
		t.Error("expected malformed hash to fail")
	}

	// Same password twice must produce different hashes (random salt).
	hash2, err := hashPassword(validPassword)
	if err != nil {
		t.Fatalf("hashing: %v", err)
	}
	if hash == hash2 {
		t.Error("expected unique salt per hash")
	}
}
