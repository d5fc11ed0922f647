package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/nkarlsen/payflow/internal/apperror"
)

// argon2id parameters for password hashing. These follow OWASP
// recommendations for argon2id: memory=64MB, iterations=3, parallelism=4.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MB in KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Activity action names recorded by the auth service.
const (
	ActionUserRegistered = "user.registered"
	ActionLoginSucceeded = "login.succeeded"
	ActionLoginFailed    = "login.failed"
)

// ActivityRecorder receives auth events for the activity log. Recording is
// fire-and-forget: implementations log their own failures and never block
// or fail the auth path.
type ActivityRecorder interface {
	Record(ctx context.Context, action, userID, email, remoteIP string)
}

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput, remoteIP string) (*User, error)
	Login(ctx context.Context, input LoginInput, remoteIP string) (*User, error)
	VerifyRequest(token string) (string, error)
	FindUser(ctx context.Context, id string) (*User, error)
}

// authService implements AuthService with argon2id hashing and JWT tokens.
type authService struct {
	repo     UserRepository
	issuer   *TokenIssuer
	activity ActivityRecorder
}

// NewAuthService creates a new auth service with the given dependencies.
// The activity recorder may be nil, in which case no events are recorded.
func NewAuthService(repo UserRepository, issuer *TokenIssuer, activity ActivityRecorder) AuthService {
	return &authService{
		repo:     repo,
		issuer:   issuer,
		activity: activity,
	}
}

// Register creates a new user account. The credential validator runs first
// and a failure returns the full field-error list without touching the
// store. Email uniqueness is checked up front for the common case and
// enforced by the store's unique index for the racing case.
func (s *authService) Register(ctx context.Context, input RegisterInput, remoteIP string) (*User, error) {
	if result := ValidateRegister(input.Email, input.Password, input.Name); !result.IsValid {
		return nil, apperror.NewValidation(result.Errors)
	}

	email := normalizeEmail(input.Email)

	// Reject duplicates before doing expensive hashing.
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewEmailTaken()
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		// The unique index may have caught a concurrent registration;
		// the repository already mapped that to EmailTaken.
		if apperror.IsType(err, apperror.TypeEmailTaken) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	s.record(ctx, ActionUserRegistered, user.ID, user.Email, remoteIP)

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login authenticates a user by email and password. Unknown email and wrong
// password produce the identical generic error so responses never reveal
// whether an email is registered.
func (s *authService) Login(ctx context.Context, input LoginInput, remoteIP string) (*User, error) {
	// Shape-only validation: login compares a password, it doesn't create
	// one, so the strength rule is not re-applied here.
	var errs []apperror.FieldError
	if input.Email == "" {
		errs = append(errs, apperror.FieldError{Field: "email", Message: "Email is required"})
	}
	if input.Password == "" {
		errs = append(errs, apperror.FieldError{Field: "password", Message: "Password is required"})
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidation(errs)
	}

	email := normalizeEmail(input.Email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsType(err, apperror.TypeNotFound) {
			s.record(ctx, ActionLoginFailed, "", email, remoteIP)
			return nil, apperror.NewInvalidCredentials()
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		s.record(ctx, ActionLoginFailed, user.ID, email, remoteIP)
		return nil, apperror.NewInvalidCredentials()
	}

	// Update the user's last login timestamp (fire-and-forget, non-critical).
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	s.record(ctx, ActionLoginSucceeded, user.ID, user.Email, remoteIP)

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// VerifyRequest validates a bearer token and returns the user ID it was
// issued for. Used by the auth middleware as the gate in front of every
// protected route.
func (s *authService) VerifyRequest(token string) (string, error) {
	userID, err := s.issuer.Verify(token)
	if err != nil {
		return "", apperror.NewUnauthorized("invalid or expired token")
	}
	return userID, nil
}

// FindUser loads a user by ID for handlers that need the full record after
// the middleware resolved the identity.
func (s *authService) FindUser(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsType(err, apperror.TypeNotFound) {
			return nil, apperror.NewUnauthorized("invalid or expired token")
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	return user, nil
}

// record forwards an auth event to the activity log, if one is wired.
func (s *authService) record(ctx context.Context, action, userID, email, remoteIP string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, action, userID, email, remoteIP)
}

// normalizeEmail lowercases and trims an email for storage and lookups.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// --- Password Hashing (argon2id) ---

// hashPassword creates an argon2id hash of the given password. The output
// format is: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
// This format is compatible with most argon2 libraries and allows self-
// contained verification without separate salt storage.
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	// Encode to the standard PHC string format.
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, b64Salt, b64Hash)

	return encoded, nil
}

// verifyPassword checks a plaintext password against an argon2id hash string.
// Returns true if the password matches.
func verifyPassword(password, encodedHash string) bool {
	// Parse the encoded hash to extract parameters, salt, and hash.
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	// Compute the hash of the provided password with the same parameters.
	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Constant-time comparison to prevent timing attacks.
	return subtle.ConstantTimeCompare(expectedHash, computedHash) == 1
}
