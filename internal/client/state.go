package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nkarlsen/payflow/internal/auth"
)

// Phase describes where the auth state machine currently is.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseLoading       Phase = "loading"
	PhaseAuthenticated Phase = "authenticated"
	PhaseErrored       Phase = "errored"
)

// State is an immutable snapshot of the auth store. Callers receive copies;
// mutating a snapshot never affects the store.
type State struct {
	User            *auth.User
	AccessToken     string
	IsAuthenticated bool
	IsLoading       bool
	Err             error
}

// Phase derives the machine phase from the snapshot fields. Loading wins
// over everything else since a new attempt clears the previous error.
func (s State) Phase() Phase {
	switch {
	case s.IsLoading:
		return PhaseLoading
	case s.IsAuthenticated:
		return PhaseAuthenticated
	case s.Err != nil:
		return PhaseErrored
	default:
		return PhaseIdle
	}
}

// Authenticator is the API surface the store needs. Satisfied by *API and
// by test doubles.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.AuthResponse, error)
	Register(ctx context.Context, email, password, name string) (*auth.AuthResponse, error)
}

// Store holds auth state and drives transitions. Safe for concurrent use.
//
// Concurrent attempts follow latest-wins: starting a new attempt bumps a
// generation counter, and a response from an earlier attempt is discarded
// when it arrives. The UI therefore always reflects the most recent action.
type Store struct {
	api Authenticator

	mu    sync.Mutex
	state State
	gen   uint64
}

// NewStore creates a store in the idle state.
func NewStore(api Authenticator) *Store {
	return &Store{api: api}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Login validates the credentials locally and, if they pass, performs the
// login request. Local validation failures move straight to the errored
// state without a network call.
func (s *Store) Login(ctx context.Context, email, password string) State {
	if result := auth.ValidateLogin(email, password); !result.IsValid {
		return s.failNow(validationError(result))
	}

	gen := s.begin()
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return s.fail(gen, err)
	}
	return s.succeed(gen, resp)
}

// Register validates the new account locally and, if it passes, performs
// the registration request. A successful registration authenticates the
// user immediately.
func (s *Store) Register(ctx context.Context, email, password, name string) State {
	if result := auth.ValidateRegister(email, password, name); !result.IsValid {
		return s.failNow(validationError(result))
	}

	gen := s.begin()
	resp, err := s.api.Register(ctx, email, password, name)
	if err != nil {
		return s.fail(gen, err)
	}
	return s.succeed(gen, resp)
}

// Logout resets the store to idle. Valid from any state, including mid-
// flight attempts: the generation bump makes their eventual responses stale.
func (s *Store) Logout() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.state = State{}
	return s.state
}

// ClearError drops the current error, returning an errored store to idle.
// A no-op in every other state.
func (s *Store) ClearError() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Err = nil
	return s.state
}

// begin moves the store to loading and returns the generation token the
// attempt must present when it completes.
func (s *Store) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.state = State{IsLoading: true}
	return s.gen
}

// succeed applies a successful auth response, unless a newer attempt or a
// logout superseded this one.
func (s *Store) succeed(gen uint64, resp *auth.AuthResponse) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return s.state
	}
	s.state = State{
		User:            resp.User,
		AccessToken:     resp.AccessToken,
		IsAuthenticated: true,
	}
	return s.state
}

// failNow records a failure that never left the client, such as a local
// validation error. It supersedes any in-flight attempt without passing
// through the loading state.
func (s *Store) failNow(err error) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.state = State{Err: err}
	return s.state
}

// fail applies a failed attempt, unless a newer attempt superseded it.
func (s *Store) fail(gen uint64, err error) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return s.state
	}
	s.state = State{Err: err}
	return s.state
}

// validationError flattens local validation failures into a single error
// matching the tone of server-side messages.
func validationError(result auth.ValidationResult) error {
	messages := make([]string, 0, len(result.Errors))
	for _, fe := range result.Errors {
		messages = append(messages, fe.Message)
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}
