package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nkarlsen/payflow/internal/apperror"
)

// maxRecentEntries caps the number of entries returned by activity listings
// to prevent unbounded result sets.
const maxRecentEntries = 100

// recordTimeout bounds how long a single activity write may take. Record is
// detached from the request context so an aborted request still gets logged.
const recordTimeout = 5 * time.Second

// Service handles business logic for the activity log.
type Service interface {
	// Record writes an activity entry. Fire-and-forget: failures are logged
	// via slog and never surfaced to the caller.
	Record(ctx context.Context, action, userID, email, remoteIP string)

	// UserActivity returns the most recent entries for one user.
	UserActivity(ctx context.Context, userID string, limit int) ([]Entry, error)
}

// service implements Service.
type service struct {
	repo Repository
}

// NewService creates a new activity log service with the given repository.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Record writes an activity entry. The write uses its own deadline rather
// than the request context so entries for requests that disconnect early
// are still persisted.
func (s *service) Record(ctx context.Context, action, userID, email, remoteIP string) {
	if action == "" || email == "" {
		slog.Warn("dropping activity entry with missing fields",
			slog.String("action", action),
		)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	entry := &Entry{
		UserID:   userID,
		Email:    email,
		Action:   action,
		RemoteIP: remoteIP,
	}

	if err := s.repo.Insert(writeCtx, entry); err != nil {
		slog.Error("failed to write activity entry",
			slog.String("action", action),
			slog.String("email", email),
			slog.Any("error", err),
		)
	}
}

// UserActivity returns the most recent entries for one user. Limits
// outside (0, maxRecentEntries] are clamped.
func (s *service) UserActivity(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if userID == "" {
		return nil, apperror.NewBadRequest("user ID is required")
	}
	limit = clampLimit(limit)

	entries, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing user activity: %w", err))
	}
	return entries, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxRecentEntries {
		return maxRecentEntries
	}
	return limit
}
