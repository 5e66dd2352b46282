package subscriber

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aegis-response/aegis_console/internal/notification"
)

// Service exposes record persistence operations to the HTTP surface. The store
// assigns id and created_at; both are immutable afterwards.
type Service struct {
	repo     Repository
	notifier notification.Notifier
}

// NewService builds a subscriber service instance.
func NewService(repo Repository, notifier notification.Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// List returns the full collection.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.repo.List(ctx)
}

// Create stores a candidate record under a fresh server-assigned id.
func (s *Service) Create(ctx context.Context, candidate Record) (Record, error) {
	if candidate.Name == "" {
		return Record{}, errors.New("name is required")
	}
	if candidate.Email == "" {
		return Record{}, errors.New("email is required")
	}

	rec := candidate.Clone()
	rec.ID = uuid.NewString()
	now := time.Now().UTC()
	rec.CreatedAt = &now

	if err := s.repo.Create(ctx, rec); err != nil {
		return Record{}, err
	}

	s.notify(ctx, notification.KindRecordCreated, rec.ID, rec.Email)
	return rec, nil
}

// Update applies a partial update and returns the canonical stored record.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Record, error) {
	return s.repo.Update(ctx, id, patch)
}

// Delete removes a record by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, notification.KindRecordDeleted, id, "")
	return nil
}

func (s *Service) notify(ctx context.Context, kind, id, detail string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{Kind: kind, RecordID: id, Body: detail})
}
