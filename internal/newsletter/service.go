package newsletter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Provider is the subset of Client used by Service
type Provider interface {
	ListAudiences(ctx context.Context) ([]Audience, error)
	CreateAudience(ctx context.Context, name string) (*Audience, error)
	CreateContact(ctx context.Context, audienceID string, contact Contact) error
	UpdateContact(ctx context.Context, audienceID, email string, unsubscribed bool) error
	DeleteContact(ctx context.Context, audienceID, email string) error
}

// Service keeps contacts of the configured audience in sync
type Service struct {
	provider     Provider
	audienceName string

	mu         sync.Mutex
	audienceID string
}

func NewService(provider Provider, audienceName string) *Service {
	return &Service{provider: provider, audienceName: audienceName}
}

// EnsureAudience returns the id of the configured audience, creating it on
// first use. The id is cached for the life of the process.
func (s *Service) EnsureAudience(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.audienceID != "" {
		return s.audienceID, nil
	}

	audiences, err := s.provider.ListAudiences(ctx)
	if err != nil {
		return "", err
	}
	for _, a := range audiences {
		if a.Name == s.audienceName {
			s.audienceID = a.ID
			return a.ID, nil
		}
	}

	created, err := s.provider.CreateAudience(ctx, s.audienceName)
	if err != nil {
		return "", err
	}
	s.audienceID = created.ID
	return created.ID, nil
}

// Subscribe adds email to the audience or re-subscribes an existing contact
func (s *Service) Subscribe(ctx context.Context, email string) error {
	audienceID, err := s.EnsureAudience(ctx)
	if err != nil {
		return err
	}

	email = normalize(email)
	err = s.provider.CreateContact(ctx, audienceID, Contact{Email: email, Unsubscribed: false})
	if errors.Is(err, ErrContactExists) {
		err = s.provider.UpdateContact(ctx, audienceID, email, false)
	}
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// Unsubscribe flags the contact as unsubscribed. Unknown contacts are ignored.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	audienceID, err := s.EnsureAudience(ctx)
	if err != nil {
		return err
	}

	err = s.provider.UpdateContact(ctx, audienceID, normalize(email), true)
	if err != nil && !errors.Is(err, ErrContactNotFound) {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

// Remove deletes the contact. Unknown contacts are ignored.
func (s *Service) Remove(ctx context.Context, email string) error {
	audienceID, err := s.EnsureAudience(ctx)
	if err != nil {
		return err
	}

	err = s.provider.DeleteContact(ctx, audienceID, normalize(email))
	if err != nil && !errors.Is(err, ErrContactNotFound) {
		return fmt.Errorf("remove contact: %w", err)
	}
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
