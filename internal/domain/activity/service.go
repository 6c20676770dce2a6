package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/metrics"
)

// PulseSize bounds the number of events returned by Pulse.
const PulseSize = 5

// Service handles activity log operations.
type Service struct {
	repo   Repository
	users  UserDirectory
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how event identifiers are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a new activity service.
func NewService(repo Repository, users UserDirectory, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		repo:   repo,
		users:  users,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append adds an event at the head of the log, stamping a missing ID or
// timestamp.
func (s *Service) Append(ctx context.Context, event *Event) error {
	if event == nil || event.Payload == nil {
		return ErrInvalidInput
	}
	if event.Type == "" {
		event.Type = event.Payload.EventType()
	}
	if event.Type != event.Payload.EventType() {
		return fmt.Errorf("%w: type %q does not match payload %q", ErrInvalidInput, event.Type, event.Payload.EventType())
	}
	if event.ExperimentID == "" {
		return fmt.Errorf("%w: experiment id is required", ErrInvalidInput)
	}
	if event.ID == "" {
		event.ID = s.newID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	if err := s.repo.Append(ctx, event); err != nil {
		return fmt.Errorf("appending activity: %w", err)
	}
	metrics.IncrementActivityEvent(string(event.Type))
	s.logger.DebugContext(ctx, "activity appended", "id", event.ID, "type", event.Type, "experiment", event.ExperimentID)
	return nil
}

// List returns events matching opts, newest first, capped at opts.Limit.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	if opts.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", ErrInvalidInput)
	}
	for _, t := range opts.Types {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, t)
		}
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}

	matched := make([]Event, 0, len(all))
	for i := range all {
		if opts.matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	sortNewestFirst(matched)
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return s.enrich(ctx, matched)
}

// Pulse returns the number of events in the last 24 hours and the most
// recent few of them.
func (s *Service) Pulse(ctx context.Context) (Pulse, error) {
	since := s.now().Add(-todayWindow)
	all, err := s.List(ctx, ListOptions{Since: &since})
	if err != nil {
		return Pulse{}, err
	}
	recent := all
	if len(recent) > PulseSize {
		recent = recent[:PulseSize]
	}
	return Pulse{Count: len(all), Recent: recent}, nil
}

// CountSince counts events strictly after since.
func (s *Service) CountSince(ctx context.Context, since time.Time) (int, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing activity: %w", err)
	}
	n := 0
	for _, e := range all {
		if e.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

// Grouped partitions the whole log into age buckets relative to now.
func (s *Service) Grouped(ctx context.Context) (Groups, error) {
	entries, err := s.List(ctx, ListOptions{})
	if err != nil {
		return Groups{}, err
	}
	now := s.now()
	groups := Groups{
		Recent:   []Entry{},
		Today:    []Entry{},
		ThisWeek: []Entry{},
		Older:    []Entry{},
	}
	for _, entry := range entries {
		switch BucketFor(entry.Event.CreatedAt, now) {
		case BucketRecent:
			groups.Recent = append(groups.Recent, entry)
		case BucketToday:
			groups.Today = append(groups.Today, entry)
		case BucketThisWeek:
			groups.ThisWeek = append(groups.ThisWeek, entry)
		default:
			groups.Older = append(groups.Older, entry)
		}
	}
	return groups, nil
}

func (s *Service) enrich(ctx context.Context, events []Event) ([]Entry, error) {
	var index map[string]user.User
	if s.users != nil {
		var err error
		index, err = s.users.Index(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading users: %w", err)
		}
	}
	out := make([]Entry, 0, len(events))
	for _, e := range events {
		entry := Entry{Event: e}
		if u, ok := index[e.ActorID]; ok {
			entry.Actor = &u
		}
		out = append(out, entry)
	}
	return out, nil
}
