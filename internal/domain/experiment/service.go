package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/repository"
)

// Service handles experiment business logic.
type Service struct {
	repo   Repository
	users  UserDirectory
	events EventLog
	tx     repository.Transactor
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

// WithIDGenerator overrides how new identifiers are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a new experiment service.
func NewService(
	repo Repository,
	users UserDirectory,
	events EventLog,
	tx repository.Transactor,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if tx == nil {
		tx = repository.NoTx
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		repo:   repo,
		users:  users,
		events: events,
		tx:     tx,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LinkInput describes a link to attach to an experiment.
type LinkInput struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CreateRequest describes an experiment creation request.
type CreateRequest struct {
	Title         string
	Description   string
	Status        Status
	Category      *Category
	Tags          []string
	Links         []LinkInput
	CoverImageURL *string
}

// UpdateRequest is a patch; nil fields are left unchanged.
type UpdateRequest struct {
	Title         *string
	Description   *string
	Status        *Status
	Category      *Category
	Tags          []string
	Links         []LinkInput
	CoverImageURL *string
}

// ForkRequest describes a fork of an existing experiment.
type ForkRequest struct {
	ParentID    string
	Title       *string
	Description *string
}

// List returns experiments matching filters, ordered by sort.
func (s *Service) List(ctx context.Context, filters Filters, sort *Sort) ([]Summary, error) {
	if sort != nil {
		if !sort.By.Valid() {
			return nil, fmt.Errorf("%w: unknown sort key %q", ErrInvalidInput, sort.By)
		}
		if sort.Order != "" && sort.Order != OrderAsc && sort.Order != OrderDesc {
			return nil, fmt.Errorf("%w: unknown sort order %q", ErrInvalidInput, sort.Order)
		}
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing experiments: %w", err)
	}

	matched := filters.Apply(all)
	var counts map[string]int
	if sort != nil && sort.By == SortMostForked {
		counts = ForkCounts(all)
	}
	SortExperiments(matched, sort, counts)

	return s.summarize(ctx, matched)
}

// ListForUser returns live experiments owned by or shared with userID.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Summary, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing experiments: %w", err)
	}
	var out []Experiment
	for _, exp := range all {
		if exp.Deleted() {
			continue
		}
		if exp.OwnerID == userID || exp.HasCollaborator(userID) {
			out = append(out, exp)
		}
	}
	return s.summarize(ctx, out)
}

// Get returns one experiment enriched with its people and lineage.
func (s *Service) Get(ctx context.Context, id string) (*Details, error) {
	exp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing experiments: %w", err)
	}

	index, err := s.userIndex(ctx)
	if err != nil {
		return nil, err
	}

	details := &Details{
		Experiment:    *exp,
		Owner:         lookup(index, exp.OwnerID),
		Collaborators: collect(index, exp.CollaboratorIDs),
		ForkCount:     ForkCounts(all)[exp.ID],
	}
	if exp.ForkedFromID != nil {
		for i := range all {
			if all[i].ID == *exp.ForkedFromID {
				parent := all[i]
				details.ForkedFrom = &parent
				break
			}
		}
	}
	return details, nil
}

// ForkCount returns the number of experiments forked directly from id.
func (s *Service) ForkCount(ctx context.Context, id string) (int, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing experiments: %w", err)
	}
	return ForkCounts(all)[id], nil
}

// Create stores a new experiment owned by actorID.
func (s *Service) Create(ctx context.Context, actorID string, req CreateRequest) (*Experiment, error) {
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusIdea
	}

	now := s.now()
	exp := &Experiment{
		ID:              s.newID(),
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Status:          status,
		Category:        req.Category,
		CoverImageURL:   req.CoverImageURL,
		OwnerID:         actorID,
		CollaboratorIDs: []string{},
		Tags:            nonNil(req.Tags),
		Links:           s.buildLinks(req.Links),
		ProgressUpdates: []ProgressUpdate{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Insert(ctx, exp); err != nil {
			return fmt.Errorf("inserting experiment: %w", err)
		}
		if s.events != nil {
			if err := s.events.ExperimentCreated(ctx, actorID, exp); err != nil {
				return fmt.Errorf("recording creation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "experiment created", "id", exp.ID, "actor", actorID)
	return exp, nil
}

// Update merges a patch into an experiment. A StatusChanged event is
// recorded only when the status actually changes.
func (s *Service) Update(ctx context.Context, actorID, id string, req UpdateRequest) (*Experiment, error) {
	if err := ValidateUpdateInput(req); err != nil {
		return nil, err
	}

	var updated *Experiment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		exp, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		oldStatus := exp.Status

		if req.Title != nil {
			exp.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			exp.Description = *req.Description
		}
		if req.Status != nil {
			exp.Status = *req.Status
		}
		if req.Category != nil {
			exp.Category = req.Category
		}
		if req.Tags != nil {
			exp.Tags = req.Tags
		}
		if req.Links != nil {
			exp.Links = s.buildLinks(req.Links)
		}
		if req.CoverImageURL != nil {
			exp.CoverImageURL = req.CoverImageURL
		}
		exp.UpdatedAt = s.now()

		if err := s.repo.Update(ctx, exp); err != nil {
			return fmt.Errorf("updating experiment: %w", err)
		}
		if exp.Status != oldStatus && s.events != nil {
			if err := s.events.StatusChanged(ctx, actorID, exp.ID, oldStatus, exp.Status); err != nil {
				return fmt.Errorf("recording status change: %w", err)
			}
		}
		updated = exp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SoftDelete marks an experiment deleted. No activity is recorded.
func (s *Service) SoftDelete(ctx context.Context, actorID, id string) (*Experiment, error) {
	return s.mutate(ctx, id, func(exp *Experiment, now time.Time) {
		exp.DeletedAt = &now
	})
}

// Restore clears an experiment's delete timestamp. No activity is recorded.
func (s *Service) Restore(ctx context.Context, actorID, id string) (*Experiment, error) {
	return s.mutate(ctx, id, func(exp *Experiment, _ time.Time) {
		exp.DeletedAt = nil
	})
}

// RemoveCollaborator drops collaboratorID if present. No activity is recorded.
func (s *Service) RemoveCollaborator(ctx context.Context, actorID, id, collaboratorID string) (*Experiment, error) {
	return s.mutate(ctx, id, func(exp *Experiment, _ time.Time) {
		kept := make([]string, 0, len(exp.CollaboratorIDs))
		for _, c := range exp.CollaboratorIDs {
			if c != collaboratorID {
				kept = append(kept, c)
			}
		}
		exp.CollaboratorIDs = kept
	})
}

// Fork creates a new Idea-stage experiment derived from the parent and
// records a Forked event against the parent.
func (s *Service) Fork(ctx context.Context, actorID string, req ForkRequest) (*Experiment, error) {
	if req.Title != nil {
		if err := ValidateTitle(*req.Title); err != nil {
			return nil, err
		}
	}

	var fork *Experiment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		parent, err := s.repo.Get(ctx, req.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrParentNotFound
			}
			return fmt.Errorf("loading parent: %w", err)
		}

		title := parent.Title + " (Fork)"
		if req.Title != nil {
			title = strings.TrimSpace(*req.Title)
		}
		description := parent.Description
		if req.Description != nil && strings.TrimSpace(*req.Description) != "" {
			description = *req.Description
		}

		now := s.now()
		parentID := parent.ID
		fork = &Experiment{
			ID:              s.newID(),
			Title:           title,
			Description:     description,
			Status:          StatusIdea,
			Category:        parent.Category,
			OwnerID:         actorID,
			CollaboratorIDs: []string{},
			ForkedFromID:    &parentID,
			Tags:            append([]string{}, parent.Tags...),
			Links:           []Link{},
			ProgressUpdates: []ProgressUpdate{},
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if err := s.repo.Insert(ctx, fork); err != nil {
			return fmt.Errorf("inserting fork: %w", err)
		}
		if s.events != nil {
			if err := s.events.ExperimentForked(ctx, actorID, parent.ID, fork.ID); err != nil {
				return fmt.Errorf("recording fork: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "experiment forked", "parent", req.ParentID, "fork", fork.ID, "actor", actorID)
	return fork, nil
}

// AddCollaborator adds a known user to an experiment. Adding an existing
// collaborator is a no-op that records nothing.
func (s *Service) AddCollaborator(ctx context.Context, actorID, id, collaboratorID string) (*Experiment, error) {
	var result *Experiment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		exp, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if s.users != nil {
			if _, err := s.users.Get(ctx, collaboratorID); err != nil {
				return fmt.Errorf("resolving collaborator: %w", err)
			}
		}
		if exp.HasCollaborator(collaboratorID) {
			result = exp
			return nil
		}

		exp.CollaboratorIDs = append(exp.CollaboratorIDs, collaboratorID)
		exp.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, exp); err != nil {
			return fmt.Errorf("updating experiment: %w", err)
		}
		if s.events != nil {
			if err := s.events.CollaboratorAdded(ctx, actorID, exp.ID, collaboratorID); err != nil {
				return fmt.Errorf("recording collaborator: %w", err)
			}
		}
		result = exp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddProgressUpdate appends a progress note to an experiment.
func (s *Service) AddProgressUpdate(ctx context.Context, actorID, id, content string) (*ProgressUpdate, error) {
	if err := ValidateProgressContent(content); err != nil {
		return nil, err
	}

	var update *ProgressUpdate
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		exp, err := s.load(ctx, id)
		if err != nil {
			return err
		}

		now := s.now()
		update = &ProgressUpdate{
			ID:           s.newID(),
			ExperimentID: exp.ID,
			Content:      content,
			CreatedByID:  actorID,
			CreatedAt:    now,
		}
		if err := s.repo.AppendProgress(ctx, update); err != nil {
			return fmt.Errorf("appending progress: %w", err)
		}

		exp.UpdatedAt = now
		if err := s.repo.Update(ctx, exp); err != nil {
			return fmt.Errorf("updating experiment: %w", err)
		}
		if s.events != nil {
			if err := s.events.ProgressAdded(ctx, actorID, update); err != nil {
				return fmt.Errorf("recording progress: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return update, nil
}

func (s *Service) mutate(ctx context.Context, id string, apply func(*Experiment, time.Time)) (*Experiment, error) {
	var result *Experiment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		exp, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		apply(exp, now)
		exp.UpdatedAt = now
		if err := s.repo.Update(ctx, exp); err != nil {
			return fmt.Errorf("updating experiment: %w", err)
		}
		result = exp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) load(ctx context.Context, id string) (*Experiment, error) {
	exp, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExperimentNotFound
		}
		return nil, fmt.Errorf("loading experiment: %w", err)
	}
	return exp, nil
}

func (s *Service) buildLinks(in []LinkInput) []Link {
	links := make([]Link, 0, len(in))
	for _, l := range in {
		links = append(links, Link{ID: s.newID(), Title: l.Title, URL: l.URL})
	}
	return links
}

func (s *Service) userIndex(ctx context.Context) (map[string]user.User, error) {
	if s.users == nil {
		return nil, nil
	}
	index, err := s.users.Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	return index, nil
}

func (s *Service) summarize(ctx context.Context, exps []Experiment) ([]Summary, error) {
	index, err := s.userIndex(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(exps))
	for _, exp := range exps {
		out = append(out, Summary{
			Experiment:    exp,
			Owner:         lookup(index, exp.OwnerID),
			Collaborators: collect(index, exp.CollaboratorIDs),
		})
	}
	return out, nil
}

func lookup(index map[string]user.User, id string) *user.User {
	u, ok := index[id]
	if !ok {
		return nil
	}
	return &u
}

func collect(index map[string]user.User, ids []string) []user.User {
	out := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := index[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
