package experiment

import (
	"time"

	"github.com/nilelabs/labs/internal/domain/user"
)

// Status represents where an experiment is in its lifecycle
type Status string

const (
	StatusIdea         Status = "Idea"
	StatusActive       Status = "Active"
	StatusFindings     Status = "Findings"
	StatusInProduction Status = "In Production"
)

// Statuses lists every status in declaration order.
var Statuses = []Status{StatusIdea, StatusActive, StatusFindings, StatusInProduction}

// Rank returns the declaration position of the status, or -1 if unknown.
func (s Status) Rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a declared status.
func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// Category groups experiments by area of work
type Category string

const (
	CategoryClientExperience   Category = "Client Experience"
	CategoryServiceDesign      Category = "Service Design"
	CategoryStrategyInnovation Category = "Strategy & Innovation"
	CategoryResearchInsights   Category = "Research & Insights"
	CategoryProcessMethods     Category = "Process & Methods"
	CategoryAIAutomation       Category = "AI & Automation"
	CategoryInternalCapability Category = "Internal Capability"
	CategoryOther              Category = "Other"
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryClientExperience,
	CategoryServiceDesign,
	CategoryStrategyInnovation,
	CategoryResearchInsights,
	CategoryProcessMethods,
	CategoryAIAutomation,
	CategoryInternalCapability,
	CategoryOther,
}

// Valid reports whether c is a declared category.
func (c Category) Valid() bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// Link is an external resource attached to an experiment
type Link struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ProgressUpdate is an immutable note appended to an experiment
type ProgressUpdate struct {
	ID           string    `json:"id"`
	ExperimentID string    `json:"experiment_id"`
	Content      string    `json:"content"`
	CreatedByID  string    `json:"created_by_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Experiment is a tracked unit of work
type Experiment struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Status          Status           `json:"status"`
	Category        *Category        `json:"category,omitempty"`
	CoverImageURL   *string          `json:"cover_image_url,omitempty"`
	OwnerID         string           `json:"owner_id"`
	CollaboratorIDs []string         `json:"collaborator_ids"`
	ForkedFromID    *string          `json:"forked_from_id,omitempty"`
	Tags            []string         `json:"tags"`
	Links           []Link           `json:"links"`
	ProgressUpdates []ProgressUpdate `json:"progress_updates"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       *time.Time       `json:"deleted_at,omitempty"`
}

// Deleted reports whether the experiment is soft-deleted.
func (e *Experiment) Deleted() bool {
	return e.DeletedAt != nil
}

// HasCollaborator reports whether userID is already a collaborator.
func (e *Experiment) HasCollaborator(userID string) bool {
	for _, id := range e.CollaboratorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate without aliasing storage.
func (e Experiment) Clone() Experiment {
	out := e
	out.Category = clonePtr(e.Category)
	out.CoverImageURL = clonePtr(e.CoverImageURL)
	out.ForkedFromID = clonePtr(e.ForkedFromID)
	out.DeletedAt = clonePtr(e.DeletedAt)
	out.CollaboratorIDs = append([]string{}, e.CollaboratorIDs...)
	out.Tags = append([]string{}, e.Tags...)
	out.Links = append([]Link{}, e.Links...)
	out.ProgressUpdates = append([]ProgressUpdate{}, e.ProgressUpdates...)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Summary is a list entry enriched with its people
type Summary struct {
	Experiment
	Owner         *user.User  `json:"owner,omitempty"`
	Collaborators []user.User `json:"collaborators"`
}

// Details is a single experiment enriched with people and lineage
type Details struct {
	Experiment
	Owner         *user.User  `json:"owner,omitempty"`
	Collaborators []user.User `json:"collaborators"`
	ForkedFrom    *Experiment `json:"forked_from,omitempty"`
	ForkCount     int         `json:"fork_count"`
}
