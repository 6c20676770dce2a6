package rpc

import (
	"github.com/nilelabs/labs/internal/domain/activity"
	"github.com/nilelabs/labs/internal/domain/experiment"
)

type ListExperimentsParams struct {
	Status         []experiment.Status   `json:"status,omitempty" jsonschema:"Keep experiments in any of these statuses (Idea, Active, Findings, In Production)"`
	Category       []experiment.Category `json:"category,omitempty" jsonschema:"Keep experiments in any of these categories"`
	OwnerID        string                `json:"owner_id,omitempty" jsonschema:"Keep experiments owned by this user"`
	CollaboratorID string                `json:"collaborator_id,omitempty" jsonschema:"Keep experiments shared with this user"`
	IncludeDeleted bool                  `json:"include_deleted,omitempty" jsonschema:"Include soft-deleted experiments"`
	Search         string                `json:"search,omitempty" jsonschema:"Case-insensitive text matched against title, description and tags"`
	SortBy         experiment.SortField  `json:"sort_by,omitempty" jsonschema:"One of created_at, updated_at, title, status, most_forked"`
	SortOrder      experiment.SortOrder  `json:"sort_order,omitempty" jsonschema:"asc or desc (default desc)"`
}

type IDParams struct {
	ID string `json:"id" jsonschema:"Experiment ID"`
}

type ExperimentRefParams struct {
	ExperimentID string `json:"experiment_id" jsonschema:"Experiment ID"`
}

type CreateExperimentParams struct {
	Title         string                 `json:"title" jsonschema:"Title, 1 to 100 characters"`
	Description   string                 `json:"description" jsonschema:"What the experiment is about"`
	Status        experiment.Status      `json:"status,omitempty" jsonschema:"Initial status (default Idea)"`
	Category      *experiment.Category   `json:"category,omitempty" jsonschema:"Category"`
	Tags          []string               `json:"tags,omitempty" jsonschema:"Free-form tags"`
	Links         []experiment.LinkInput `json:"links,omitempty" jsonschema:"External links"`
	CoverImageURL *string                `json:"cover_image_url,omitempty" jsonschema:"Cover image URL"`
}

type UpdateExperimentParams struct {
	ID            string                 `json:"id" jsonschema:"Experiment ID"`
	Title         *string                `json:"title,omitempty" jsonschema:"New title"`
	Description   *string                `json:"description,omitempty" jsonschema:"New description"`
	Status        *experiment.Status     `json:"status,omitempty" jsonschema:"New status"`
	Category      *experiment.Category   `json:"category,omitempty" jsonschema:"New category"`
	Tags          []string               `json:"tags,omitempty" jsonschema:"Replacement tag list"`
	Links         []experiment.LinkInput `json:"links,omitempty" jsonschema:"Replacement link list"`
	CoverImageURL *string                `json:"cover_image_url,omitempty" jsonschema:"New cover image URL"`
}

type ForkExperimentParams struct {
	ParentID    string  `json:"parent_id" jsonschema:"Experiment to fork"`
	Title       *string `json:"title,omitempty" jsonschema:"Title for the fork (default: parent title + (Fork))"`
	Description *string `json:"description,omitempty" jsonschema:"Description for the fork (default: parent description)"`
}

type AddProgressUpdateParams struct {
	ExperimentID string `json:"experiment_id" jsonschema:"Experiment ID"`
	Content      string `json:"content" jsonschema:"Progress note"`
}

type CollaboratorParams struct {
	ExperimentID   string `json:"experiment_id" jsonschema:"Experiment ID"`
	CollaboratorID string `json:"collaborator_id" jsonschema:"User ID of the collaborator"`
}

type UserRefParams struct {
	UserID string `json:"user_id" jsonschema:"User ID"`
}

type ListActivityParams struct {
	Since        string               `json:"since,omitempty" jsonschema:"RFC3339 timestamp; keep events strictly after it"`
	Types        []activity.EventType `json:"types,omitempty" jsonschema:"Keep events of these types"`
	ActorID      string               `json:"actor_id,omitempty" jsonschema:"Keep events by this user"`
	ExperimentID string               `json:"experiment_id,omitempty" jsonschema:"Keep events about this experiment"`
	Limit        int                  `json:"limit,omitempty" jsonschema:"Maximum number of events, newest first"`
}

type CountActivityParams struct {
	Since string `json:"since" jsonschema:"RFC3339 timestamp; count events strictly after it"`
}

type EmptyParams struct{}

type ForkCountResponse struct {
	ExperimentID string `json:"experiment_id"`
	Count        int    `json:"count"`
}

type CountResponse struct {
	Count int `json:"count"`
}
