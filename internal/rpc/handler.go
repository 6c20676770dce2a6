package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nilelabs/labs/internal/domain/activity"
	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/metrics"
)

// ExperimentService defines experiment operations needed by the handler.
type ExperimentService interface {
	List(ctx context.Context, filters experiment.Filters, sort *experiment.Sort) ([]experiment.Summary, error)
	ListForUser(ctx context.Context, userID string) ([]experiment.Summary, error)
	Get(ctx context.Context, id string) (*experiment.Details, error)
	ForkCount(ctx context.Context, id string) (int, error)
	Create(ctx context.Context, actorID string, req experiment.CreateRequest) (*experiment.Experiment, error)
	Update(ctx context.Context, actorID, id string, req experiment.UpdateRequest) (*experiment.Experiment, error)
	SoftDelete(ctx context.Context, actorID, id string) (*experiment.Experiment, error)
	Restore(ctx context.Context, actorID, id string) (*experiment.Experiment, error)
	Fork(ctx context.Context, actorID string, req experiment.ForkRequest) (*experiment.Experiment, error)
	AddCollaborator(ctx context.Context, actorID, id, collaboratorID string) (*experiment.Experiment, error)
	RemoveCollaborator(ctx context.Context, actorID, id, collaboratorID string) (*experiment.Experiment, error)
	AddProgressUpdate(ctx context.Context, actorID, id, content string) (*experiment.ProgressUpdate, error)
}

// ActivityService defines activity operations needed by the handler.
type ActivityService interface {
	List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
	Pulse(ctx context.Context) (activity.Pulse, error)
	Grouped(ctx context.Context) (activity.Groups, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// UserService defines user operations needed by the handler.
type UserService interface {
	List(ctx context.Context) ([]user.User, error)
}

// Method names served by the handler.
const (
	MethodListExperiments    = "list_experiments"
	MethodGetExperiment      = "get_experiment"
	MethodCreateExperiment   = "create_experiment"
	MethodUpdateExperiment   = "update_experiment"
	MethodDeleteExperiment   = "delete_experiment"
	MethodRestoreExperiment  = "restore_experiment"
	MethodForkExperiment     = "fork_experiment"
	MethodAddProgressUpdate  = "add_progress_update"
	MethodAddCollaborator    = "add_collaborator"
	MethodRemoveCollaborator = "remove_collaborator"
	MethodGetForkCount       = "get_fork_count"
	MethodGetUserExperiments = "get_user_experiments"
	MethodListActivity       = "list_activity"
	MethodGetActivityPulse   = "get_activity_pulse"
	MethodGetGroupedActivity = "get_grouped_activity"
	MethodCountActivity      = "count_activity"
	MethodListUsers          = "list_users"
)

var mutations = map[string]bool{
	MethodCreateExperiment:   true,
	MethodUpdateExperiment:   true,
	MethodDeleteExperiment:   true,
	MethodRestoreExperiment:  true,
	MethodForkExperiment:     true,
	MethodAddProgressUpdate:  true,
	MethodAddCollaborator:    true,
	MethodRemoveCollaborator: true,
}

// IsMutation reports whether method changes state.
func IsMutation(method string) bool {
	return mutations[method]
}

// Handler dispatches JSON-RPC methods to domain services.
type Handler struct {
	experiments ExperimentService
	activity    ActivityService
	users       UserService
	logger      *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(experiments ExperimentService, activitySvc ActivityService, users UserService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		experiments: experiments,
		activity:    activitySvc,
		users:       users,
		logger:      logger,
	}
}

// Handle runs method on behalf of actorID. Errors that a client can act on
// are returned as *Error.
func (h *Handler) Handle(ctx context.Context, actorID, method string, params json.RawMessage) (any, error) {
	start := time.Now()
	result, err := h.dispatch(ctx, actorID, method, params)
	err = mapError(err)

	metrics.RecordRPC(method, err, time.Since(start))
	if IsMutation(method) {
		metrics.IncrementMutation(method, err)
	}
	if err != nil {
		h.logger.Debug("rpc call failed", "method", method, "actor", actorID, "error", err)
	}
	return result, err
}

func (h *Handler) dispatch(ctx context.Context, actorID, method string, params json.RawMessage) (any, error) {
	switch method {
	case MethodListExperiments:
		var req ListExperimentsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sort, err := req.sort()
		if err != nil {
			return nil, err
		}
		return h.experiments.List(ctx, req.filters(), sort)

	case MethodGetExperiment:
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		details, err := h.experiments.Get(ctx, req.ID)
		if errors.Is(err, experiment.ErrExperimentNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return details, nil

	case MethodCreateExperiment:
		var req CreateExperimentParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.experiments.Create(ctx, actorID, experiment.CreateRequest{
			Title:         req.Title,
			Description:   req.Description,
			Status:        req.Status,
			Category:      req.Category,
			Tags:          req.Tags,
			Links:         req.Links,
			CoverImageURL: req.CoverImageURL,
		})

	case MethodUpdateExperiment:
		var req UpdateExperimentParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.experiments.Update(ctx, actorID, req.ID, experiment.UpdateRequest{
			Title:         req.Title,
			Description:   req.Description,
			Status:        req.Status,
			Category:      req.Category,
			Tags:          req.Tags,
			Links:         req.Links,
			CoverImageURL: req.CoverImageURL,
		})

	case MethodDeleteExperiment:
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.experiments.SoftDelete(ctx, actorID, req.ID)

	case MethodRestoreExperiment:
		var req IDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.experiments.Restore(ctx, actorID, req.ID)

	case MethodForkExperiment:
		var req ForkExperimentParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.experiments.Fork(ctx, actorID, experiment.ForkRequest{
			ParentID:    req.ParentID,
			Title:       req.Title,
			Description: req.Description,
		})

	case MethodAddProgressUpdate:
		var req AddProgressUpdateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.experiments.AddProgressUpdate(ctx, actorID, req.ExperimentID, req.Content)

	case MethodAddCollaborator:
		var req CollaboratorParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.experiments.AddCollaborator(ctx, actorID, req.ExperimentID, req.CollaboratorID)

	case MethodRemoveCollaborator:
		var req CollaboratorParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.experiments.RemoveCollaborator(ctx, actorID, req.ExperimentID, req.CollaboratorID)

	case MethodGetForkCount:
		var req ExperimentRefParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		count, err := h.experiments.ForkCount(ctx, req.ExperimentID)
		if err != nil {
			return nil, err
		}
		return ForkCountResponse{ExperimentID: req.ExperimentID, Count: count}, nil

	case MethodGetUserExperiments:
		var req UserRefParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.UserID == "" {
			return nil, invalidParams("user_id is required")
		}
		return h.experiments.ListForUser(ctx, req.UserID)

	case MethodListActivity:
		var req ListActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		opts, err := req.options()
		if err != nil {
			return nil, err
		}
		return h.activity.List(ctx, opts)

	case MethodGetActivityPulse:
		if err := decodeParams(params, &EmptyParams{}); err != nil {
			return nil, err
		}
		return h.activity.Pulse(ctx)

	case MethodGetGroupedActivity:
		if err := decodeParams(params, &EmptyParams{}); err != nil {
			return nil, err
		}
		return h.activity.Grouped(ctx)

	case MethodCountActivity:
		var req CountActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		since, err := parseTime("since", req.Since)
		if err != nil {
			return nil, err
		}
		if since == nil {
			return nil, invalidParams("since is required")
		}
		count, err := h.activity.CountSince(ctx, *since)
		if err != nil {
			return nil, err
		}
		return CountResponse{Count: count}, nil

	case MethodListUsers:
		if err := decodeParams(params, &EmptyParams{}); err != nil {
			return nil, err
		}
		users, err := h.users.List(ctx)
		if err != nil {
			return nil, err
		}
		if users == nil {
			users = []user.User{}
		}
		return users, nil

	default:
		return nil, &Error{Code: CodeMethodNotFound, Kind: KindMethodNotFound, Message: fmt.Sprintf("unknown method %q", method)}
	}
}

// decodeParams rejects unknown fields so typos surface as INVALID_INPUT.
func decodeParams(params json.RawMessage, out any) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return invalidParams("invalid params: %v", err)
	}
	return nil
}

func parseTime(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, invalidParams("%s must be an RFC3339 timestamp", field)
	}
	return &t, nil
}

func (p ListExperimentsParams) filters() experiment.Filters {
	return experiment.Filters{
		Statuses:       p.Status,
		Categories:     p.Category,
		OwnerID:        p.OwnerID,
		CollaboratorID: p.CollaboratorID,
		IncludeDeleted: p.IncludeDeleted,
		Search:         p.Search,
	}
}

func (p ListExperimentsParams) sort() (*experiment.Sort, error) {
	if p.SortBy == "" {
		if p.SortOrder != "" {
			return nil, invalidParams("sort_order requires sort_by")
		}
		return nil, nil
	}
	return &experiment.Sort{By: p.SortBy, Order: p.SortOrder}, nil
}

func (p ListActivityParams) options() (activity.ListOptions, error) {
	since, err := parseTime("since", p.Since)
	if err != nil {
		return activity.ListOptions{}, err
	}
	return activity.ListOptions{
		Since:        since,
		Types:        p.Types,
		ActorID:      p.ActorID,
		ExperimentID: p.ExperimentID,
		Limit:        p.Limit,
	}, nil
}
