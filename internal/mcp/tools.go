package mcp

import (
	"context"
	"encoding/json"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nilelabs/labs/internal/metrics"
	"github.com/nilelabs/labs/internal/rpc"
)

// toolError is the JSON body of a failed tool call.
type toolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func registerTools(server *sdkmcp.Server, handler Handler) {
	// Experiments
	addTool[rpc.ListExperimentsParams](server, handler, rpc.MethodListExperiments,
		"List experiments with optional status, category, owner, collaborator and text filters. Soft-deleted experiments are hidden unless include_deleted is set.")
	addTool[rpc.IDParams](server, handler, rpc.MethodGetExperiment,
		"Get one experiment with its owner, collaborators, fork parent and fork count. Returns null when the id is unknown.")
	addTool[rpc.CreateExperimentParams](server, handler, rpc.MethodCreateExperiment,
		"Create an experiment owned by the caller. Status defaults to Idea.")
	addTool[rpc.UpdateExperimentParams](server, handler, rpc.MethodUpdateExperiment,
		"Patch an experiment. Omitted fields are left unchanged; a status change is recorded in the activity feed.")
	addTool[rpc.IDParams](server, handler, rpc.MethodDeleteExperiment,
		"Soft-delete an experiment. It can be restored later.")
	addTool[rpc.IDParams](server, handler, rpc.MethodRestoreExperiment,
		"Restore a soft-deleted experiment.")
	addTool[rpc.ForkExperimentParams](server, handler, rpc.MethodForkExperiment,
		"Fork an experiment into a new Idea owned by the caller.")
	addTool[rpc.AddProgressUpdateParams](server, handler, rpc.MethodAddProgressUpdate,
		"Append a progress note to an experiment.")
	addTool[rpc.CollaboratorParams](server, handler, rpc.MethodAddCollaborator,
		"Add a collaborator to an experiment. Adding an existing collaborator changes nothing.")
	addTool[rpc.CollaboratorParams](server, handler, rpc.MethodRemoveCollaborator,
		"Remove a collaborator from an experiment.")
	addTool[rpc.ExperimentRefParams](server, handler, rpc.MethodGetForkCount,
		"Count experiments forked directly from an experiment.")
	addTool[rpc.UserRefParams](server, handler, rpc.MethodGetUserExperiments,
		"List live experiments owned by or shared with a user.")

	// Activity
	addTool[rpc.ListActivityParams](server, handler, rpc.MethodListActivity,
		"List activity events newest first, optionally filtered by time, type, actor and experiment.")
	addTool[rpc.EmptyParams](server, handler, rpc.MethodGetActivityPulse,
		"Count events from the last 24 hours and return the newest few.")
	addTool[rpc.EmptyParams](server, handler, rpc.MethodGetGroupedActivity,
		"Group the activity feed into recent, today, this week and older buckets.")
	addTool[rpc.CountActivityParams](server, handler, rpc.MethodCountActivity,
		"Count events after a timestamp.")

	// Users
	addTool[rpc.EmptyParams](server, handler, rpc.MethodListUsers,
		"List the people in the lab.")
}

// addTool registers a tool whose input schema is inferred from In. The raw
// arguments are forwarded so an explicit empty list still clears a field.
func addTool[In any](server *sdkmcp.Server, handler Handler, name, description string) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, req *sdkmcp.CallToolRequest, _ In) (*sdkmcp.CallToolResult, any, error) {
			args := json.RawMessage(`{}`)
			if req != nil && req.Params != nil && len(req.Params.Arguments) > 0 {
				args = req.Params.Arguments
			}

			result, err := handler.Handle(ctx, getActorID(ctx), name, args)
			metrics.IncrementToolCall(name, err)
			if err != nil {
				return errorResult(err), nil, nil
			}
			return jsonResult(result)
		})
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func errorResult(err error) *sdkmcp.CallToolResult {
	body := toolError{Code: "INTERNAL", Message: "internal error"}
	var rpcErr *rpc.Error
	if errors.As(err, &rpcErr) {
		body = toolError{Code: rpcErr.ErrorKind(), Message: rpcErr.Message}
	}
	data, _ := json.Marshal(body)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
