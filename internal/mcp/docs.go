package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `nile-labs tracks the team's experiments and the activity around them.

Core concepts:
- Experiment: a titled piece of work with a status (Idea, Active, Findings, In Production), optional category, tags, links, collaborators and progress updates.
- Fork: a new Idea copied from an existing experiment; the parent keeps a fork count.
- Activity feed: append-only events (experiment_created, status_changed, progress_added, experiment_forked, collaborator_added), newest first.
- Soft delete: delete_experiment hides an experiment from listings; restore_experiment brings it back. Nothing is ever erased.

Workflow:
1) Orient: get_activity_pulse for the last 24 hours, get_grouped_activity for the wider picture.
2) Browse: list_experiments with filters and sort_by (created_at, updated_at, title, status, most_forked).
3) Drill in: get_experiment returns people, lineage and fork count; null means the id is unknown.
4) Write: create_experiment, update_experiment, add_progress_update, fork_experiment, add_collaborator.

Errors come back as {"code": "NOT_FOUND" | "INVALID_INPUT", "message": ...}.

Transport notes:
- HTTP: pass the acting user id in the X-Actor-Id header; without it the configured default actor is used.
- Stdio: every call acts as the default actor.

Docs:
- labs://docs/concepts
- labs://docs/filters
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "labs://docs/concepts",
		Name:        "docs_concepts",
		Title:       "Lab concepts",
		Description: "Experiment lifecycle, forking and the activity feed.",
		Content: `# Lab concepts

## Status

Idea → Active → Findings → In Production. Any status may move to any other;
only an actual change is recorded in the feed.

## Forking

A fork starts as an Idea owned by the caller, with no collaborators or
progress. Its title defaults to "<parent title> (Fork)" and its description
to the parent's. Category and tags are copied. The parent's feed gets an
experiment_forked event naming the fork.

## Activity

Events are never edited or removed. Grouping uses the current time:

- recent: the last hour
- today: 1 to 24 hours ago
- this_week: 1 to 7 days ago
- older: everything before that
`,
	},
	{
		URI:         "labs://docs/filters",
		Name:        "docs_filters",
		Title:       "Listing and sorting",
		Description: "How list_experiments combines filters and orders results.",
		Content: `# Listing and sorting

Filters combine with AND across fields and OR within status or category lists.
search matches title, description or any tag, ignoring case. An experiment
without a category never matches a category filter.

Without sort_by, experiments come back in creation order. sort_order defaults
to desc. Equal keys keep creation order. most_forked counts direct forks only.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
