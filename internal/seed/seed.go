// Package seed loads the demo dataset used by local and test deployments.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/nilelabs/labs/internal/domain/activity"
	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/nilelabs/labs/internal/domain/user"
	"github.com/nilelabs/labs/internal/repository"
)

// UserWriter adds users to the directory.
type UserWriter interface {
	Insert(ctx context.Context, u *user.User) error
}

// Target bundles the repositories the dataset is written to.
type Target struct {
	Users       UserWriter
	Experiments experiment.Repository
	Activity    activity.Repository
	Tx          repository.Transactor
}

// Dataset is the full demo data, with timestamps relative to a reference
// instant. Events are ordered most recent first.
type Dataset struct {
	Users       []user.User
	Experiments []experiment.Experiment
	Events      []activity.Event
}

// Load writes the dataset for now into target in one transaction.
func Load(ctx context.Context, target Target, now time.Time) error {
	data := Build(now)
	tx := target.Tx
	if tx == nil {
		tx = repository.NoTx
	}
	return tx.RunInTx(ctx, func(ctx context.Context) error {
		for i := range data.Users {
			if err := target.Users.Insert(ctx, &data.Users[i]); err != nil {
				return fmt.Errorf("seeding user %s: %w", data.Users[i].ID, err)
			}
		}
		for i := range data.Experiments {
			exp := data.Experiments[i]
			progress := exp.ProgressUpdates
			exp.ProgressUpdates = []experiment.ProgressUpdate{}
			if err := target.Experiments.Insert(ctx, &exp); err != nil {
				return fmt.Errorf("seeding experiment %s: %w", exp.ID, err)
			}
			for j := range progress {
				if err := target.Experiments.AppendProgress(ctx, &progress[j]); err != nil {
					return fmt.Errorf("seeding progress %s: %w", progress[j].ID, err)
				}
			}
		}
		// Append pushes to the head, so write oldest first.
		for i := len(data.Events) - 1; i >= 0; i-- {
			if err := target.Activity.Append(ctx, &data.Events[i]); err != nil {
				return fmt.Errorf("seeding event %s: %w", data.Events[i].ID, err)
			}
		}
		return nil
	})
}

const (
	hour = time.Hour
	day  = 24 * time.Hour
)

// Build returns the dataset anchored at now.
func Build(now time.Time) Dataset {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }
	joined := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cat := func(c experiment.Category) *experiment.Category { return &c }
	ref := func(s string) *string { return &s }

	users := []user.User{
		{ID: "user-1", Email: "tiernan@nile.com", Name: "Tiernan", CreatedAt: joined},
		{ID: "user-2", Email: "sarah@nile.com", Name: "Sarah Chen", CreatedAt: joined},
		{ID: "user-3", Email: "alex@nile.com", Name: "Alex Kumar", CreatedAt: joined},
		{ID: "user-4", Email: "emma@nile.com", Name: "Emma Wilson", CreatedAt: joined},
		{ID: "user-5", Email: "tom@nile.com", Name: "Tom Mitchell", CreatedAt: joined},
		{ID: "user-6", Email: "lloyd@nile.com", Name: "Lloyd", CreatedAt: joined},
	}

	progress := []experiment.ProgressUpdate{
		{ID: "progress-1", ExperimentID: "exp-1", Content: "Completed initial user research interviews with 5 participants", CreatedByID: "user-2", CreatedAt: ago(2 * day)},
		{ID: "progress-2", ExperimentID: "exp-1", Content: "Synthesized findings into key themes and opportunities", CreatedByID: "user-2", CreatedAt: ago(1 * day)},
		{ID: "progress-3", ExperimentID: "exp-2", Content: "Built initial prototype using Figma", CreatedByID: "user-3", CreatedAt: ago(3 * day)},
		{ID: "progress-4", ExperimentID: "exp-3", Content: "Tested ChatGPT API for discussion guide generation", CreatedByID: "user-4", CreatedAt: ago(5 * hour)},
		{ID: "progress-5", ExperimentID: "exp-3", Content: "Created template library with 10 discussion guide formats", CreatedByID: "user-4", CreatedAt: ago(2 * hour)},
	}
	progressFor := func(id string) []experiment.ProgressUpdate {
		out := []experiment.ProgressUpdate{}
		for _, p := range progress {
			if p.ExperimentID == id {
				out = append(out, p)
			}
		}
		return out
	}

	exps := []experiment.Experiment{
		{
			ID:              "exp-1",
			Title:           "AI Brief Generator",
			Description:     "Exploring how we can use LLMs to generate creative briefs from client conversations. Testing with GPT-4 and Claude to see which produces better strategic outputs.",
			Status:          experiment.StatusActive,
			Category:        cat(experiment.CategoryAIAutomation),
			OwnerID:         "user-2",
			CollaboratorIDs: []string{"user-3", "user-4"},
			Links: []experiment.Link{
				{ID: "link-1", Title: "Miro Board", URL: "https://miro.com/board/123"},
				{ID: "link-2", Title: "Test Results", URL: "https://docs.google.com/123"},
			},
			Tags:      []string{"AI", "automation", "briefs", "GPT-4"},
			CreatedAt: ago(7 * day),
			UpdatedAt: ago(1 * day),
		},
		{
			ID:              "exp-2",
			Title:           "Customer Journey Mapping Tool",
			Description:     "Building a digital tool to help clients map their customer journeys in real-time during workshops. Will integrate with our existing facilitation toolkit.",
			Status:          experiment.StatusActive,
			Category:        cat(experiment.CategoryServiceDesign),
			OwnerID:         "user-3",
			CollaboratorIDs: []string{"user-5"},
			Tags:            []string{"journey mapping", "workshops", "digital tools"},
			CreatedAt:       ago(14 * day),
			UpdatedAt:       ago(3 * day),
		},
		{
			ID:              "exp-3",
			Title:           "Using ChatGPT for Interview Guides",
			Description:     "Creating a prompt library to help consultants quickly generate discussion guides for user interviews. Testing different prompt structures.",
			Status:          experiment.StatusActive,
			Category:        cat(experiment.CategoryResearchInsights),
			OwnerID:         "user-4",
			CollaboratorIDs: []string{},
			Tags:            []string{"ChatGPT", "research", "interviews", "prompts"},
			CreatedAt:       ago(3 * day),
			UpdatedAt:       ago(2 * hour),
		},
		{
			ID:              "exp-4",
			Title:           "Design System 2.0",
			Description:     "Evolving our design system to be more flexible and component-based. Exploring token-based theming for client projects.",
			Status:          experiment.StatusInProduction,
			Category:        cat(experiment.CategoryInternalCapability),
			OwnerID:         "user-5",
			CollaboratorIDs: []string{"user-2", "user-3"},
			Tags:            []string{"design system", "components", "tokens"},
			CreatedAt:       ago(30 * day),
			UpdatedAt:       ago(5 * day),
		},
		{
			ID:              "exp-5",
			Title:           "Storyboard Generator with Gemini",
			Description:     "Using Google's Gemini to create storyboards from text descriptions. Could speed up our concept visualization process.",
			Status:          experiment.StatusIdea,
			Category:        cat(experiment.CategoryAIAutomation),
			OwnerID:         "user-1",
			CollaboratorIDs: []string{},
			ForkedFromID:    ref("exp-3"),
			Tags:            []string{"Gemini", "AI", "storyboards", "visualization"},
			CreatedAt:       ago(1 * hour),
			UpdatedAt:       ago(1 * hour),
		},
		{
			ID:              "exp-6",
			Title:           "Workshop Energy Tracker",
			Description:     "Tried using sentiment analysis to track energy levels during virtual workshops. Interesting insights but privacy concerns made us park it.",
			Status:          experiment.StatusFindings,
			Category:        cat(experiment.CategoryProcessMethods),
			OwnerID:         "user-6",
			CollaboratorIDs: []string{"user-2"},
			Tags:            []string{"workshops", "sentiment", "virtual", "energy"},
			CreatedAt:       ago(45 * day),
			UpdatedAt:       ago(20 * day),
		},
		{
			ID:              "exp-7",
			Title:           "Conversational UI for Sales Training",
			Description:     "Building a chatbot to help new consultants practice sales conversations. Uses role-play scenarios based on real client interactions.",
			Status:          experiment.StatusActive,
			Category:        cat(experiment.CategoryInternalCapability),
			OwnerID:         "user-2",
			CollaboratorIDs: []string{"user-6"},
			Tags:            []string{"training", "chatbot", "sales", "AI"},
			CreatedAt:       ago(10 * day),
			UpdatedAt:       ago(4 * hour),
		},
		{
			ID:              "exp-8",
			Title:           "Client Portal v2",
			Description:     "Reimagining how clients access project deliverables. Testing a new interface with better search and filtering.",
			Status:          experiment.StatusActive,
			Category:        cat(experiment.CategoryClientExperience),
			OwnerID:         "user-3",
			CollaboratorIDs: []string{"user-4", "user-5"},
			Tags:            []string{"portal", "client", "UX", "search"},
			CreatedAt:       ago(5 * day),
			UpdatedAt:       ago(12 * hour),
		},
	}
	for i := range exps {
		if exps[i].Links == nil {
			exps[i].Links = []experiment.Link{}
		}
		exps[i].ProgressUpdates = progressFor(exps[i].ID)
	}

	events := []activity.Event{
		{ID: "event-1", ActorID: "user-1", ExperimentID: "exp-5", CreatedAt: ago(1 * hour), Payload: activity.Created{}},
		{ID: "event-2", ActorID: "user-4", ExperimentID: "exp-3", CreatedAt: ago(2 * hour), Payload: activity.ProgressAdded{Update: progress[4]}},
		{ID: "event-3", ActorID: "user-1", ExperimentID: "exp-3", CreatedAt: ago(1 * hour), Payload: activity.Forked{ForkID: "exp-5"}},
		{ID: "event-4", ActorID: "user-2", ExperimentID: "exp-7", CreatedAt: ago(4 * hour), Payload: activity.StatusChanged{Old: experiment.StatusIdea, New: experiment.StatusActive}},
		{ID: "event-5", ActorID: "user-3", ExperimentID: "exp-8", CreatedAt: ago(6 * hour), Payload: activity.CollaboratorAdded{CollaboratorID: "user-5"}},
		{ID: "event-6", ActorID: "user-4", ExperimentID: "exp-3", CreatedAt: ago(5 * hour), Payload: activity.ProgressAdded{Update: progress[3]}},
		{ID: "event-7", ActorID: "user-3", ExperimentID: "exp-8", CreatedAt: ago(5 * day), Payload: activity.Created{}},
		{ID: "event-8", ActorID: "user-5", ExperimentID: "exp-4", CreatedAt: ago(5 * day), Payload: activity.StatusChanged{Old: experiment.StatusActive, New: experiment.StatusInProduction}},
	}
	for i := range events {
		events[i].Type = events[i].Payload.EventType()
	}

	return Dataset{Users: users, Experiments: exps, Events: events}
}
