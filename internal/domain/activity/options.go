package activity

import "time"

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	// Since keeps events strictly after this instant.
	Since        *time.Time
	Types        []EventType
	ActorID      string
	ExperimentID string
	// Limit caps the result after ordering. Zero means no cap.
	Limit int
}

func (o ListOptions) matches(e *Event) bool {
	if o.Since != nil && !e.CreatedAt.After(*o.Since) {
		return false
	}
	if len(o.Types) > 0 {
		found := false
		for _, t := range o.Types {
			if t == e.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if o.ActorID != "" && e.ActorID != o.ActorID {
		return false
	}
	if o.ExperimentID != "" && e.ExperimentID != o.ExperimentID {
		return false
	}
	return true
}
