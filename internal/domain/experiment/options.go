package experiment

// Filters narrows List results. Distinct fields combine with AND; values
// within Statuses or Categories combine with OR.
type Filters struct {
	Statuses       []Status
	Categories     []Category
	OwnerID        string
	CollaboratorID string
	IncludeDeleted bool
	Search         string
}

// SortField names a sort key.
type SortField string

const (
	SortCreatedAt  SortField = "created_at"
	SortUpdatedAt  SortField = "updated_at"
	SortTitle      SortField = "title"
	SortStatus     SortField = "status"
	SortMostForked SortField = "most_forked"
)

// Valid reports whether f is a known sort key.
func (f SortField) Valid() bool {
	switch f {
	case SortCreatedAt, SortUpdatedAt, SortTitle, SortStatus, SortMostForked:
		return true
	}
	return false
}

// SortOrder is the sort direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Sort describes an ordering. A nil *Sort keeps insertion order.
type Sort struct {
	By    SortField
	Order SortOrder
}
