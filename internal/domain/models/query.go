package models

// View selects which column projection a read query returns.
type View string

const (
	ViewList    View = "list"    // columns for table rows
	ViewDetail  View = "detail"  // full record
	ViewMinimal View = "minimal" // id + display name only
)

// ListOptions carries pagination, filtering and sorting for read queries.
// Filter values are matched verbatim against the stored fields.
type ListOptions struct {
	Filter   map[string]any `json:"filter,omitempty"`
	SortBy   string         `json:"sort_by,omitempty"`
	SortDesc bool           `json:"sort_desc,omitempty"`
	Offset   int64          `json:"offset,omitempty"`
	Limit    int64          `json:"limit,omitempty"`
	View     View           `json:"view,omitempty"`
}

// Normalize caps the page size and defaults the view. The cap keeps the
// virtualized table reads from pulling whole collections.
func (o *ListOptions) Normalize() {
	if o.Limit <= 0 || o.Limit > 500 {
		o.Limit = 500
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.View == "" {
		o.View = ViewList
	}
}
