package core

// Action names accepted by Session.Dispatch.
const (
	ActionFilter   = "filter"
	ActionPageSize = "page-size"
	ActionFirst    = "first"
	ActionPrev     = "prev"
	ActionNext     = "next"
	ActionLast     = "last"
	ActionSelect   = "select"
	ActionDeselect = "deselect"
	ActionQuantity = "quantity"
	ActionDelete   = "delete"
	ActionClear    = "clear"
)

// Action is one delegated user interaction. Fields not used by the named
// action are ignored; numeric fields stay as submitted text so the
// dispatcher decides how to treat unparsable input.
type Action struct {
	Name     string
	ID       string
	Quantity string
	Brand    string
	Query    string
	PageSize string
}
