package model

// Group tags tasks with a name and a display color. Group ids are unique
// within their parent list only, not globally.
type Group struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// List is a named, ordered collection of groups. The full set of lists is
// persisted as one configuration document and replaced wholesale on save.
type List struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Groups []Group `json:"groups"`
}

const (
	// FallbackGroupID is assigned to tasks created without a group.
	FallbackGroupID = "g1"

	// FallbackColor is shown for tasks whose group no longer exists in
	// the configuration.
	FallbackColor = "#9ca3af"
)

// DefaultLists returns the configuration bootstrapped on first use: one
// list holding one general group.
func DefaultLists() []List {
	return []List{{
		ID:     "l1",
		Name:   "My Tasks",
		Groups: []Group{{ID: FallbackGroupID, Name: "General", Color: "#3b82f6"}},
	}}
}

// ColorFor resolves the display color for a group id. Dangling references
// degrade to FallbackColor rather than failing.
func ColorFor(lists []List, groupID string) string {
	for _, list := range lists {
		for _, group := range list.Groups {
			if group.ID == groupID {
				return group.Color
			}
		}
	}
	return FallbackColor
}
