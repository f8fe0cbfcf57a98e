package domain

// Conventional location types. Type is free-form; these are what the UI offers.
const (
	LocationRoom  = "Room"
	LocationShelf = "Shelf"
	LocationBox   = "Box"
	LocationStack = "Stack"
)

// Location is a physical place a book can live: a room, or a shelf/box/stack inside one.
// Locations form a forest through ParentID.
type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`               // Display name: "Shelf A"
	Type     string `json:"type"`               // Room, Shelf, Box, Stack, or anything else
	ParentID string `json:"parentId,omitempty"` // Empty for a root (room)
	ImageURL string `json:"imageUrl,omitempty"` // Photo of the shelf, URL or data URI
}

// IsRoot reports whether the location has no parent.
func (l *Location) IsRoot() bool {
	return l.ParentID == ""
}
