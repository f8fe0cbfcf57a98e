// Package location resolves the room → shelf/box/stack hierarchy.
//
// Locations link to their parent by id. Parents may dangle and corrupt data may
// contain cycles, so every traversal here is bounded by a visited set.
package location

import (
	"strings"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

// Display names for unresolvable placements.
const (
	Unassigned = "Unassigned"
	Unknown    = "Unknown"
	Unnamed    = "Unnamed"
)

// PathSeparator joins names in breadcrumbs.
const PathSeparator = " > "

// Tree indexes a set of locations by id and by parent.
type Tree struct {
	order    []string
	byID     map[string]domain.Location
	children map[string][]string
}

// NewTree indexes locations. Later duplicates of an id are ignored.
func NewTree(locations []domain.Location) *Tree {
	t := &Tree{
		order:    make([]string, 0, len(locations)),
		byID:     make(map[string]domain.Location, len(locations)),
		children: make(map[string][]string),
	}
	for _, l := range locations {
		if _, dup := t.byID[l.ID]; dup {
			continue
		}
		t.byID[l.ID] = l
		t.order = append(t.order, l.ID)
		t.children[l.ParentID] = append(t.children[l.ParentID], l.ID)
	}
	return t
}

// Len returns the number of indexed locations.
func (t *Tree) Len() int {
	return len(t.order)
}

// Get returns the location with id.
func (t *Tree) Get(id string) (domain.Location, bool) {
	l, ok := t.byID[id]
	return l, ok
}

// DisplayName renders a placement: "Unassigned" for no location, "Unknown" for
// an id that does not resolve, "Parent > Name" when the parent resolves.
func (t *Tree) DisplayName(id string) string {
	if id == "" {
		return Unassigned
	}
	l, ok := t.byID[id]
	if !ok {
		return Unknown
	}
	if parent, ok := t.byID[l.ParentID]; ok && l.ParentID != l.ID {
		return nameOf(parent) + PathSeparator + nameOf(l)
	}
	return nameOf(l)
}

// DisplayName is a convenience for one-off lookups without building a Tree.
func DisplayName(locations []domain.Location, id string) string {
	if id == "" {
		return Unassigned
	}
	var loc *domain.Location
	for i := range locations {
		if locations[i].ID == id {
			loc = &locations[i]
			break
		}
	}
	if loc == nil {
		return Unknown
	}
	if loc.ParentID != "" && loc.ParentID != loc.ID {
		for i := range locations {
			if locations[i].ID == loc.ParentID {
				return nameOf(locations[i]) + PathSeparator + nameOf(*loc)
			}
		}
	}
	return nameOf(*loc)
}

func nameOf(l domain.Location) string {
	if n := strings.TrimSpace(l.Name); n != "" {
		return n
	}
	return Unnamed
}

// Children returns the direct children of parentID in insertion order.
// An empty parentID returns the roots.
func (t *Tree) Children(parentID string) []domain.Location {
	ids := t.children[parentID]
	out := make([]domain.Location, 0, len(ids))
	for _, id := range ids {
		if id == parentID {
			continue
		}
		out = append(out, t.byID[id])
	}
	return out
}

// Ancestors returns the chain from the root down to, but excluding, id.
// The climb stops at a dangling parent or a repeated node.
func (t *Tree) Ancestors(id string) []domain.Location {
	l, ok := t.byID[id]
	if !ok {
		return nil
	}
	visited := map[string]bool{id: true}
	var chain []domain.Location
	for l.ParentID != "" && !visited[l.ParentID] {
		parent, ok := t.byID[l.ParentID]
		if !ok {
			break
		}
		visited[parent.ID] = true
		chain = append(chain, parent)
		l = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Breadcrumb renders the full ancestry: "House > Living Room > Shelf A".
func (t *Tree) Breadcrumb(id string) string {
	l, ok := t.byID[id]
	if !ok {
		return t.DisplayName(id)
	}
	parts := make([]string, 0, 4)
	for _, a := range t.Ancestors(id) {
		parts = append(parts, nameOf(a))
	}
	parts = append(parts, nameOf(l))
	return strings.Join(parts, PathSeparator)
}

// Descendants returns every location below id, depth first.
func (t *Tree) Descendants(id string) []domain.Location {
	var out []domain.Location
	visited := map[string]bool{id: true}
	var visit func(string)
	visit = func(parent string) {
		for _, child := range t.children[parent] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, t.byID[child])
			visit(child)
		}
	}
	visit(id)
	return out
}

// Node is a location with its depth in a Walk.
type Node struct {
	domain.Location
	Depth int
}

// Walk visits every location exactly once, depth first from the roots.
// Locations whose parent dangles are treated as roots. Locations reachable only
// through a cycle are visited afterwards, each unvisited one starting a new walk.
// Returning false from fn stops the walk.
func (t *Tree) Walk(fn func(Node) bool) {
	visited := make(map[string]bool, len(t.order))
	stopped := false

	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		if stopped || visited[id] {
			return
		}
		visited[id] = true
		if !fn(Node{Location: t.byID[id], Depth: depth}) {
			stopped = true
			return
		}
		for _, child := range t.children[id] {
			visit(child, depth+1)
		}
	}

	for _, id := range t.order {
		l := t.byID[id]
		if _, parentKnown := t.byID[l.ParentID]; l.ParentID == "" || !parentKnown {
			visit(id, 0)
		}
	}
	for _, id := range t.order {
		visit(id, 0)
	}
}

// Flatten returns the Walk order as a slice.
func (t *Tree) Flatten() []Node {
	nodes := make([]Node, 0, len(t.order))
	t.Walk(func(n Node) bool {
		nodes = append(nodes, n)
		return true
	})
	return nodes
}

// ValidateParent checks that giving id the parent parentID keeps the forest acyclic.
// Dangling parents are allowed; they resolve as "Unknown" until the parent exists.
func (t *Tree) ValidateParent(id, parentID string) error {
	if parentID == "" {
		return nil
	}
	if parentID == id {
		return errors.Validationf("location %s cannot be its own parent", id)
	}
	visited := map[string]bool{}
	for cur := parentID; cur != ""; {
		if cur == id {
			return errors.Validationf("moving location %s under %s would create a cycle", id, parentID)
		}
		if visited[cur] {
			return nil
		}
		visited[cur] = true
		l, ok := t.byID[cur]
		if !ok {
			return nil
		}
		cur = l.ParentID
	}
	return nil
}

// Cycles returns the ids of locations that are their own ancestor.
func (t *Tree) Cycles() []string {
	var out []string
	for _, id := range t.order {
		visited := map[string]bool{}
		for cur := t.byID[id].ParentID; cur != "" && !visited[cur]; {
			if cur == id {
				out = append(out, id)
				break
			}
			visited[cur] = true
			l, ok := t.byID[cur]
			if !ok {
				break
			}
			cur = l.ParentID
		}
	}
	return out
}

// Resolve finds a location by id, by breadcrumb ("Living Room > Shelf A"),
// by slug path ("living-room/shelf-a") or by a unique name.
func (t *Tree) Resolve(ref string) (domain.Location, error) {
	ref = strings.TrimSpace(ref)
	if l, ok := t.byID[ref]; ok {
		return l, nil
	}

	var matches []domain.Location
	for _, id := range t.order {
		crumb := t.Breadcrumb(id)
		if strings.EqualFold(crumb, ref) || t.slugPath(id) == strings.ToLower(ref) {
			return t.byID[id], nil
		}
		if strings.EqualFold(nameOf(t.byID[id]), ref) {
			matches = append(matches, t.byID[id])
		}
	}
	switch len(matches) {
	case 0:
		return domain.Location{}, errors.NotFoundf("location %q not found", ref)
	case 1:
		return matches[0], nil
	default:
		return domain.Location{}, errors.Validationf("location %q is ambiguous (%d matches); use the full path", ref, len(matches))
	}
}

func (t *Tree) slugPath(id string) string {
	parts := make([]string, 0, 4)
	for _, a := range t.Ancestors(id) {
		parts = append(parts, Slugify(a.Name))
	}
	parts = append(parts, Slugify(t.byID[id].Name))
	return strings.Join(parts, "/")
}
