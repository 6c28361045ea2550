// Package network holds the attributed directed graph of facilities, demand
// points and routes that every simulation runs against.
//
// The graph is the consistency guardian of the model: every mutation is
// validated before it touches state, so a failed call leaves the graph
// exactly as it was. Reads are safe for concurrent use; simulations work on
// clones and never mutate a shared baseline.
package network

import (
	"errors"
	"sort"
	"sync"

	"github.com/dd0wney/cluso-resilience/pkg/simerr"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

// Graph is a directed multigraph keyed by string ids.
type Graph struct {
	mu           sync.RWMutex
	facilities   map[string]Facility
	demandPoints map[string]DemandPoint
	routes       map[string]Route
	out          map[string]map[string]struct{} // node -> outgoing route ids
	in           map[string]map[string]struct{} // node -> incoming route ids
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		facilities:   make(map[string]Facility),
		demandPoints: make(map[string]DemandPoint),
		routes:       make(map[string]Route),
		out:          make(map[string]map[string]struct{}),
		in:           make(map[string]map[string]struct{}),
	}
}

func validationErr(op string, builder func(*simerr.ErrorBuilder) *simerr.ErrorBuilder, err error) error {
	b := builder(simerr.Validation(op))
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return b.Field(fe.Field).Context(fe.Message).Cause(simerr.ErrInvalidArgument).Err()
	}
	return b.Cause(err).Err()
}

// AddFacility inserts or overwrites a facility.
func (g *Graph) AddFacility(f Facility) error {
	entity := func(b *simerr.ErrorBuilder) *simerr.ErrorBuilder { return b.Facility(f.ID) }
	if err := validation.ValidateStruct(&f); err != nil {
		return validationErr("add", entity, err)
	}
	if f.Inventory != nil {
		inv := *f.Inventory
		if err := validation.ValidateStruct(&inv); err != nil {
			return validationErr("add", entity, err)
		}
		f.Inventory = &inv
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.demandPoints[f.ID]; ok {
		return entity(simerr.Validation("add")).Cause(simerr.ErrKindConflict).Err()
	}
	g.facilities[f.ID] = f
	g.ensureAdjacency(f.ID)
	return nil
}

// AddDemandPoint inserts or overwrites a demand point.
func (g *Graph) AddDemandPoint(d DemandPoint) error {
	entity := func(b *simerr.ErrorBuilder) *simerr.ErrorBuilder { return b.DemandPoint(d.ID) }
	if err := validation.ValidateStruct(&d); err != nil {
		return validationErr("add", entity, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.facilities[d.ID]; ok {
		return entity(simerr.Validation("add")).Cause(simerr.ErrKindConflict).Err()
	}
	g.demandPoints[d.ID] = d
	g.ensureAdjacency(d.ID)
	return nil
}

// AddRoute inserts or overwrites a route. Both endpoints must already exist.
func (g *Graph) AddRoute(r Route) error {
	entity := func(b *simerr.ErrorBuilder) *simerr.ErrorBuilder { return b.Route(r.ID) }
	if err := validation.ValidateStruct(&r); err != nil {
		return validationErr("add", entity, err)
	}
	if r.Origin == r.Destination {
		return entity(simerr.Validation("add")).Field("destination").
			Context("route cannot loop back to its origin").Cause(simerr.ErrInvalidArgument).Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hasNode(r.Origin) {
		return entity(simerr.Validation("add")).Field("origin").
			Context(r.Origin).Cause(simerr.ErrUnknownReference).Err()
	}
	if !g.hasNode(r.Destination) {
		return entity(simerr.Validation("add")).Field("destination").
			Context(r.Destination).Cause(simerr.ErrUnknownReference).Err()
	}

	if old, ok := g.routes[r.ID]; ok {
		delete(g.out[old.Origin], old.ID)
		delete(g.in[old.Destination], old.ID)
	}
	g.routes[r.ID] = r
	g.out[r.Origin][r.ID] = struct{}{}
	g.in[r.Destination][r.ID] = struct{}{}
	return nil
}

// SetInventoryParams attaches inventory parameters to an existing facility.
func (g *Graph) SetInventoryParams(facilityID string, p InventoryParams) error {
	entity := func(b *simerr.ErrorBuilder) *simerr.ErrorBuilder { return b.Facility(facilityID) }
	if err := validation.ValidateStruct(&p); err != nil {
		return validationErr("set inventory", entity, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	f, ok := g.facilities[facilityID]
	if !ok {
		return entity(simerr.Validation("set inventory")).Cause(simerr.ErrUnknownReference).Err()
	}
	f.Inventory = &p
	g.facilities[facilityID] = f
	return nil
}

// RemoveRoute deletes a route by id.
func (g *Graph) RemoveRoute(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.routes[id]
	if !ok {
		return simerr.Validation("remove").Route(id).Cause(simerr.ErrNotFound).Err()
	}
	g.deleteRoute(r)
	return nil
}

// RemoveRoutesBetween deletes every route from origin to destination and
// returns how many were removed.
func (g *Graph) RemoveRoutesBetween(origin, destination string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for id := range g.out[origin] {
		r := g.routes[id]
		if r.Destination == destination {
			g.deleteRoute(r)
			removed++
		}
	}
	return removed
}

func (g *Graph) deleteRoute(r Route) {
	delete(g.routes, r.ID)
	delete(g.out[r.Origin], r.ID)
	delete(g.in[r.Destination], r.ID)
}

func (g *Graph) ensureAdjacency(id string) {
	if _, ok := g.out[id]; !ok {
		g.out[id] = make(map[string]struct{})
	}
	if _, ok := g.in[id]; !ok {
		g.in[id] = make(map[string]struct{})
	}
}

func (g *Graph) hasNode(id string) bool {
	if _, ok := g.facilities[id]; ok {
		return true
	}
	_, ok := g.demandPoints[id]
	return ok
}

// HasNode reports whether id names a facility or demand point.
func (g *Graph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasNode(id)
}

// Node returns the kind-independent view of a node.
func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if f, ok := g.facilities[id]; ok {
		return Node{ID: id, Kind: KindFacility, Location: f.Location}, true
	}
	if d, ok := g.demandPoints[id]; ok {
		return Node{ID: id, Kind: KindDemandPoint, Location: d.Location}, true
	}
	return Node{}, false
}

// Facility returns a copy of the facility with the given id.
func (g *Graph) Facility(id string) (Facility, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	f, ok := g.facilities[id]
	if ok && f.Inventory != nil {
		inv := *f.Inventory
		f.Inventory = &inv
	}
	return f, ok
}

// DemandPoint returns the demand point with the given id.
func (g *Graph) DemandPoint(id string) (DemandPoint, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.demandPoints[id]
	return d, ok
}

// Route returns the route with the given id.
func (g *Graph) Route(id string) (Route, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.routes[id]
	return r, ok
}

// Successors returns the distinct destinations reachable over one route, sorted.
func (g *Graph) Successors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.endpoints(g.out[id], func(r Route) string { return r.Destination })
}

// Predecessors returns the distinct origins of routes arriving at id, sorted.
func (g *Graph) Predecessors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.endpoints(g.in[id], func(r Route) string { return r.Origin })
}

func (g *Graph) endpoints(ids map[string]struct{}, pick func(Route) string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for id := range ids {
		n := pick(g.routes[id])
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// OutRoutes returns the routes leaving id, sorted by route id.
func (g *Graph) OutRoutes(id string) []Route {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.collect(g.out[id])
}

// InRoutes returns the routes arriving at id, sorted by route id.
func (g *Graph) InRoutes(id string) []Route {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.collect(g.in[id])
}

// RoutesBetween returns the routes from origin to destination, sorted by id.
func (g *Graph) RoutesBetween(origin, destination string) []Route {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []Route
	for id := range g.out[origin] {
		if r := g.routes[id]; r.Destination == destination {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (g *Graph) collect(ids map[string]struct{}) []Route {
	out := make([]Route, 0, len(ids))
	for id := range ids {
		out = append(out, g.routes[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Degree returns in-degree plus out-degree, counting parallel routes.
func (g *Graph) Degree(id string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.out[id]) + len(g.in[id])
}

// NodeIDs returns every node id, sorted.
func (g *Graph) NodeIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.facilities)+len(g.demandPoints))
	for id := range g.facilities {
		ids = append(ids, id)
	}
	for id := range g.demandPoints {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FacilityIDs returns every facility id, sorted.
func (g *Graph) FacilityIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.facilities)
}

// DemandPointIDs returns every demand point id, sorted.
func (g *Graph) DemandPointIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.demandPoints)
}

// Facilities returns every facility, sorted by id.
func (g *Graph) Facilities() []Facility {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Facility, 0, len(g.facilities))
	for _, id := range sortedKeys(g.facilities) {
		f := g.facilities[id]
		if f.Inventory != nil {
			inv := *f.Inventory
			f.Inventory = &inv
		}
		out = append(out, f)
	}
	return out
}

// DemandPoints returns every demand point, sorted by id.
func (g *Graph) DemandPoints() []DemandPoint {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]DemandPoint, 0, len(g.demandPoints))
	for _, id := range sortedKeys(g.demandPoints) {
		out = append(out, g.demandPoints[id])
	}
	return out
}

// Routes returns every route, sorted by id.
func (g *Graph) Routes() []Route {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Route, 0, len(g.routes))
	for _, id := range sortedKeys(g.routes) {
		out = append(out, g.routes[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.facilities) + len(g.demandPoints)
}

// RouteCount returns the number of routes.
func (g *Graph) RouteCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.routes)
}

// Stats summarizes the graph.
func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Stats{
		Facilities:   len(g.facilities),
		DemandPoints: len(g.demandPoints),
		Routes:       len(g.routes),
	}
	for _, f := range g.facilities {
		if f.Inventory != nil {
			s.WithStock++
		}
	}
	return s
}

// Clone returns a deep copy that shares no mutable state with g.
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c := &Graph{
		facilities:   make(map[string]Facility, len(g.facilities)),
		demandPoints: make(map[string]DemandPoint, len(g.demandPoints)),
		routes:       make(map[string]Route, len(g.routes)),
		out:          make(map[string]map[string]struct{}, len(g.out)),
		in:           make(map[string]map[string]struct{}, len(g.in)),
	}
	for id, f := range g.facilities {
		if f.Inventory != nil {
			inv := *f.Inventory
			f.Inventory = &inv
		}
		c.facilities[id] = f
	}
	for id, d := range g.demandPoints {
		c.demandPoints[id] = d
	}
	for id, r := range g.routes {
		c.routes[id] = r
	}
	for id, set := range g.out {
		c.out[id] = copySet(set)
	}
	for id, set := range g.in {
		c.in[id] = copySet(set)
	}
	return c
}

// UpdateFacility applies fn to a copy of the facility and stores the result.
// Used by propagation on cloned snapshots; the id cannot change.
func (g *Graph) UpdateFacility(id string, fn func(*Facility)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	f, ok := g.facilities[id]
	if !ok {
		return false
	}
	fn(&f)
	f.ID = id
	g.facilities[id] = f
	return true
}

// UpdateRoute applies fn to a copy of the route and stores the result.
// Endpoints and id cannot change.
func (g *Graph) UpdateRoute(id string, fn func(*Route)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.routes[id]
	if !ok {
		return false
	}
	origin, dest := r.Origin, r.Destination
	fn(&r)
	r.ID, r.Origin, r.Destination = id, origin, dest
	g.routes[id] = r
	return true
}

func copySet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
