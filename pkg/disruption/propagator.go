package disruption

import (
	"math"

	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/network"
	"github.com/dd0wney/cluso-resilience/pkg/simerr"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

// PropagationPolicy holds the tunables of spatial decay.
type PropagationPolicy struct {
	// NoiseFloor is the impact at or below which nothing is changed.
	NoiseFloor float64 `json:"noise_floor" yaml:"noise_floor" mapstructure:"noise_floor"`
	// SpreadRadius converts geographic spread into a radius in degrees.
	SpreadRadius float64 `json:"spread_radius" yaml:"spread_radius" mapstructure:"spread_radius"`
	// EdgeAmplification scales the endpoint impact applied to routes.
	EdgeAmplification float64 `json:"edge_amplification" yaml:"edge_amplification" mapstructure:"edge_amplification"`
	// FixedCostFactor scales the fixed cost increase of a hit facility.
	FixedCostFactor float64 `json:"fixed_cost_factor" yaml:"fixed_cost_factor" mapstructure:"fixed_cost_factor"`
}

// DefaultPolicy returns the standard propagation tunables.
func DefaultPolicy() PropagationPolicy {
	return PropagationPolicy{
		NoiseFloor:        0.05,
		SpreadRadius:      5,
		EdgeAmplification: 1.2,
		FixedCostFactor:   0.5,
	}
}

// Validate checks the policy.
func (p PropagationPolicy) Validate() error {
	return validation.NewConfigValidator("propagation").
		RangeFloat("noise_floor", p.NoiseFloor, 0, 1).
		PositiveFloat("spread_radius", p.SpreadRadius).
		NonNegativeFloat("edge_amplification", p.EdgeAmplification).
		NonNegativeFloat("fixed_cost_factor", p.FixedCostFactor).
		Validate()
}

// DistanceFactor returns max(0, 1 - distance/(spread*SpreadRadius)). With
// zero spread only the epicenter itself is hit.
func (p PropagationPolicy) DistanceFactor(distance, spread float64) float64 {
	radius := spread * p.SpreadRadius
	if radius <= 0 {
		if distance == 0 {
			return 1
		}
		return 0
	}
	return math.Max(0, 1-distance/radius)
}

// Result is a propagated scenario: the degraded snapshot plus what changed.
type Result struct {
	Graph          *network.Graph `json:"-"`
	Scenario       Scenario       `json:"scenario"`
	AffectedNodes  []NodeImpact   `json:"affected_nodes"`
	AffectedRoutes []RouteImpact  `json:"affected_routes"`
}

// PropagatorOption configures a Propagator.
type PropagatorOption func(*Propagator)

// WithPolicy sets the propagation tunables.
func WithPolicy(p PropagationPolicy) PropagatorOption {
	return func(pr *Propagator) { pr.policy = p }
}

// WithPropagatorLogger sets the logger.
func WithPropagatorLogger(l logging.Logger) PropagatorOption {
	return func(pr *Propagator) { pr.logger = logging.OrNop(l) }
}

// Propagator applies scenarios to graphs. It holds no mutable state and is
// safe for concurrent use.
type Propagator struct {
	policy PropagationPolicy
	logger logging.Logger
}

// NewPropagator creates a propagator with the default policy.
func NewPropagator(opts ...PropagatorOption) *Propagator {
	p := &Propagator{
		policy: DefaultPolicy(),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Policy returns the propagation tunables in use.
func (p *Propagator) Policy() PropagationPolicy {
	return p.policy
}

// Apply degrades a clone of graph according to s. The input graph is never
// modified. Node impacts above the noise floor reduce facility capacity and
// raise fixed cost; route impacts derive from the larger endpoint impact.
func (p *Propagator) Apply(graph *network.Graph, s Scenario) (Result, error) {
	if graph == nil {
		return Result{}, simerr.Validation("propagate").Scenario(s.ID).
			Context("nil graph").Cause(simerr.ErrInvalidArgument).Err()
	}
	if err := s.Validate(); err != nil {
		return Result{}, err
	}

	out := graph.Clone()
	floor := p.policy.NoiseFloor

	nodeImpacts := []NodeImpact{}
	impactByNode := make(map[string]float64)

	for _, id := range out.NodeIDs() {
		node, ok := out.Node(id)
		if !ok {
			continue
		}
		d := network.Distance(s.Epicenter, node.Location)
		factor := p.policy.DistanceFactor(d, s.GeographicSpread)
		impact := s.Severity * factor
		if impact <= floor {
			continue
		}

		ni := NodeImpact{
			NodeID:         id,
			Facility:       node.Kind == network.KindFacility,
			Distance:       d,
			DistanceFactor: factor,
			Impact:         impact,
		}
		if ni.Facility {
			out.UpdateFacility(id, func(f *network.Facility) {
				ni.OriginalCapacity = f.Capacity
				ni.OriginalFixedCost = f.FixedCost
				f.Capacity = math.Max(0, f.Capacity*(1-impact))
				f.FixedCost = f.FixedCost * (1 + p.policy.FixedCostFactor*impact)
			})
		}
		impactByNode[id] = impact
		nodeImpacts = append(nodeImpacts, ni)
	}

	routeImpacts := []RouteImpact{}
	for _, r := range out.Routes() {
		endpoint := math.Max(impactByNode[r.Origin], impactByNode[r.Destination])
		impact := endpoint * p.policy.EdgeAmplification
		if impact <= floor {
			continue
		}
		ri := RouteImpact{
			RouteID:                  r.ID,
			Origin:                   r.Origin,
			Destination:              r.Destination,
			Impact:                   impact,
			OriginalTransitTimeHours: r.TransitTimeHours,
			OriginalCapacity:         r.Capacity,
		}
		out.UpdateRoute(r.ID, func(route *network.Route) {
			route.TransitTimeHours = route.TransitTimeHours * (1 + impact)
			route.Capacity = math.Max(0, route.Capacity*(1-impact))
		})
		routeImpacts = append(routeImpacts, ri)
	}

	applied := s.Clone()
	applied.AffectedNodes = nodeImpacts
	applied.AffectedRoutes = routeImpacts

	p.logger.Debug("scenario propagated",
		logging.ScenarioID(s.ID),
		logging.Archetype(string(s.Archetype)),
		logging.Int("affected_nodes", len(nodeImpacts)),
		logging.Int("affected_routes", len(routeImpacts)),
	)

	return Result{
		Graph:          out,
		Scenario:       applied,
		AffectedNodes:  append([]NodeImpact(nil), nodeImpacts...),
		AffectedRoutes: append([]RouteImpact(nil), routeImpacts...),
	}, nil
}
