package disruption

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/network"
	"github.com/dd0wney/cluso-resilience/pkg/simerr"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

// DefaultEpicenter is used when neither the request nor the graph supplies a
// location (geographic centre of Kenya).
var DefaultEpicenter = network.Location{Lat: 0.0236, Lon: 37.9062}

// Overrides replace sampled parameters. Values are clamped to the
// archetype's ranges; spread is clamped to [0, 1].
type Overrides struct {
	Severity         *float64 `json:"severity,omitempty"`
	DurationDays     *int     `json:"duration_days,omitempty"`
	GeographicSpread *float64 `json:"geographic_spread,omitempty"`
}

// Request describes the scenario to generate.
type Request struct {
	Archetype Archetype         `json:"archetype"`
	Epicenter *network.Location `json:"epicenter,omitempty"`
	Overrides Overrides         `json:"overrides"`
}

// Params returns the request in the form used to fingerprint evaluations.
func (r Request) Params() map[string]any {
	params := map[string]any{"archetype": string(r.Archetype)}
	if r.Epicenter != nil {
		params["epicenter"] = []float64{r.Epicenter.Lat, r.Epicenter.Lon}
	}
	if r.Overrides.Severity != nil {
		params["severity"] = *r.Overrides.Severity
	}
	if r.Overrides.DurationDays != nil {
		params["duration_days"] = *r.Overrides.DurationDays
	}
	if r.Overrides.GeographicSpread != nil {
		params["geographic_spread"] = *r.Overrides.GeographicSpread
	}
	return params
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRand sets the random source.
func WithRand(rng *rand.Rand) GeneratorOption {
	return func(g *Generator) { g.rng = rng }
}

// WithSeed seeds a private random source.
func WithSeed(seed int64) GeneratorOption {
	return func(g *Generator) { g.rng = rand.New(rand.NewSource(seed)) }
}

// WithClock sets the time source for scenario start times.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// WithGeneratorLogger sets the logger.
func WithGeneratorLogger(l logging.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = logging.OrNop(l) }
}

// Generator samples scenarios from the archetype catalogue.
// A Generator is not safe for concurrent use.
type Generator struct {
	rng    *rand.Rand
	now    func() time.Time
	logger logging.Logger
}

// NewGenerator creates a generator. Without WithRand or WithSeed it is
// seeded from the wall clock.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		now:    time.Now,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// Generate samples a scenario starting now.
func (g *Generator) Generate(graph *network.Graph, req Request) (Scenario, error) {
	return g.GenerateAt(graph, req, g.now())
}

// GenerateAt samples a scenario starting at start.
func (g *Generator) GenerateAt(graph *network.Graph, req Request, start time.Time) (Scenario, error) {
	profile, ok := LookupProfile(req.Archetype)
	if !ok {
		return Scenario{}, simerr.Validation("generate").
			Entity("archetype", string(req.Archetype)).
			Field("archetype").
			Context("must be one of " + strings.Join(validation.Archetypes, ", ")).
			Cause(simerr.ErrInvalidArgument).
			Err()
	}

	var epicenter network.Location
	if req.Epicenter != nil {
		epicenter = *req.Epicenter
		if err := validation.ValidateStruct(&epicenter); err != nil {
			return Scenario{}, simerr.Validation("generate").
				Entity("archetype", string(req.Archetype)).
				Field("epicenter").
				Context(err.Error()).
				Cause(simerr.ErrOutOfRange).
				Err()
		}
	} else {
		epicenter = g.sampleEpicenter(graph)
	}

	if err := checkFiniteOverrides(req); err != nil {
		return Scenario{}, err
	}

	severity := profile.MinSeverity + g.rng.Float64()*(profile.MaxSeverity-profile.MinSeverity)
	if o := req.Overrides.Severity; o != nil {
		severity = profile.clampSeverity(*o)
	}

	duration := profile.MinDurationDays + g.rng.Intn(profile.MaxDurationDays-profile.MinDurationDays+1)
	if o := req.Overrides.DurationDays; o != nil {
		duration = profile.clampDuration(*o)
	}

	spread := profile.GeographicSpread
	if o := req.Overrides.GeographicSpread; o != nil {
		spread = validation.ClampFloat(*o, 0, 1)
	}

	id, err := g.scenarioID(req.Archetype, start)
	if err != nil {
		return Scenario{}, simerr.Computation("generate").
			Entity("archetype", string(req.Archetype)).
			Context("scenario id").
			Cause(err).
			Err()
	}

	s := Scenario{
		ID:               id,
		Archetype:        req.Archetype,
		Epicenter:        epicenter,
		Severity:         severity,
		DurationDays:     duration,
		GeographicSpread: spread,
		StartTime:        start,
		EndTime:          start.Add(time.Duration(duration) * Day),
	}

	g.logger.Debug("scenario generated",
		logging.ScenarioID(s.ID),
		logging.Archetype(string(s.Archetype)),
		logging.Float64("severity", s.Severity),
		logging.Int("duration_days", s.DurationDays),
		logging.String("epicenter", s.Epicenter.String()),
	)
	return s, nil
}

// RandomArchetype picks an archetype uniformly.
func (g *Generator) RandomArchetype() Archetype {
	all := Archetypes()
	return all[g.rng.Intn(len(all))]
}

// Float64 draws from the generator's random source.
func (g *Generator) Float64() float64 {
	return g.rng.Float64()
}

func (g *Generator) sampleEpicenter(graph *network.Graph) network.Location {
	if graph == nil {
		return DefaultEpicenter
	}
	ids := graph.NodeIDs()
	if len(ids) == 0 {
		return DefaultEpicenter
	}
	node, ok := graph.Node(ids[g.rng.Intn(len(ids))])
	if !ok {
		return DefaultEpicenter
	}
	return node.Location
}

// scenarioID builds <archetype>_<unix seconds>_<suffix>; the suffix comes
// from a UUID drawn from the generator's random source so seeded runs are
// reproducible.
func (g *Generator) scenarioID(a Archetype, start time.Time) (string, error) {
	u, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%d_%s", a, start.Unix(), strings.ReplaceAll(u.String(), "-", "")[:8]), nil
}

// checkFiniteOverrides rejects NaN and infinite overrides, which have no
// position inside a profile's range to be clamped to.
func checkFiniteOverrides(req Request) error {
	overrides := []struct {
		field string
		value *float64
	}{
		{"severity", req.Overrides.Severity},
		{"geographic_spread", req.Overrides.GeographicSpread},
	}
	for _, o := range overrides {
		if o.value == nil {
			continue
		}
		if math.IsNaN(*o.value) || math.IsInf(*o.value, 0) {
			return simerr.Validation("generate").
				Entity("archetype", string(req.Archetype)).
				Field(o.field).
				Contextf("must be a finite number, got %v", *o.value).
				Cause(simerr.ErrOutOfRange).
				Err()
		}
	}
	return nil
}
