package disruption

import (
	"errors"
	"time"

	"github.com/dd0wney/cluso-resilience/pkg/network"
	"github.com/dd0wney/cluso-resilience/pkg/simerr"
	"github.com/dd0wney/cluso-resilience/pkg/validation"
)

// Day is the length of one simulated day.
const Day = 24 * time.Hour

// NodeImpact records how strongly a node was hit and the attribute values it
// had before the hit.
type NodeImpact struct {
	NodeID            string  `json:"node_id"`
	Facility          bool    `json:"facility"`
	Distance          float64 `json:"distance"`
	DistanceFactor    float64 `json:"distance_factor"`
	Impact            float64 `json:"impact"`
	OriginalCapacity  float64 `json:"original_capacity,omitempty"`
	OriginalFixedCost float64 `json:"original_fixed_cost,omitempty"`
}

// RouteImpact records the impact applied to a route and its prior attributes.
type RouteImpact struct {
	RouteID                  string  `json:"route_id"`
	Origin                   string  `json:"origin"`
	Destination              string  `json:"destination"`
	Impact                   float64 `json:"impact"`
	OriginalTransitTimeHours float64 `json:"original_transit_time_hours"`
	OriginalCapacity         float64 `json:"original_capacity"`
}

// Scenario is one sampled disruption. AffectedNodes and AffectedRoutes are
// empty until the scenario has been propagated.
type Scenario struct {
	ID               string           `json:"id" validate:"required"`
	Archetype        Archetype        `json:"archetype" validate:"archetype"`
	Epicenter        network.Location `json:"epicenter" validate:"-"`
	Severity         float64          `json:"severity" validate:"finite,gte=0,lte=1"`
	DurationDays     int              `json:"duration_days" validate:"gt=0"`
	GeographicSpread float64          `json:"geographic_spread" validate:"finite,gte=0,lte=1"`
	StartTime        time.Time        `json:"start_time"`
	EndTime          time.Time        `json:"end_time"`
	AffectedNodes    []NodeImpact     `json:"affected_nodes,omitempty"`
	AffectedRoutes   []RouteImpact    `json:"affected_routes,omitempty"`
}

// Validate checks the scenario's ranges and that EndTime follows from
// StartTime and DurationDays.
func (s Scenario) Validate() error {
	if err := validation.ValidateStruct(&s); err != nil {
		b := simerr.Validation("validate").Scenario(s.ID)
		var fe *validation.FieldError
		if errors.As(err, &fe) {
			return b.Field(fe.Field).Context(fe.Message).Cause(simerr.ErrOutOfRange).Err()
		}
		return b.Cause(err).Err()
	}
	if err := validation.ValidateStruct(&s.Epicenter); err != nil {
		return simerr.Validation("validate").Scenario(s.ID).Field("epicenter").
			Context(err.Error()).Cause(simerr.ErrOutOfRange).Err()
	}
	if !s.EndTime.Equal(s.StartTime.Add(time.Duration(s.DurationDays) * Day)) {
		return simerr.Validation("validate").Scenario(s.ID).Field("end_time").
			Context("must equal start_time + duration_days").Cause(simerr.ErrInvalidArgument).Err()
	}
	return nil
}

// Duration returns the scenario length.
func (s Scenario) Duration() time.Duration {
	return time.Duration(s.DurationDays) * Day
}

// ActiveAt reports whether the disruption is in force at t.
func (s Scenario) ActiveAt(t time.Time) bool {
	return !t.Before(s.StartTime) && t.Before(s.EndTime)
}

// Params returns the parameters that define the scenario's effect, used to
// fingerprint its evaluation.
func (s Scenario) Params() map[string]any {
	return map[string]any{
		"archetype":         string(s.Archetype),
		"epicenter":         []float64{s.Epicenter.Lat, s.Epicenter.Lon},
		"severity":          s.Severity,
		"duration_days":     s.DurationDays,
		"geographic_spread": s.GeographicSpread,
	}
}

// Clone returns a copy with its own impact slices.
func (s Scenario) Clone() Scenario {
	c := s
	if s.AffectedNodes != nil {
		c.AffectedNodes = append([]NodeImpact(nil), s.AffectedNodes...)
	}
	if s.AffectedRoutes != nil {
		c.AffectedRoutes = append([]RouteImpact(nil), s.AffectedRoutes...)
	}
	return c
}
