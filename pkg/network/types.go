package network

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a record leaves a derived attribute unset.
const (
	// DefaultCostPerKm prices a route that carries no explicit cost.
	DefaultCostPerKm = 1.5
	// DefaultDemandCV is the coefficient of variation used for a missing demand std.
	DefaultDemandCV = 0.2
)

// Location is a (latitude, longitude) pair in decimal degrees. It is
// serialized as the ordered pair [lat, lon].
type Location struct {
	Lat float64 `json:"lat" validate:"finite,gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"finite,gte=-180,lte=180"`
}

// MarshalJSON encodes the location as [lat, lon].
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{l.Lat, l.Lon})
}

// UnmarshalJSON accepts [lat, lon] or {"lat": .., "lon": ..}.
func (l *Location) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		return l.fromPair(pair)
	}
	var obj struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("location: expected [lat, lon]: %w", err)
	}
	l.Lat, l.Lon = obj.Lat, obj.Lon
	return nil
}

// MarshalYAML encodes the location as a flow sequence [lat, lon].
func (l Location) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range []float64{l.Lat, l.Lon} {
		var item yaml.Node
		if err := item.Encode(v); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &item)
	}
	return node, nil
}

// UnmarshalYAML decodes [lat, lon].
func (l *Location) UnmarshalYAML(value *yaml.Node) error {
	var pair []float64
	if err := value.Decode(&pair); err != nil {
		return fmt.Errorf("location: expected [lat, lon]: %w", err)
	}
	return l.fromPair(pair)
}

func (l *Location) fromPair(pair []float64) error {
	if len(pair) != 2 {
		return fmt.Errorf("location: expected 2 coordinates, got %d", len(pair))
	}
	l.Lat, l.Lon = pair[0], pair[1]
	return nil
}

func (l Location) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", l.Lat, l.Lon)
}

// Distance is the network-wide distance function used for spatial decay:
// planar Euclidean distance in coordinate degrees.
func Distance(a, b Location) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lon-b.Lon)
}

// TransportMode is the carrier of a route.
type TransportMode string

const (
	ModeRoad TransportMode = "road"
	ModeRail TransportMode = "rail"
	ModeAir  TransportMode = "air"
	ModeSea  TransportMode = "sea"
)

// NodeKind distinguishes facilities from demand points.
type NodeKind int

const (
	KindFacility NodeKind = iota
	KindDemandPoint
)

func (k NodeKind) String() string {
	switch k {
	case KindFacility:
		return "facility"
	case KindDemandPoint:
		return "demand point"
	default:
		return "unknown"
	}
}

// InventoryParams holds the stocking policy inputs of a facility.
type InventoryParams struct {
	LeadTimeDays     float64 `json:"lead_time" yaml:"lead_time" validate:"finite,gt=0"`
	ReviewPeriodDays float64 `json:"review_period" yaml:"review_period" validate:"finite,gte=0"`
	DemandMean       float64 `json:"demand_mean" yaml:"demand_mean" validate:"finite,gte=0"`
	DemandStd        float64 `json:"demand_std" yaml:"demand_std" validate:"finite,gte=0"`
	HoldingCost      float64 `json:"holding_cost" yaml:"holding_cost" validate:"finite,gte=0"`
	StockoutCost     float64 `json:"stockout_cost" yaml:"stockout_cost" validate:"finite,gte=0"`
}

// Facility is a supply node: distribution centre, warehouse or retail outlet.
type Facility struct {
	ID        string           `json:"id" validate:"entity_id"`
	Location  Location         `json:"location"`
	Capacity  float64          `json:"capacity" validate:"finite,gte=0"`
	FixedCost float64          `json:"fixed_cost" validate:"finite,gte=0"`
	Echelon   int              `json:"echelon" validate:"gte=1"`
	Inventory *InventoryParams `json:"inventory,omitempty"`
}

// DemandPoint is a consumption node.
type DemandPoint struct {
	ID         string   `json:"id" validate:"entity_id"`
	Location   Location `json:"location"`
	DemandMean float64  `json:"demand_mean" validate:"finite,gte=0"`
	DemandStd  float64  `json:"demand_std" validate:"finite,gte=0"`
}

// Route is a directed transport link between two nodes.
type Route struct {
	ID               string        `json:"id" validate:"entity_id"`
	Origin           string        `json:"origin" validate:"entity_id"`
	Destination      string        `json:"destination" validate:"entity_id"`
	DistanceKm       float64       `json:"distance_km" validate:"finite,gt=0"`
	TransitTimeHours float64       `json:"transit_time_hours" validate:"finite,gt=0"`
	Mode             TransportMode `json:"mode" validate:"transport_mode"`
	Cost             float64       `json:"cost" validate:"finite,gte=0"`
	Capacity         float64       `json:"capacity" validate:"finite,gte=0"`
}

// Node is the kind-independent view of a facility or demand point.
type Node struct {
	ID       string
	Kind     NodeKind
	Location Location
}

// Stats summarizes the size of a graph.
type Stats struct {
	Facilities   int `json:"facilities"`
	DemandPoints int `json:"demand_points"`
	Routes       int `json:"routes"`
	WithStock    int `json:"facilities_with_inventory"`
}

// Nodes returns the total node count.
func (s Stats) Nodes() int {
	return s.Facilities + s.DemandPoints
}

// DefaultCost returns the cost assigned to a route with no explicit cost.
func DefaultCost(distanceKm float64) float64 {
	return distanceKm * DefaultCostPerKm
}

// DefaultDemandStd returns the std assigned to a demand with no explicit std.
func DefaultDemandStd(mean float64) float64 {
	return mean * DefaultDemandCV
}
