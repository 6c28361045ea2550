package network

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/mmap"
	"gopkg.in/yaml.v3"
)

// Format selects the encoding of a network document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("network document %s: unsupported extension", path)
}

// Document is the interchange form of a network: records keyed by id, with
// locations written as [lat, lon].
type Document struct {
	Facilities      map[string]FacilityRecord    `json:"facilities" yaml:"facilities"`
	DemandPoints    map[string]DemandPointRecord `json:"demand_points" yaml:"demand_points"`
	Routes          map[string]RouteRecord       `json:"routes" yaml:"routes"`
	InventoryParams map[string]InventoryRecord   `json:"inventory_params,omitempty" yaml:"inventory_params,omitempty"`
}

// FacilityRecord is a facility as it appears in a document.
type FacilityRecord struct {
	Location  Location `json:"location" yaml:"location"`
	Capacity  float64  `json:"capacity" yaml:"capacity"`
	FixedCost float64  `json:"fixed_cost" yaml:"fixed_cost"`
	Echelon   int      `json:"echelon" yaml:"echelon"`
}

// DemandPointRecord is a demand point as it appears in a document. A missing
// demand_std defaults to DefaultDemandCV of the mean.
type DemandPointRecord struct {
	Location   Location `json:"location" yaml:"location"`
	DemandMean float64  `json:"demand_mean" yaml:"demand_mean"`
	DemandStd  *float64 `json:"demand_std,omitempty" yaml:"demand_std,omitempty"`
}

// RouteRecord is a route as it appears in a document. A missing cost
// defaults to DefaultCostPerKm per kilometre and a missing mode to road.
type RouteRecord struct {
	Origin      string   `json:"origin" yaml:"origin"`
	Destination string   `json:"destination" yaml:"destination"`
	Distance    float64  `json:"distance" yaml:"distance"`
	TransitTime float64  `json:"transit_time" yaml:"transit_time"`
	Mode        string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	Cost        *float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
	Capacity    float64  `json:"capacity,omitempty" yaml:"capacity,omitempty"`
}

// InventoryRecord holds inventory parameters in a document. A missing
// demand_mean is derived from the demand points the facility serves directly.
type InventoryRecord struct {
	LeadTime     float64  `json:"lead_time" yaml:"lead_time"`
	ReviewPeriod float64  `json:"review_period" yaml:"review_period"`
	DemandMean   *float64 `json:"demand_mean,omitempty" yaml:"demand_mean,omitempty"`
	DemandStd    *float64 `json:"demand_std,omitempty" yaml:"demand_std,omitempty"`
	HoldingCost  float64  `json:"holding_cost" yaml:"holding_cost"`
	StockoutCost float64  `json:"stockout_cost" yaml:"stockout_cost"`
}

// Document exports the graph.
func (g *Graph) Document() Document {
	doc := Document{
		Facilities:      make(map[string]FacilityRecord),
		DemandPoints:    make(map[string]DemandPointRecord),
		Routes:          make(map[string]RouteRecord),
		InventoryParams: make(map[string]InventoryRecord),
	}
	for _, f := range g.Facilities() {
		doc.Facilities[f.ID] = FacilityRecord{
			Location:  f.Location,
			Capacity:  f.Capacity,
			FixedCost: f.FixedCost,
			Echelon:   f.Echelon,
		}
		if inv := f.Inventory; inv != nil {
			mean, std := inv.DemandMean, inv.DemandStd
			doc.InventoryParams[f.ID] = InventoryRecord{
				LeadTime:     inv.LeadTimeDays,
				ReviewPeriod: inv.ReviewPeriodDays,
				DemandMean:   &mean,
				DemandStd:    &std,
				HoldingCost:  inv.HoldingCost,
				StockoutCost: inv.StockoutCost,
			}
		}
	}
	for _, d := range g.DemandPoints() {
		std := d.DemandStd
		doc.DemandPoints[d.ID] = DemandPointRecord{Location: d.Location, DemandMean: d.DemandMean, DemandStd: &std}
	}
	for _, r := range g.Routes() {
		cost := r.Cost
		doc.Routes[r.ID] = RouteRecord{
			Origin:      r.Origin,
			Destination: r.Destination,
			Distance:    r.DistanceKm,
			TransitTime: r.TransitTimeHours,
			Mode:        string(r.Mode),
			Cost:        &cost,
			Capacity:    r.Capacity,
		}
	}
	return doc
}

// Build validates a document and constructs a graph from it. Facilities are
// added first, then demand points, routes and inventory parameters, each in
// id order; the first invalid record aborts the build.
func (doc Document) Build() (*Graph, error) {
	g := NewGraph()

	for _, id := range sortedKeys(doc.Facilities) {
		rec := doc.Facilities[id]
		if err := g.AddFacility(Facility{
			ID:        id,
			Location:  rec.Location,
			Capacity:  rec.Capacity,
			FixedCost: rec.FixedCost,
			Echelon:   rec.Echelon,
		}); err != nil {
			return nil, err
		}
	}

	for _, id := range sortedKeys(doc.DemandPoints) {
		rec := doc.DemandPoints[id]
		std := DefaultDemandStd(rec.DemandMean)
		if rec.DemandStd != nil {
			std = *rec.DemandStd
		}
		if err := g.AddDemandPoint(DemandPoint{
			ID:         id,
			Location:   rec.Location,
			DemandMean: rec.DemandMean,
			DemandStd:  std,
		}); err != nil {
			return nil, err
		}
	}

	for _, id := range sortedKeys(doc.Routes) {
		rec := doc.Routes[id]
		mode := TransportMode(rec.Mode)
		if mode == "" {
			mode = ModeRoad
		}
		cost := DefaultCost(rec.Distance)
		if rec.Cost != nil {
			cost = *rec.Cost
		}
		if err := g.AddRoute(Route{
			ID:               id,
			Origin:           rec.Origin,
			Destination:      rec.Destination,
			DistanceKm:       rec.Distance,
			TransitTimeHours: rec.TransitTime,
			Mode:             mode,
			Cost:             cost,
			Capacity:         rec.Capacity,
		}); err != nil {
			return nil, err
		}
	}

	for _, id := range sortedKeys(doc.InventoryParams) {
		rec := doc.InventoryParams[id]
		mean := g.servedDemand(id)
		if rec.DemandMean != nil {
			mean = *rec.DemandMean
		}
		std := DefaultDemandStd(mean)
		if rec.DemandStd != nil {
			std = *rec.DemandStd
		}
		if err := g.SetInventoryParams(id, InventoryParams{
			LeadTimeDays:     rec.LeadTime,
			ReviewPeriodDays: rec.ReviewPeriod,
			DemandMean:       mean,
			DemandStd:        std,
			HoldingCost:      rec.HoldingCost,
			StockoutCost:     rec.StockoutCost,
		}); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// servedDemand sums the mean demand of demand points one route away from id.
func (g *Graph) servedDemand(id string) float64 {
	total := 0.0
	for _, succ := range g.Successors(id) {
		if d, ok := g.DemandPoint(succ); ok {
			total += d.DemandMean
		}
	}
	return total
}

// ReadDocument decodes a document and builds the graph it describes.
func ReadDocument(r io.Reader, format Format) (*Graph, error) {
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode network json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode network yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported network format %q", format)
	}
	return doc.Build()
}

// WriteDocument encodes the graph as a document.
func WriteDocument(w io.Writer, g *Graph, format Format) error {
	doc := g.Document()
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported network format %q", format)
}

// LoadFile reads a JSON or YAML network document. The file is memory-mapped
// so national-scale documents are not copied before decoding.
func LoadFile(path string) (*Graph, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open network document: %w", err)
	}
	defer reader.Close()

	g, err := ReadDocument(io.NewSectionReader(reader, 0, int64(reader.Len())), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// SaveFile writes the graph to path, choosing the format by extension.
func SaveFile(path string, g *Graph) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteDocument(f, g, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
