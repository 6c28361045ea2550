package network

// KenyaReference builds the reference Kenyan distribution network: two
// distribution centres, three regional warehouses, five retail outlets,
// eight demand points and seventeen routes. It is used by examples and tests.
func KenyaReference() *Graph {
	g := NewGraph()

	facilities := []Facility{
		{ID: "Nairobi_DC", Location: Location{-1.2921, 36.8219}, Capacity: 1000, FixedCost: 5000, Echelon: 3},
		{ID: "Mombasa_DC", Location: Location{-4.0435, 39.6682}, Capacity: 800, FixedCost: 4500, Echelon: 3},
		{ID: "Nakuru_WH", Location: Location{-0.3031, 36.0800}, Capacity: 500, FixedCost: 2500, Echelon: 2},
		{ID: "Kisumu_WH", Location: Location{-0.1022, 34.7617}, Capacity: 400, FixedCost: 2000, Echelon: 2},
		{ID: "Eldoret_WH", Location: Location{0.5143, 35.2698}, Capacity: 350, FixedCost: 1800, Echelon: 2},
		{ID: "Nairobi_Retail1", Location: Location{-1.2864, 36.8172}, Capacity: 200, FixedCost: 1000, Echelon: 1},
		{ID: "Mombasa_Retail1", Location: Location{-4.0476, 39.6626}, Capacity: 150, FixedCost: 900, Echelon: 1},
		{ID: "Kisumu_Retail1", Location: Location{-0.1040, 34.7550}, Capacity: 100, FixedCost: 800, Echelon: 1},
		{ID: "Nakuru_Retail1", Location: Location{-0.2903, 36.0663}, Capacity: 100, FixedCost: 800, Echelon: 1},
		{ID: "Eldoret_Retail1", Location: Location{0.5203, 35.2695}, Capacity: 80, FixedCost: 700, Echelon: 1},
	}
	for _, f := range facilities {
		mustAdd(g.AddFacility(f))
	}

	demand := []DemandPoint{
		{ID: "Nairobi_D1", Location: Location{-1.3098, 36.8537}, DemandMean: 300, DemandStd: 60},
		{ID: "Nairobi_D2", Location: Location{-1.2359, 36.8889}, DemandMean: 250, DemandStd: 50},
		{ID: "Mombasa_D1", Location: Location{-4.0311, 39.6842}, DemandMean: 200, DemandStd: 40},
		{ID: "Kisumu_D1", Location: Location{-0.0917, 34.7680}, DemandMean: 150, DemandStd: 30},
		{ID: "Nakuru_D1", Location: Location{-0.2762, 36.0677}, DemandMean: 120, DemandStd: 24},
		{ID: "Eldoret_D1", Location: Location{0.5102, 35.2850}, DemandMean: 100, DemandStd: 20},
		{ID: "Thika_D1", Location: Location{-1.0386, 37.0834}, DemandMean: 90, DemandStd: 18},
		{ID: "Malindi_D1", Location: Location{-3.2138, 40.1191}, DemandMean: 80, DemandStd: 16},
	}
	for _, d := range demand {
		mustAdd(g.AddDemandPoint(d))
	}

	routes := []struct {
		id, from, to string
		km, hours    float64
		mode         TransportMode
	}{
		// distribution centres to warehouses
		{"R1", "Nairobi_DC", "Nakuru_WH", 160, 3.0, ModeRoad},
		{"R2", "Nairobi_DC", "Kisumu_WH", 340, 6.0, ModeRoad},
		{"R3", "Mombasa_DC", "Nairobi_DC", 480, 8.0, ModeRail},
		{"R4", "Nairobi_DC", "Eldoret_WH", 320, 5.5, ModeRoad},
		// warehouses to retail
		{"R5", "Nakuru_WH", "Nakuru_Retail1", 15, 0.5, ModeRoad},
		{"R6", "Kisumu_WH", "Kisumu_Retail1", 10, 0.4, ModeRoad},
		{"R7", "Eldoret_WH", "Eldoret_Retail1", 12, 0.5, ModeRoad},
		{"R8", "Nairobi_DC", "Nairobi_Retail1", 15, 0.7, ModeRoad},
		{"R9", "Mombasa_DC", "Mombasa_Retail1", 12, 0.5, ModeRoad},
		// retail to demand
		{"R10", "Nairobi_Retail1", "Nairobi_D1", 10, 0.6, ModeRoad},
		{"R11", "Nairobi_Retail1", "Nairobi_D2", 15, 0.7, ModeRoad},
		{"R12", "Mombasa_Retail1", "Mombasa_D1", 8, 0.4, ModeRoad},
		{"R13", "Kisumu_Retail1", "Kisumu_D1", 5, 0.3, ModeRoad},
		{"R14", "Nakuru_Retail1", "Nakuru_D1", 6, 0.3, ModeRoad},
		{"R15", "Eldoret_Retail1", "Eldoret_D1", 7, 0.4, ModeRoad},
		{"R16", "Nairobi_Retail1", "Thika_D1", 40, 1.2, ModeRoad},
		{"R17", "Mombasa_Retail1", "Malindi_D1", 120, 2.4, ModeRoad},
	}
	for _, r := range routes {
		mustAdd(g.AddRoute(Route{
			ID:               r.id,
			Origin:           r.from,
			Destination:      r.to,
			DistanceKm:       r.km,
			TransitTimeHours: r.hours,
			Mode:             r.mode,
			Cost:             DefaultCost(r.km),
		}))
	}

	inventory := []struct {
		id                           string
		lead, review, mean, std, h, s float64
	}{
		{"Nairobi_DC", 10, 7, 800, 160, 2.0, 20.0},
		{"Mombasa_DC", 12, 7, 600, 120, 2.0, 20.0},
		{"Nakuru_WH", 5, 5, 400, 80, 2.5, 25.0},
		{"Kisumu_WH", 7, 5, 300, 60, 2.5, 25.0},
		{"Eldoret_WH", 8, 5, 250, 50, 2.5, 25.0},
		{"Nairobi_Retail1", 3, 3, 300, 60, 3.0, 30.0},
		{"Mombasa_Retail1", 3, 3, 200, 40, 3.0, 30.0},
		{"Kisumu_Retail1", 2, 3, 150, 30, 3.0, 30.0},
		{"Nakuru_Retail1", 2, 3, 120, 24, 3.0, 30.0},
		{"Eldoret_Retail1", 2, 3, 100, 20, 3.0, 30.0},
	}
	for _, p := range inventory {
		mustAdd(g.SetInventoryParams(p.id, InventoryParams{
			LeadTimeDays:     p.lead,
			ReviewPeriodDays: p.review,
			DemandMean:       p.mean,
			DemandStd:        p.std,
			HoldingCost:      p.h,
			StockoutCost:     p.s,
		}))
	}

	return g
}

func mustAdd(err error) {
	if err != nil {
		panic("network: invalid reference record: " + err.Error())
	}
}
