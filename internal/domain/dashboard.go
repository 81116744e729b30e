package domain

// AreaSummary is the headline numbers of one area.
type AreaSummary struct {
	AgencyCount          int `json:"agency_count"`
	FleetCount           int `json:"fleet_count"`
	DriverCount          int `json:"driver_count"`
	CylinderTotal        int `json:"cylinder_total"`
	DailyAllocationTotal int `json:"daily_allocation_total"`
}

// AgencyTree is an agency with its fleets, each carrying statuses and drivers.
type AgencyTree struct {
	Agency Agency
	Fleets []FleetView
}

// Dashboard is the per-area overview.
type Dashboard struct {
	Area     Area
	Summary  AreaSummary
	Agencies []AgencyTree
}
