package domain

// FleetExportRow is one line of the fleet spreadsheet: a fleet with its
// agency, area and active driver flattened into display strings. Dates are
// "2006-01-02", statuses use the upper-case labels, and missing values
// (no active driver, no date) are "-".
type FleetExportRow struct {
	AgencyName       string `json:"agency_name"`
	AgencyAddress    string `json:"agency_address"`
	RegionCity       string `json:"region_city"`
	AreaName         string `json:"area_name"`
	RegionSBM        string `json:"region_sbm"`
	LicensePlate     string `json:"license_plate"`
	ManufactureYear  int    `json:"manufacture_year"`
	KeurNumber       string `json:"keur_number"`
	KeurExpiry       string `json:"keur_expiry"`
	KeurStatus       string `json:"keur_status"`
	StnkExpiry       string `json:"stnk_expiry"`
	StnkStatus       string `json:"stnk_status"`
	VehicleExpiry    string `json:"vehicle_expiry"`
	VehicleAgeStatus string `json:"vehicle_age_status"`
	DriverName       string `json:"driver_name"`
	DriverAge        string `json:"driver_age"`
	SimStatus        string `json:"sim_status"`
	CylinderCount    int    `json:"cylinder_count"`
	DailyAllocation  int    `json:"daily_allocation"`
}

