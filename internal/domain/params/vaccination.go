package params

// VaccinationPolicy groups the four sub-programmes the engine's vaccination
// mechanics consume. Each is independently enabled. The differential model
// never reads this directly; it only sees the resulting compartment moves
// and the Rho/VE rates.
type VaccinationPolicy struct {
	Neonatal           ProgrammePolicy `json:"neonatal" koanf:"neonatal"`
	HealthcareWorker   ProgrammePolicy `json:"healthcareWorker" koanf:"healthcare_worker"`
	ImmigrantScreening ScreeningPolicy `json:"immigrantScreening" koanf:"immigrant_screening"`
	CatchUp            CampaignPolicy  `json:"catchUp" koanf:"catch_up"`
}

// ProgrammePolicy is a routine vaccination programme with a coverage target.
type ProgrammePolicy struct {
	Enabled              bool    `json:"enabled" koanf:"enabled"`
	CoverageTarget       float64 `json:"coverageTarget" koanf:"coverage_target"`
	RiskBasedEligibility bool    `json:"riskBasedEligibility" koanf:"risk_based_eligibility"`
}

// ScreeningPolicy models screening of imported cases at entry.
type ScreeningPolicy struct {
	Enabled  bool    `json:"enabled" koanf:"enabled"`
	Efficacy float64 `json:"efficacy" koanf:"efficacy"`
}

// CampaignPolicy is a time-boxed catch-up campaign.
type CampaignPolicy struct {
	Enabled        bool    `json:"enabled" koanf:"enabled"`
	CoverageTarget float64 `json:"coverageTarget" koanf:"coverage_target"`
	MaxAge         int     `json:"maxAge" koanf:"max_age"`
}
