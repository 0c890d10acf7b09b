// Package params defines the disease-parameter vector for the TB model,
// derives it from published epidemiological constants, validates it, and
// computes policy-adjusted variants.
//
// Conventions:
// - All adjustment functions return new values; inputs are never mutated.
// - External errors are wrapped via this package's sentinel errors.
package params

// Research constants underpinning derived parameters. Rates are per day
// unless stated otherwise; durations are days, efficacies are fractions.
const (
	// Basic reproduction number range reported for low-incidence settings
	// and the default the transmission rate is calibrated against.
	R0Min     = 0.8
	R0Max     = 4.3
	R0Default = 1.8

	// Transmission probability per adequate contact.
	BaselineTransmission  = 0.10
	HouseholdTransmission = 0.30

	// Latency. Roughly 5% of new infections progress fast within two years;
	// the remainder stabilize into slow-reactivation latency.
	FastProgressionRate = 0.0015  // E_H -> I
	StabilizationRate   = 0.0100  // E_H -> E_L, ~100 days to stabilize
	ReactivationRate    = 0.00010 // E_L -> I, lifetime reactivation risk

	// Infectious period by treatment status and the share of cases that
	// receive treatment.
	InfectiousPeriodTreated   = 60.0  // days, shortened by therapy
	InfectiousPeriodUntreated = 730.0 // days, natural history
	TreatmentCoverage         = 0.85

	// Case fatality among infectious cases by treatment status.
	CaseFatalityTreated   = 0.05
	CaseFatalityUntreated = 0.45

	// Background demographics: life expectancy ~75 years.
	NaturalMortalityRate = 1.0 / (75.0 * 365.0)

	// Daily adequate contact rates by setting.
	ContactRateHousehold = 4.8
	ContactRateWorkplace = 8.0
	ContactRateCommunity = 13.4
	ContactRateGeneral   = 9.0

	// BCG efficacy by age at vaccination, with annual waning and a finite
	// protection window.
	BCGEfficacyNeonatal   = 0.73
	BCGEfficacyChildhood  = 0.52
	BCGEfficacyAdult      = 0.20
	BCGAnnualWaning       = 0.02
	BCGProtectionDuration = 15.0 // years

	// Screening and case finding effectiveness for imported cases.
	OriginScreeningEfficacy  = 0.65
	PreEntryScreeningEffect  = 0.70
	DefaultCaseFindingEffect = 0.50

	// Relative susceptibility of recovered individuals to re-infection.
	ReinfectionSusceptibility = 0.5

	// Baseline routine vaccination rate absent any programme.
	BaselineVaccinationRate = 0.00005
)

// AverageInfectiousDuration is the treatment-weighted infectious period.
func AverageInfectiousDuration() float64 {
	return TreatmentCoverage*InfectiousPeriodTreated +
		(1-TreatmentCoverage)*InfectiousPeriodUntreated
}
