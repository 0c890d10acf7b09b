package params

import (
	"fmt"
	"math"
	"strings"
)

// FieldError describes a single failed range check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult carries either the validated parameters or the list of
// range violations.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Params DiseaseParameters `json:"params,omitempty"`
	Errors []FieldError      `json:"errors,omitempty"`
}

// Validate range-checks every field: Beta strictly in (0, 1], all other
// rates in [0, 1]. NaN fails every check.
func Validate(p DiseaseParameters) ValidationResult {
	var errs []FieldError

	if !(p.Beta > 0 && p.Beta <= 1) {
		errs = append(errs, FieldError{Field: "beta", Message: "must be in (0, 1]"})
	}

	unit := []struct {
		name string
		v    float64
	}{
		{"epsilon", p.Epsilon},
		{"kappa", p.Kappa},
		{"omega", p.Omega},
		{"gamma", p.Gamma},
		{"mu", p.Mu},
		{"muTb", p.MuTB},
		{"rho", p.Rho},
		{"ve", p.VE},
		{"sigma", p.Sigma},
	}
	for _, f := range unit {
		if math.IsNaN(f.v) || f.v < 0 || f.v > 1 {
			errs = append(errs, FieldError{Field: f.name, Message: "must be in [0, 1]"})
		}
	}

	if len(errs) > 0 {
		return ValidationResult{Valid: false, Errors: errs}
	}
	return ValidationResult{Valid: true, Params: p}
}

// MustValidate is the strict boundary for call sites that treat invalid
// configuration as fatal: it returns a wrapped ErrInvalidParameters listing
// every violation, or nil.
func MustValidate(p DiseaseParameters) error {
	res := Validate(p)
	if res.Valid {
		return nil
	}
	msgs := make([]string, len(res.Errors))
	for i, e := range res.Errors {
		msgs[i] = e.Field + " " + e.Message
	}
	return fmt.Errorf("%w: %s", ErrInvalidParameters, strings.Join(msgs, "; "))
}
