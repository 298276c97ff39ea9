package workflow

import (
	"fmt"
	"strings"

	"github.com/treadstone/maxtt-billing/internal/vehicle"
)

// ValidationError is a single blocking problem, addressable to the field or
// wheel position that caused it.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// validateDraft is the blocking gate: a draft that fails here never leaves
// the Draft state.
func validateDraft(p vehicle.Params, schema vehicle.Schema, d Draft) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(d.CustomerName) == "" {
		errs = append(errs, ValidationError{
			Field: "customer_name", Code: "required",
			Message: "Customer name is required.",
		})
	}
	if strings.TrimSpace(d.VehicleNumber) == "" {
		errs = append(errs, ValidationError{
			Field: "vehicle_number", Code: "required",
			Message: "Vehicle number is required.",
		})
	}

	if !p.AllowsTyreCount(d.SelectedTyreCount) {
		errs = append(errs, ValidationError{
			Field: "tyre_count", Code: "not_allowed",
			Message: fmt.Sprintf("Tyre count %d is not valid for %s.", d.SelectedTyreCount, p.Class.Label()),
		})
	}

	limits := p.SizeLimits
	if !limits.WidthMm.Contains(d.TyreWidthMm) {
		errs = append(errs, ValidationError{
			Field: "tyre_width_mm", Code: "out_of_range",
			Message: fmt.Sprintf("Tyre width %.0f mm is outside %.0f-%.0f mm for %s.",
				d.TyreWidthMm, limits.WidthMm.Min, limits.WidthMm.Max, p.Class.Label()),
		})
	}
	if !limits.AspectPct.Contains(d.AspectRatioPct) {
		errs = append(errs, ValidationError{
			Field: "aspect_ratio", Code: "out_of_range",
			Message: fmt.Sprintf("Aspect ratio %.0f%% is outside %.0f-%.0f%% for %s.",
				d.AspectRatioPct, limits.AspectPct.Min, limits.AspectPct.Max, p.Class.Label()),
		})
	}
	if !limits.RimIn.Contains(d.RimDiameterIn) {
		errs = append(errs, ValidationError{
			Field: "rim_diameter_in", Code: "out_of_range",
			Message: fmt.Sprintf("Rim diameter %.1f in is outside %.1f-%.1f in for %s.",
				d.RimDiameterIn, limits.RimIn.Min, limits.RimIn.Max, p.Class.Label()),
		})
	}

	installed := 0
	for _, pos := range schema.Positions {
		if !d.Fitment[pos.Label] {
			continue
		}
		installed++

		// Tread depth is required (and checked) only for installed positions.
		depth, ok := d.TreadDepthsMm[pos.Label]
		if !ok {
			errs = append(errs, ValidationError{
				Field: pos.Label, Code: "tread_missing",
				Message: fmt.Sprintf("Enter tread depth for: %s.", pos.Label),
			})
			continue
		}
		if depth < p.MinTreadMm {
			errs = append(errs, ValidationError{
				Field: pos.Label, Code: "tread_below_minimum",
				Message: fmt.Sprintf("Installation blocked: tread depth at %q is below %.1f mm.", pos.Label, p.MinTreadMm),
			})
		}
	}
	if installed == 0 {
		errs = append(errs, ValidationError{
			Field: "fitment", Code: "no_tyres_installed",
			Message: "Select at least one fitment position.",
		})
	}

	return errs
}
