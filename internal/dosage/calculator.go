// Package dosage computes sealant volume from tyre geometry.
package dosage

import (
	"math"

	"github.com/treadstone/maxtt-billing/internal/vehicle"
)

const mmToInch = 0.03937

// Result is the computed sealant volume for one visit.
type Result struct {
	PerTyreMl int `json:"per_tyre_ml"`
	TotalMl   int `json:"total_ml"`
}

// PerTyreMl computes the recommended volume for one tyre, rounded to the
// nearest multiple of 25 ml. Garbage geometry degrades to 0; rejecting it is
// the caller's job, not the calculator's.
func PerTyreMl(p vehicle.Params, widthMm, aspectPct, rimIn float64) int {
	widthIn := finite(widthMm) * mmToInch
	totalHeightIn := widthIn*(finite(aspectPct)/100)*2 + finite(rimIn)

	raw := widthIn * totalHeightIn * p.DosageConstant
	raw *= 1 + p.BufferFraction
	if raw < 0 {
		raw = 0
	}
	return roundTo25(raw)
}

// TotalMl multiplies the per-tyre dose by the number of tyres treated.
func TotalMl(perTyreMl, installedCount int) int {
	if perTyreMl < 0 || installedCount < 0 {
		return 0
	}
	return perTyreMl * installedCount
}

func roundTo25(x float64) int {
	return int(math.Floor(x/25+0.5)) * 25
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
