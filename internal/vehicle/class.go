// Package vehicle holds the per-class dosage parameters and the fitment
// position schema used by the dosage and workflow packages.
package vehicle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/treadstone/maxtt-billing/internal/config"
)

// Class identifies a vehicle category on the dosage chart.
type Class string

const (
	TwoWheeler   Class = "2W"
	ThreeWheeler Class = "3W"
	FourWheeler  Class = "4W"
	SixWheeler   Class = "6W"
	HTV          Class = "HTV"
)

var classes = []Class{TwoWheeler, ThreeWheeler, FourWheeler, SixWheeler, HTV}

var classLabels = map[Class]string{
	TwoWheeler:   "2-Wheeler (Scooter/Motorcycle)",
	ThreeWheeler: "3-Wheeler (Auto)",
	FourWheeler:  "4-Wheeler (Passenger Car/Van/SUV)",
	SixWheeler:   "6-Wheeler (Bus/LTV)",
	HTV:          "HTV (>6 wheels: Trucks/Trailers/Mining)",
}

var classChartKeys = map[Class]string{
	TwoWheeler:   "two_wheeler",
	ThreeWheeler: "three_wheeler",
	FourWheeler:  "four_wheeler",
	SixWheeler:   "six_wheeler",
	HTV:          "htv",
}

// Label returns the display name printed on invoices.
func (c Class) Label() string { return classLabels[c] }

func (c Class) Valid() bool {
	_, ok := classLabels[c]
	return ok
}

// ErrUnknownClass is returned for a vehicle class outside the chart.
var ErrUnknownClass = errors.New("unknown vehicle class")

// ParseClass accepts the short code or the legacy display label. Stored
// invoices predate the short codes, so both must keep parsing forever.
func ParseClass(s string) (Class, error) {
	v := strings.TrimSpace(s)
	for _, c := range classes {
		if string(c) == v || classLabels[c] == v {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownClass, s)
}

// Range is a closed numeric interval.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// SizeLimits bounds the tyre geometry accepted for a class.
type SizeLimits struct {
	WidthMm   Range
	AspectPct Range
	RimIn     Range
}

// Params are the chart parameters for one vehicle class. Immutable after
// process start.
type Params struct {
	Class             Class
	DosageConstant    float64
	BufferFraction    float64
	DefaultTyreCount  int
	AllowedTyreCounts []int
	SizeLimits        SizeLimits
	MinTreadMm        float64
	OutlierYellowMl   int
	OutlierRedMl      int
}

func (p Params) AllowsTyreCount(n int) bool {
	for _, c := range p.AllowedTyreCounts {
		if c == n {
			return true
		}
	}
	return false
}

// Registry is the static lookup table of class parameters, built once from
// the dosage chart.
type Registry struct {
	version string
	params  map[Class]Params
}

func NewRegistry(chart config.ChartConfig) (*Registry, error) {
	params := make(map[Class]Params, len(classes))
	for _, c := range classes {
		entry, ok := chart.Classes[classChartKeys[c]]
		if !ok {
			return nil, fmt.Errorf("dosage chart missing class %s", c)
		}
		params[c] = Params{
			Class:             c,
			DosageConstant:    entry.DosageConstant,
			BufferFraction:    entry.BufferFraction,
			DefaultTyreCount:  entry.DefaultTyreCount,
			AllowedTyreCounts: append([]int(nil), entry.AllowedTyreCounts...),
			SizeLimits: SizeLimits{
				WidthMm:   Range{Min: entry.WidthMinMm, Max: entry.WidthMaxMm},
				AspectPct: Range{Min: entry.AspectMinPct, Max: entry.AspectMaxPct},
				RimIn:     Range{Min: entry.RimMinIn, Max: entry.RimMaxIn},
			},
			MinTreadMm:      entry.MinTreadMm,
			OutlierYellowMl: entry.OutlierYellowMl,
			OutlierRedMl:    entry.OutlierRedMl,
		}
	}
	return &Registry{version: chart.Version, params: params}, nil
}

// ChartVersion is the revision string of the loaded dosage chart.
func (r *Registry) ChartVersion() string { return r.version }

func (r *Registry) ParamsFor(c Class) (Params, error) {
	p, ok := r.params[c]
	if !ok {
		return Params{}, fmt.Errorf("unknown vehicle class %q", c)
	}
	return p, nil
}

func (r *Registry) LimitsFor(c Class) (SizeLimits, error) {
	p, err := r.ParamsFor(c)
	if err != nil {
		return SizeLimits{}, err
	}
	return p.SizeLimits, nil
}

func (r *Registry) MinTreadFor(c Class) float64 {
	if p, ok := r.params[c]; ok {
		return p.MinTreadMm
	}
	return 1.5
}
