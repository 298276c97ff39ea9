package workflow

import (
	"github.com/treadstone/maxtt-billing/internal/vehicle"
)

// OutlierLevel classifies a per-tyre dosage against the class thresholds.
type OutlierLevel string

const (
	OutlierNone   OutlierLevel = "NONE"
	OutlierYellow OutlierLevel = "YELLOW"
	OutlierRed    OutlierLevel = "RED"
)

// ClassifyOutlier is monotonic in perTyreMl: above red is Red, above yellow
// is Yellow, otherwise None.
func ClassifyOutlier(p vehicle.Params, perTyreMl int) OutlierLevel {
	switch {
	case perTyreMl > p.OutlierRedMl:
		return OutlierRed
	case perTyreMl > p.OutlierYellowMl:
		return OutlierYellow
	default:
		return OutlierNone
	}
}

// OverrideRecord replaces the computed per-tyre dosage with a value the
// operator read off the printed chart.
type OverrideRecord struct {
	ManualPerTyreMl int    `json:"manual_per_tyre_ml"`
	ChartVersion    string `json:"chart_version"`
	Reason          string `json:"reason"`
	OperatorNote    string `json:"operator_note,omitempty"`
	Acknowledged    bool   `json:"acknowledged"`
}

// MismatchException records that the fitment selection implies a different
// installed tyre count than the one selected. While present, every total is
// derived from the implied count.
type MismatchException struct {
	SelectedCount int    `json:"selected_count"`
	ImpliedCount  int    `json:"implied_count"`
	Reason        string `json:"reason"`
	OperatorNote  string `json:"operator_note,omitempty"`
	Acknowledged  bool   `json:"acknowledged"`
}

func (m *MismatchException) delta() int {
	d := m.SelectedCount - m.ImpliedCount
	if d < 0 {
		d = -d
	}
	return d
}
