package vehicle

import "fmt"

// Position is a named wheel slot. Units is the number of physical tyres the
// slot stands for: 1 everywhere except the grouped rear-axle labels of
// six-wheelers and HTVs.
type Position struct {
	Label string
	Units int
}

// Schema is the ordered list of positions for a (class, tyre count) pair.
type Schema struct {
	Positions []Position
	Grouped   bool
	RearEach  int
}

func (s Schema) Labels() []string {
	labels := make([]string, len(s.Positions))
	for i, p := range s.Positions {
		labels[i] = p.Label
	}
	return labels
}

func (s Schema) Has(label string) bool {
	for _, p := range s.Positions {
		if p.Label == label {
			return true
		}
	}
	return false
}

// ImpliedInstalled sums the unit multipliers of the selected positions.
// Selecting a grouped rear label counts RearEach physical tyres.
func (s Schema) ImpliedInstalled(selected map[string]bool) int {
	total := 0
	for _, p := range s.Positions {
		if selected[p.Label] {
			total += p.Units
		}
	}
	return total
}

// SchemaFor returns the fitment schema for a class and tyre count. Multi-axle
// vehicles collapse the rear axles into two grouped left/right labels.
func SchemaFor(class Class, tyreCount int) Schema {
	switch class {
	case TwoWheeler:
		return Schema{Positions: []Position{
			{Label: "Front", Units: 1},
			{Label: "Rear", Units: 1},
		}}
	case ThreeWheeler:
		return Schema{Positions: []Position{
			{Label: "Front", Units: 1},
			{Label: "Rear Left", Units: 1},
			{Label: "Rear Right", Units: 1},
		}}
	case FourWheeler:
		return Schema{Positions: []Position{
			{Label: "Front Left", Units: 1},
			{Label: "Front Right", Units: 1},
			{Label: "Rear Left", Units: 1},
			{Label: "Rear Right", Units: 1},
		}}
	}

	rearEach := (tyreCount - 2) / 2
	if rearEach < 2 {
		rearEach = 2
	}
	return Schema{
		Grouped:  true,
		RearEach: rearEach,
		Positions: []Position{
			{Label: "Front Left", Units: 1},
			{Label: "Front Right", Units: 1},
			{Label: fmt.Sprintf("Rear Left ×%d", rearEach), Units: rearEach},
			{Label: fmt.Sprintf("Rear Right ×%d", rearEach), Units: rearEach},
		},
	}
}
