package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treadstone/maxtt-billing/internal/config"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(config.DefaultChartConfig())
	require.NoError(t, err)
	return reg
}

func TestRegistryCoversAllClasses(t *testing.T) {
	reg := newTestRegistry(t)

	for _, c := range []Class{TwoWheeler, ThreeWheeler, FourWheeler, SixWheeler, HTV} {
		p, err := reg.ParamsFor(c)
		require.NoError(t, err)
		assert.Greater(t, p.DosageConstant, 0.0)
		assert.GreaterOrEqual(t, p.BufferFraction, 0.0)
		assert.NotEmpty(t, p.AllowedTyreCounts)
		assert.Greater(t, p.OutlierRedMl, p.OutlierYellowMl)
	}

	_, err := reg.ParamsFor(Class("9W"))
	assert.Error(t, err)
}

func TestParseClassAcceptsLegacyLabels(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Class
	}{
		{"4W", FourWheeler},
		{"4-Wheeler (Passenger Car/Van/SUV)", FourWheeler},
		{"HTV", HTV},
		{"HTV (>6 wheels: Trucks/Trailers/Mining)", HTV},
		{" 2W ", TwoWheeler},
	} {
		got, err := ParseClass(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseClass("tractor")
	assert.Error(t, err)
}

func TestSchemaForFixedClasses(t *testing.T) {
	assert.Equal(t, []string{"Front", "Rear"}, SchemaFor(TwoWheeler, 2).Labels())
	assert.Equal(t, []string{"Front", "Rear Left", "Rear Right"}, SchemaFor(ThreeWheeler, 3).Labels())
	assert.Equal(t,
		[]string{"Front Left", "Front Right", "Rear Left", "Rear Right"},
		SchemaFor(FourWheeler, 4).Labels(),
	)
}

func TestSchemaForGroupedAxles(t *testing.T) {
	for _, tc := range []struct {
		count    int
		rearEach int
	}{
		{6, 2},
		{8, 3},
		{10, 4},
		{14, 6},
		{18, 8},
	} {
		s := SchemaFor(HTV, tc.count)
		require.True(t, s.Grouped)
		assert.Equal(t, tc.rearEach, s.RearEach, "tyre count %d", tc.count)
		assert.Len(t, s.Positions, 4)
	}
}

func TestImpliedInstalledCountsGroupedUnits(t *testing.T) {
	s := SchemaFor(HTV, 10) // rearEach = 4
	selected := map[string]bool{
		"Front Left":   true,
		"Rear Left ×4": true,
	}
	assert.Equal(t, 5, s.ImpliedInstalled(selected))

	all := map[string]bool{}
	for _, l := range s.Labels() {
		all[l] = true
	}
	assert.Equal(t, 10, s.ImpliedInstalled(all))

	four := SchemaFor(FourWheeler, 4)
	assert.Equal(t, 2, four.ImpliedInstalled(map[string]bool{
		"Front Left": true, "Rear Right": true, "Spare": true,
	}))
}
