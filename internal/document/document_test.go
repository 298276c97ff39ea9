package document

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	franchiseedomain "github.com/treadstone/maxtt-billing/internal/franchisee/domain"
	invoicedomain "github.com/treadstone/maxtt-billing/internal/invoice/domain"
)

func sampleInvoice() *invoicedomain.Invoice {
	return &invoicedomain.Invoice{
		CustomerName:     "Asha Patel",
		CustomerAddress:  "12 MG Road, Bengaluru",
		VehicleNumber:    "KA01AB1234",
		VehicleType:      "4W",
		TyreCount:        4,
		TyreWidthMm:      185,
		AspectRatio:      65,
		RimDiameterIn:    15,
		FitmentLocations: "Front Left, Front Right, Rear Left, Rear Right",
		TreadDepths: datatypes.JSONMap{
			"Front Left": 6.0, "Front Right": 6.5,
			"Rear Left": 5.5, "Rear Right": 6.0,
		},
		DosageMl:       2000,
		TaxMode:        "CGST_SGST",
		PricePerMl:     decimal.RequireFromString("4.5"),
		GSTPercentage:  decimal.RequireFromString("18"),
		TotalBeforeGST: decimal.RequireFromString("9000"),
		GSTAmount:      decimal.RequireFromString("1620"),
		TotalWithGST:   decimal.RequireFromString("10620"),
		CGSTAmount:     decimal.RequireFromString("810"),
		SGSTAmount:     decimal.RequireFromString("810"),
		CreatedAt:      time.Date(2025, 3, 21, 8, 35, 0, 0, time.UTC),
	}
}

func positionName(i int) string {
	if i == 0 {
		return "Front Left"
	}
	if i == 1 {
		return "Front Right"
	}
	return fmt.Sprintf("Rear Left ×%d", i)
}

func join(positions []string) string {
	return strings.Join(positions, ", ")
}

func TestFormatIST(t *testing.T) {
	utc := time.Date(2025, 3, 21, 8, 35, 0, 0, time.UTC)
	assert.Equal(t, "21/03/2025, 14:05", FormatIST(utc))
	assert.Equal(t, "", FormatIST(time.Time{}))

	// Crossing midnight in IST shifts the date.
	late := time.Date(2025, 3, 21, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "22/03/2025, 01:30", FormatIST(late))
}

func TestParseFlexible(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-03-21T08:35:00Z", time.Date(2025, 3, 21, 8, 35, 0, 0, time.UTC), true},
		{"2025-03-21T08:35:00+05:30", time.Date(2025, 3, 21, 3, 5, 0, 0, time.UTC), true},
		{"2025-03-21T08:35:00", time.Date(2025, 3, 21, 8, 35, 0, 0, time.UTC), true},
		{"2025-03-21 08:35:00", time.Date(2025, 3, 21, 8, 35, 0, 0, time.UTC), true},
		{"2025-03-21", time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"last tuesday", time.Time{}, false},
	}
	for _, tc := range tests {
		got, ok := ParseFlexible(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.True(t, got.Equal(tc.want), "%s parsed to %v", tc.in, got)
		}
	}
}

func TestFormatINR(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "Rs. 0.00"},
		{"999", "Rs. 999.00"},
		{"1000", "Rs. 1,000.00"},
		{"123456", "Rs. 1,23,456.00"},
		{"1234567.5", "Rs. 12,34,567.50"},
		{"12345678.9", "Rs. 1,23,45,678.90"},
		{"-50000", "Rs. -50,000.00"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatINR(decimal.RequireFromString(tc.in)), tc.in)
	}
}

func TestStateAbbr(t *testing.T) {
	tests := []struct {
		name    string
		profile franchiseedomain.Profile
		want    string
	}{
		{"explicit state name", franchiseedomain.Profile{State: "Karnataka"}, "KA"},
		{"explicit abbr", franchiseedomain.Profile{State: "kl"}, "KL"},
		{"gstin prefix", franchiseedomain.Profile{GSTIN: "29ABCDE1234F1Z5"}, "KA"},
		{"address mention", franchiseedomain.Profile{Address: "12 MG Road, Bengaluru, Karnataka 560001"}, "KA"},
		{"state field beats gstin", franchiseedomain.Profile{State: "Tamil Nadu", GSTIN: "29ABCDE1234F1Z5"}, "TN"},
		{"nothing resolvable", franchiseedomain.Profile{}, "XX"},
		{"unknown gstin prefix", franchiseedomain.Profile{GSTIN: "99XXXXX0000X0X0"}, "XX"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StateAbbr(tc.profile))
		})
	}
}

func TestDisplayCode(t *testing.T) {
	issued := time.Date(2025, 3, 21, 8, 35, 0, 0, time.UTC)
	assert.Equal(t, "FR042/KA/0017/0325", DisplayCode("FR042", "KA", 17, issued))

	// Late-evening UTC rolls into the next IST month at a month boundary.
	boundary := time.Date(2025, 3, 31, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "FR042/KA/0001/0425", DisplayCode("FR042", "KA", 1, boundary))
}

func TestBuildPlanCompressesCrowdedInvoice(t *testing.T) {
	inv := sampleInvoice()
	fr := franchiseedomain.Profile{Name: "TreadSafe Motors", State: "Karnataka"}

	plan := BuildPlan(Input{Invoice: inv, Franchisee: fr, DisplayCode: "FR042/KA/0001/0325"})
	require.NotEmpty(t, plan.Blocks)
	assert.Equal(t, BlockHeader, plan.Blocks[0].Kind)
	assert.Equal(t, BlockSignatures, plan.Blocks[len(plan.Blocks)-1].Kind)
	assert.False(t, plan.Tight)
	assert.LessOrEqual(t, plan.TotalHeightMm(), float64(pageContentMm))

	// An 18-wheeler with a long address forces compression.
	crowded := sampleInvoice()
	crowded.VehicleType = "HTV"
	crowded.TyreCount = 18
	crowded.CustomerAddress = "Plot 14, Transport Nagar, Industrial Area Phase 2, near the old toll plaza on the national highway, Bengaluru, Karnataka"
	var positions []string
	for i := 0; i < 18; i++ {
		positions = append(positions, positionName(i))
	}
	crowded.FitmentLocations = join(positions)
	crowded.DosageMl = 18000

	tight := BuildPlan(Input{Invoice: crowded, Franchisee: fr, DisplayCode: "FR042/KA/0002/0325"})
	assert.True(t, tight.Tight)
	assert.Less(t, tight.Scale, 1.0)
	assert.GreaterOrEqual(t, tight.Scale, minScale)
	assert.GreaterOrEqual(t, tight.SignatureHeightMm, float64(signatureFloorMm))
}

func TestBuildPlanLegacyRowWithoutPositions(t *testing.T) {
	inv := sampleInvoice()
	inv.FitmentLocations = ""
	fr := franchiseedomain.Profile{Name: "TreadSafe Motors"}

	plan := BuildPlan(Input{Invoice: inv, Franchisee: fr, DisplayCode: "X"})
	for _, b := range plan.Blocks {
		if b.Kind == BlockFitment {
			require.Len(t, b.Table, 2)
			assert.Equal(t, "4 tyres", b.Table[1][0])
			return
		}
	}
	t.Fatal("fitment block missing")
}
