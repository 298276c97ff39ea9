package auditsnap

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treadstone/maxtt-billing/internal/invoice/domain"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		OutlierLevel:       "YELLOW",
		ComputedPerTyreMl:  500,
		ComputedTotalMl:    2000,
		TyreCountSelected:  4,
		TyreCountInstalled: 4,
		CreatedAtDisplay:   "21/03/2025, 14:05",
		SignedAtDisplay:    "21/03/2025, 14:12",
		Override: &OverrideSnapshot{
			ManualPerTyreMl: 475,
			ChartVersion:    "MAXTT-CHART-2025.2",
			Reason:          "worn chart tyre",
			Acknowledged:    true,
		},
		Pricing: &PricingSnapshot{
			TaxMode:         "CGST_SGST",
			PricePerMl:      "4.50",
			GSTPercent:      "18.00",
			Gross:           "9000.00",
			Discount:        "500.00",
			InstallationFee: "0.00",
			AmountBeforeTax: "8500.00",
			CGST:            "765.00",
			SGST:            "765.00",
			IGST:            "0.00",
			GSTTotal:        "1530.00",
			GrandTotal:      "10030.00",
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := sampleSnapshot()

	remarks, err := Encode("I consent to the installation.", want)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(remarks, "I consent to the installation.\n"))
	assert.Contains(t, remarks, "[[MAXTT-AUDIT:v1:")

	got := Decode(remarks)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestEncodeEmptyStatement(t *testing.T) {
	remarks, err := Encode("", sampleSnapshot())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(remarks, "[[MAXTT-AUDIT:"))
	assert.Equal(t, "", ConsentStatement(remarks))
}

func TestDecodeNeverFails(t *testing.T) {
	tests := []struct {
		name    string
		remarks string
	}{
		{"empty", ""},
		{"plain text", "customer was very happy"},
		{"truncated marker", "[[MAXTT-AUDIT:v1:"},
		{"bad base64", "[[MAXTT-AUDIT:v1:!!!notbase64!!!]]"},
		{"base64 of garbage", "[[MAXTT-AUDIT:v1:" + base64.StdEncoding.EncodeToString([]byte("not json")) + "]]"},
		{"unknown version", "[[MAXTT-AUDIT:v2:" + base64.StdEncoding.EncodeToString([]byte(`{"version":2,"payload":{}}`)) + "]]"},
		{"version disagrees with envelope", "[[MAXTT-AUDIT:v1:" + base64.StdEncoding.EncodeToString([]byte(`{"version":7,"payload":{}}`)) + "]]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, Decode(tc.remarks))
		})
	}
}

func TestConsentStatementStripsMarker(t *testing.T) {
	remarks, err := Encode("Signed at counter.", sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "Signed at counter.", ConsentStatement(remarks))
}

func TestReconcileExplicitColumnsWin(t *testing.T) {
	snap := sampleSnapshot()
	remarks, err := Encode("ok", snap)
	require.NoError(t, err)

	inv := &domain.Invoice{
		DosageMl:       1900,
		TyreCount:      4,
		TaxMode:        "IGST",
		PricePerMl:     decimal.RequireFromString("4.50"),
		GSTPercentage:  decimal.RequireFromString("18"),
		TotalBeforeGST: decimal.RequireFromString("8550"),
		GSTAmount:      decimal.RequireFromString("1539"),
		TotalWithGST:   decimal.RequireFromString("10089"),
		IGSTAmount:     decimal.RequireFromString("1539"),
		Remarks:        remarks,
	}
	eff := Reconcile(inv)

	assert.Equal(t, 1900, eff.TotalMl)
	assert.Equal(t, "IGST", eff.TaxMode)
	assert.True(t, eff.BeforeTax.Equal(decimal.RequireFromString("8550")))
	// Snapshot-only facts still come through.
	assert.Equal(t, "YELLOW", eff.OutlierLevel)
	require.NotNil(t, eff.Override)
	assert.Equal(t, 475, eff.Override.ManualPerTyreMl)
}

func TestReconcileLegacyRowFallsBackToSnapshot(t *testing.T) {
	remarks, err := Encode("ok", sampleSnapshot())
	require.NoError(t, err)

	eff := Reconcile(&domain.Invoice{Remarks: remarks})

	assert.Equal(t, 2000, eff.TotalMl)
	assert.Equal(t, 4, eff.TyreCount)
	assert.Equal(t, "CGST_SGST", eff.TaxMode)
	assert.True(t, eff.PricePerMl.Equal(decimal.RequireFromString("4.50")))
	assert.True(t, eff.BeforeTax.Equal(decimal.RequireFromString("8500")))
	assert.True(t, eff.CGST.Equal(decimal.RequireFromString("765")))
	assert.True(t, eff.GrandTotal.Equal(decimal.RequireFromString("10030")))
	assert.Equal(t, "21/03/2025, 14:05", eff.CreatedAtDisp)
}

func TestReconcileBareRow(t *testing.T) {
	eff := Reconcile(&domain.Invoice{Remarks: "no marker here"})
	assert.Equal(t, 0, eff.TotalMl)
	assert.Nil(t, eff.Override)
	assert.True(t, eff.GrandTotal.IsZero())
}
