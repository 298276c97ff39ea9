// Package auditsnap embeds a versioned computation trace inside the invoice
// remarks field and reconstructs it later. The persisted schema evolved
// without guaranteed migrations, so the snapshot is the one place new fields
// can land without a schema change; decoding stays defensive forever.
package auditsnap

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"
)

// CurrentVersion is the envelope version this codec writes.
const CurrentVersion = 1

var markerRe = regexp.MustCompile(`\[\[MAXTT-AUDIT:v(\d+):([A-Za-z0-9+/=]+)\]\]`)

// OverrideSnapshot mirrors a manual dosage override at save time.
type OverrideSnapshot struct {
	ManualPerTyreMl int    `json:"manual_per_tyre_ml"`
	ChartVersion    string `json:"chart_version"`
	Reason          string `json:"reason"`
	OperatorNote    string `json:"operator_note,omitempty"`
	Acknowledged    bool   `json:"acknowledged"`
}

// MismatchSnapshot mirrors a tyre-count mismatch exception at save time.
type MismatchSnapshot struct {
	SelectedCount int    `json:"selected_count"`
	ImpliedCount  int    `json:"implied_count"`
	Reason        string `json:"reason"`
	OperatorNote  string `json:"operator_note,omitempty"`
	Acknowledged  bool   `json:"acknowledged"`
}

// PricingSnapshot freezes the displayed rupee breakdown. Amounts are kept as
// their two-decimal display strings so the round trip is byte-exact.
type PricingSnapshot struct {
	TaxMode         string `json:"tax_mode"`
	PricePerMl      string `json:"price_per_ml"`
	GSTPercent      string `json:"gst_percent"`
	Gross           string `json:"gross"`
	Discount        string `json:"discount"`
	InstallationFee string `json:"installation_fee"`
	AmountBeforeTax string `json:"amount_before_tax"`
	CGST            string `json:"cgst"`
	SGST            string `json:"sgst"`
	IGST            string `json:"igst"`
	GSTTotal        string `json:"gst_total"`
	GrandTotal      string `json:"grand_total"`
}

// Snapshot is the self-contained audit record of how an invoice's numbers
// were derived.
type Snapshot struct {
	OutlierLevel       string            `json:"outlier_level"`
	ComputedPerTyreMl  int               `json:"computed_per_tyre_ml"`
	ComputedTotalMl    int               `json:"computed_total_ml"`
	Override           *OverrideSnapshot `json:"override,omitempty"`
	Mismatch           *MismatchSnapshot `json:"mismatch,omitempty"`
	TyreCountSelected  int               `json:"tyre_count_selected"`
	TyreCountInstalled int               `json:"tyre_count_installed"`
	CreatedAtDisplay   string            `json:"created_at_display"`
	SignedAtDisplay    string            `json:"signed_at_display"`
	Pricing            *PricingSnapshot  `json:"pricing,omitempty"`
}

type envelope struct {
	Version int      `json:"version"`
	Payload Snapshot `json:"payload"`
}

// Encode appends the machine-readable snapshot to the human-readable consent
// statement. The same remarks field stays legible to a person and parseable
// by Decode.
func Encode(consentStatement string, s Snapshot) (string, error) {
	raw, err := json.Marshal(envelope{Version: CurrentVersion, Payload: s})
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	var b strings.Builder
	if stmt := strings.TrimSpace(consentStatement); stmt != "" {
		b.WriteString(stmt)
		b.WriteString("\n")
	}
	b.WriteString("[[MAXTT-AUDIT:v1:")
	b.WriteString(encoded)
	b.WriteString("]]")
	return b.String(), nil
}

// Decode locates the marker and parses the snapshot. Any failure yields nil:
// callers treat nil as "no audit data" and fall back to explicit fields.
func Decode(remarks string) *Snapshot {
	m := markerRe.FindStringSubmatch(remarks)
	if m == nil {
		return nil
	}
	if m[1] != "1" {
		// Future versions branch here; an unknown one is no data, not an error.
		return nil
	}

	raw, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	if env.Version != CurrentVersion {
		return nil
	}
	return &env.Payload
}

// ConsentStatement extracts the human-readable part of an encoded remarks
// field, with the marker stripped.
func ConsentStatement(remarks string) string {
	return strings.TrimSpace(markerRe.ReplaceAllString(remarks, ""))
}
