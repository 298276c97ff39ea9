// Package pricing turns a sealant volume into a taxed rupee total.
package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/treadstone/maxtt-billing/internal/config"
)

// TaxMode selects how GST is split on the invoice. The wire values match the
// legacy records, so they must not change.
type TaxMode string

const (
	// TaxModeSplitDomestic splits GST evenly into CGST and SGST.
	TaxModeSplitDomestic TaxMode = "CGST_SGST"
	// TaxModeSingleInterstate charges the full GST as IGST.
	TaxModeSingleInterstate TaxMode = "IGST"
)

/// ParseTaxMode mirrors the legacy reader: anything that is not IGST is the
// domestic split.
func ParseTaxMode(s string) TaxMode {
	if TaxMode(s) == TaxModeSingleInterstate {
		return TaxModeSingleInterstate
	}
	return TaxModeSplitDomestic
}

// Policy is the franchise price book applied to every invoice.
type Policy struct {
	PricePerMl     decimal.Decimal
	GSTPercent     decimal.Decimal
	DiscountCapPct decimal.Decimal
	HSNCode        string
}

func PolicyFromChart(p config.PricingPolicy) Policy {
	return Policy{
		PricePerMl:     decimal.NewFromFloat(p.PricePerMlINR),
		GSTPercent:     decimal.NewFromFloat(p.GSTPercent),
		DiscountCapPct: decimal.NewFromFloat(p.DiscountCapPct),
		HSNCode:        p.HSNCode,
	}
}

// Breakdown is the assembled rupee breakdown, every field rounded to two
// decimals. Intermediates stay unrounded until assembly.
type Breakdown struct {
	TaxMode         TaxMode         `json:"tax_mode"`
	PricePerMl      decimal.Decimal `json:"price_per_ml"`
	GSTPercent      decimal.Decimal `json:"gst_percent"`
	Gross           decimal.Decimal `json:"gross"`
	Discount        decimal.Decimal `json:"discount"`
	InstallationFee decimal.Decimal `json:"installation_fee"`
	AmountBeforeTax decimal.Decimal `json:"amount_before_tax"`
	CGST            decimal.Decimal `json:"cgst"`
	SGST            decimal.Decimal `json:"sgst"`
	IGST            decimal.Decimal `json:"igst"`
	GSTTotal        decimal.Decimal `json:"gst_total"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
}

var (
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
	twoHund = decimal.NewFromInt(200)
)

// Price computes the full breakdown. A discount above the cap is clamped,
// never rejected; the installation fee is clamped to >= 0 with no upper
// bound, matching the historical records.
func Price(totalMl int64, policy Policy, discountRequested, installationFee decimal.Decimal, mode TaxMode) Breakdown {
	gross := decimal.NewFromInt(totalMl).Mul(policy.PricePerMl)

	discountCap := gross.Mul(policy.DiscountCapPct).Div(hundred).Round(0)
	discount := discountRequested.Round(0)
	if discount.IsNegative() {
		discount = zero
	}
	if discount.GreaterThan(discountCap) {
		discount = discountCap
	}

	install := installationFee.Round(0)
	if install.IsNegative() {
		install = zero
	}

	amountBeforeTax := gross.Sub(discount).Add(install)
	if amountBeforeTax.IsNegative() {
		amountBeforeTax = zero
	}

	var cgst, sgst, igst decimal.Decimal
	if mode == TaxModeSingleInterstate {
		igst = amountBeforeTax.Mul(policy.GSTPercent).Div(hundred)
	} else {
		mode = TaxModeSplitDomestic
		cgst = amountBeforeTax.Mul(policy.GSTPercent).Div(twoHund)
		sgst = cgst
	}
	gstTotal := cgst.Add(sgst).Add(igst)
	grand := amountBeforeTax.Add(gstTotal)

	return Breakdown{
		TaxMode:         mode,
		PricePerMl:      policy.PricePerMl.Round(2),
		GSTPercent:      policy.GSTPercent.Round(2),
		Gross:           gross.Round(2),
		Discount:        discount.Round(2),
		InstallationFee: install.Round(2),
		AmountBeforeTax: amountBeforeTax.Round(2),
		CGST:            cgst.Round(2),
		SGST:            sgst.Round(2),
		IGST:            igst.Round(2),
		GSTTotal:        gstTotal.Round(2),
		GrandTotal:      grand.Round(2),
	}
}
