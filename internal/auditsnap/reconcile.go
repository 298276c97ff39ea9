package auditsnap

import (
	"github.com/shopspring/decimal"

	"github.com/treadstone/maxtt-billing/internal/invoice/domain"
)

// Effective is the single reconciled view of an invoice's derived numbers.
// Every renderer and report reads this, never the raw columns, so legacy rows
// and current rows display identically.
type Effective struct {
	TotalMl       int
	TyreCount     int
	OutlierLevel  string
	Override      *OverrideSnapshot
	Mismatch      *MismatchSnapshot
	TaxMode       string
	PricePerMl    decimal.Decimal
	GSTPercent    decimal.Decimal
	Gross         decimal.Decimal
	Discount      decimal.Decimal
	InstallFee    decimal.Decimal
	BeforeTax     decimal.Decimal
	CGST          decimal.Decimal
	SGST          decimal.Decimal
	IGST          decimal.Decimal
	GSTTotal      decimal.Decimal
	GrandTotal    decimal.Decimal
	CreatedAtDisp string
	SignedAtDisp  string
}

// Reconcile merges an invoice row with whatever snapshot its remarks carry.
// Explicit columns win when set; the snapshot fills anything a legacy row
// left empty. A row with neither stays at zero values.
func Reconcile(inv *domain.Invoice) Effective {
	snap := Decode(inv.Remarks)

	eff := Effective{
		TotalMl:    inv.DosageMl,
		TyreCount:  inv.TyreCount,
		TaxMode:    inv.TaxMode,
		PricePerMl: inv.PricePerMl,
		GSTPercent: inv.GSTPercentage,
		Discount:   inv.Discount,
		InstallFee: inv.InstallationFee,
		BeforeTax:  inv.TotalBeforeGST,
		GSTTotal:   inv.GSTAmount,
		GrandTotal: inv.TotalWithGST,
		CGST:       inv.CGSTAmount,
		SGST:       inv.SGSTAmount,
		IGST:       inv.IGSTAmount,
	}
	eff.Gross = eff.BeforeTax.Add(eff.Discount).Sub(eff.InstallFee)

	if snap == nil {
		return eff
	}

	eff.OutlierLevel = snap.OutlierLevel
	eff.Override = snap.Override
	eff.Mismatch = snap.Mismatch
	eff.CreatedAtDisp = snap.CreatedAtDisplay
	eff.SignedAtDisp = snap.SignedAtDisplay

	if eff.TotalMl == 0 {
		eff.TotalMl = snap.ComputedTotalMl
	}
	if eff.TyreCount == 0 {
		// A resolved mismatch means the implied count won at save time.
		if snap.Mismatch != nil && snap.TyreCountInstalled > 0 {
			eff.TyreCount = snap.TyreCountInstalled
		} else if snap.TyreCountSelected > 0 {
			eff.TyreCount = snap.TyreCountSelected
		}
	}
	if p := snap.Pricing; p != nil {
		if eff.TaxMode == "" {
			eff.TaxMode = p.TaxMode
		}
		fill(&eff.PricePerMl, p.PricePerMl)
		fill(&eff.GSTPercent, p.GSTPercent)
		fill(&eff.Discount, p.Discount)
		fill(&eff.InstallFee, p.InstallationFee)
		fill(&eff.BeforeTax, p.AmountBeforeTax)
		fill(&eff.CGST, p.CGST)
		fill(&eff.SGST, p.SGST)
		fill(&eff.IGST, p.IGST)
		fill(&eff.GSTTotal, p.GSTTotal)
		fill(&eff.GrandTotal, p.GrandTotal)
		if g, err := decimal.NewFromString(p.Gross); err == nil && !g.IsZero() {
			eff.Gross = g
		}
	}
	return eff
}

func fill(dst *decimal.Decimal, display string) {
	if !dst.IsZero() || display == "" {
		return
	}
	if v, err := decimal.NewFromString(display); err == nil {
		*dst = v
	}
}
