// Package document turns a persisted invoice into a typed layout plan that
// the PDF provider renders. Layout decisions (ordering, what appears, how
// blocks shrink on a crowded page) all live here so the renderer stays a dumb
// translator.
package document

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/treadstone/maxtt-billing/internal/auditsnap"
	franchiseedomain "github.com/treadstone/maxtt-billing/internal/franchisee/domain"
	invoicedomain "github.com/treadstone/maxtt-billing/internal/invoice/domain"
)

type BlockKind string

const (
	BlockHeader      BlockKind = "header"
	BlockParties     BlockKind = "parties"
	BlockVehicle     BlockKind = "vehicle"
	BlockFitment     BlockKind = "fitment"
	BlockAmounts     BlockKind = "amounts"
	BlockNote        BlockKind = "note"
	BlockDeclaration BlockKind = "declaration"
	BlockTerms       BlockKind = "terms"
	BlockSignatures  BlockKind = "signatures"
)

// LabelValue is one printed line in a panel.
type LabelValue struct {
	Label string
	Value string
}

// Block is one vertical section of the invoice page.
type Block struct {
	Kind  BlockKind
	Title string

	Lines []LabelValue
	Table [][]string
	Text  string

	baseMm   float64
	perRowMm float64
}

// HeightMm estimates the rendered height at the given compression scale.
func (b Block) HeightMm(scale float64) float64 {
	rows := len(b.Lines) + len(b.Table)
	if b.Text != "" {
		// Rough wrap estimate at ~90 characters per printed line.
		rows += (len(b.Text) / 90) + 1
	}
	return (b.baseMm + b.perRowMm*float64(rows)) * scale
}

// Plan is the full single-page layout. Rendering never paginates; a crowded
// invoice compresses instead, because the signed document must stay one page.
type Plan struct {
	Blocks []Block

	Scale             float64
	SignatureHeightMm float64
	Tight             bool
}

var two = decimal.NewFromInt(2)

const (
	pageContentMm    = 257
	minScale         = 0.72
	scaleStep        = 0.04
	signatureBandMm  = 30
	signatureFloorMm = 16
)

// TotalHeightMm is the estimated height of every block plus the signature
// bands at the current compression.
func (p *Plan) TotalHeightMm() float64 {
	total := p.SignatureHeightMm
	for _, b := range p.Blocks {
		total += b.HeightMm(p.Scale)
	}
	return total
}

// compress shrinks the page in two stages: a uniform scale down to the
// readability floor, then the signature bands down to their own floor. A plan
// still over budget after both stages renders compressed anyway.
func (p *Plan) compress() {
	for p.TotalHeightMm() > pageContentMm && p.Scale-scaleStep >= minScale {
		p.Scale -= scaleStep
		p.Tight = true
	}
	for p.TotalHeightMm() > pageContentMm && p.SignatureHeightMm > signatureFloorMm {
		p.SignatureHeightMm -= 2
		p.Tight = true
	}
}

// Input collects everything BuildPlan needs. DisplayCode is resolved by the
// caller because it needs the per-franchisee sequence.
type Input struct {
	Invoice     *invoicedomain.Invoice
	Franchisee  franchiseedomain.Profile
	DisplayCode string
}

// BuildPlan assembles the block list for one invoice and compresses it to a
// single page. Fitment rows cover only the installed positions; legacy rows
// reconstruct their numbers from the remarks snapshot.
func BuildPlan(in Input) Plan {
	inv := in.Invoice
	eff := auditsnap.Reconcile(inv)

	plan := Plan{
		Scale:             1,
		SignatureHeightMm: signatureBandMm,
	}
	add := func(b Block) { plan.Blocks = append(plan.Blocks, b) }

	add(Block{
		Kind:  BlockHeader,
		Title: "MaxTT Tyre Sealant - Tax Invoice",
		Lines: []LabelValue{
			{Label: "Invoice No.", Value: in.DisplayCode},
			{Label: "Date", Value: createdDisplay(inv, eff)},
			{Label: "HSN", Value: inv.HSNCode},
		},
		baseMm:   10,
		perRowMm: 5,
	})

	add(Block{
		Kind: BlockParties,
		Lines: []LabelValue{
			{Label: "Franchisee", Value: in.Franchisee.Name},
			{Label: "GSTIN", Value: in.Franchisee.GSTIN},
			{Label: "Address", Value: in.Franchisee.Address},
			{Label: "Customer", Value: inv.CustomerName},
			{Label: "Customer Address", Value: inv.CustomerAddress},
			{Label: "Mobile", Value: inv.MobileNumber},
			{Label: "Customer GSTIN", Value: inv.CustomerGSTIN},
		},
		baseMm:   4,
		perRowMm: 5,
	})

	add(Block{
		Kind: BlockVehicle,
		Lines: []LabelValue{
			{Label: "Vehicle No.", Value: inv.VehicleNumber},
			{Label: "Vehicle Type", Value: inv.VehicleType},
			{Label: "Odometer", Value: fmt.Sprintf("%d km", inv.Odometer)},
			{Label: "Tyre Size", Value: tyreSize(inv)},
			{Label: "Installer", Value: inv.InstallerName},
		},
		baseMm:   4,
		perRowMm: 5,
	})

	add(Block{
		Kind:     BlockFitment,
		Title:    "Installed Positions",
		Table:    fitmentRows(inv, eff),
		baseMm:   10,
		perRowMm: 5,
	})

	add(Block{
		Kind:     BlockAmounts,
		Title:    "Amounts",
		Table:    amountRows(eff),
		baseMm:   10,
		perRowMm: 5,
	})

	if eff.Mismatch != nil {
		add(Block{
			Kind: BlockNote,
			Text: fmt.Sprintf(
				"Sealant installed in %d of %d tyres. Reason recorded: %s.",
				eff.Mismatch.ImpliedCount, eff.Mismatch.SelectedCount, eff.Mismatch.Reason,
			),
			baseMm:   6,
			perRowMm: 4,
		})
	}

	add(Block{
		Kind:     BlockDeclaration,
		Title:    "Customer Declaration",
		Text:     declarationText(inv),
		baseMm:   6,
		perRowMm: 4,
	})

	add(Block{
		Kind: BlockTerms,
		Text: "Sealant is installed as a preventive measure and does not repair existing structural damage. " +
			"Dosage is determined by tyre dimensions per the MaxTT fitment chart. " +
			"Claims require this invoice and are limited to the sealant product.",
		baseMm:   4,
		perRowMm: 4,
	})

	add(Block{
		Kind:  BlockSignatures,
		Lines: []LabelValue{{Label: "Customer Signature"}, {Label: "For " + in.Franchisee.Name}},
		// Height comes from Plan.SignatureHeightMm, not the block itself.
	})

	plan.compress()
	return plan
}

func createdDisplay(inv *invoicedomain.Invoice, eff auditsnap.Effective) string {
	if eff.CreatedAtDisp != "" {
		return eff.CreatedAtDisp
	}
	return FormatIST(inv.CreatedAt)
}

func tyreSize(inv *invoicedomain.Invoice) string {
	if inv.TyreWidthMm <= 0 {
		return ""
	}
	return fmt.Sprintf("%.0f/%.0fR%.1f", inv.TyreWidthMm, inv.AspectRatio, inv.RimDiameterIn)
}

// fitmentRows lists only the installed positions, one per row, with the tread
// depth recorded at install time and the per-tyre dose.
func fitmentRows(inv *invoicedomain.Invoice, eff auditsnap.Effective) [][]string {
	perTyre := 0
	if eff.TyreCount > 0 {
		perTyre = eff.TotalMl / eff.TyreCount
	}

	rows := [][]string{{"Position", "Tread (mm)", "Dose (ml)"}}
	for _, pos := range strings.Split(inv.FitmentLocations, ",") {
		pos = strings.TrimSpace(pos)
		if pos == "" {
			continue
		}
		tread := ""
		if v, ok := inv.TreadDepths[pos]; ok {
			tread = fmt.Sprintf("%v", v)
		}
		rows = append(rows, []string{pos, tread, fmt.Sprintf("%d", perTyre)})
	}
	if len(rows) == 1 && eff.TyreCount > 0 {
		// Legacy rows without stored positions still show the totals line.
		rows = append(rows, []string{fmt.Sprintf("%d tyres", eff.TyreCount), "", fmt.Sprintf("%d", perTyre)})
	}
	return rows
}

func amountRows(eff auditsnap.Effective) [][]string {
	rows := [][]string{
		{"Sealant " + fmt.Sprintf("%d ml", eff.TotalMl), FormatINR(eff.Gross)},
	}
	if !eff.Discount.IsZero() {
		rows = append(rows, []string{"Discount", "- " + FormatINR(eff.Discount)})
	}
	if !eff.InstallFee.IsZero() {
		rows = append(rows, []string{"Installation", FormatINR(eff.InstallFee)})
	}
	rows = append(rows, []string{"Taxable Value", FormatINR(eff.BeforeTax)})

	if eff.TaxMode == "IGST" {
		rows = append(rows, []string{"IGST @ " + eff.GSTPercent.StringFixed(0) + "%", FormatINR(eff.IGST)})
	} else {
		half := eff.GSTPercent.Div(two).StringFixed(0)
		rows = append(rows,
			[]string{"CGST @ " + half + "%", FormatINR(eff.CGST)},
			[]string{"SGST @ " + half + "%", FormatINR(eff.SGST)},
		)
	}
	rows = append(rows, []string{"Grand Total", FormatINR(eff.GrandTotal)})
	return rows
}

func declarationText(inv *invoicedomain.Invoice) string {
	if stmt := auditsnap.ConsentStatement(inv.Remarks); stmt != "" {
		return stmt
	}
	return "The customer has consented to the installation of MaxTT tyre sealant and accepts the dosage and charges shown."
}
