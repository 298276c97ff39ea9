package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/treadstone/maxtt-billing/internal/auditsnap"
	"github.com/treadstone/maxtt-billing/internal/clock"
	"github.com/treadstone/maxtt-billing/internal/config"
	"github.com/treadstone/maxtt-billing/internal/document"
	invoicedomain "github.com/treadstone/maxtt-billing/internal/invoice/domain"
	"github.com/treadstone/maxtt-billing/internal/metrics"
	"github.com/treadstone/maxtt-billing/internal/pricing"
	"github.com/treadstone/maxtt-billing/internal/vehicle"
	"github.com/treadstone/maxtt-billing/internal/workflow"
	"github.com/treadstone/maxtt-billing/pkg/db/option"
	"github.com/treadstone/maxtt-billing/pkg/repository"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Registry *vehicle.Registry
	Chart    *config.ChartHolder
	Clock    clock.Clock
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	registry *vehicle.Registry
	chart    *config.ChartHolder
	clock    clock.Clock

	invoicerepo repository.Repository[invoicedomain.Invoice]
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		registry: p.Registry,
		chart:    p.Chart,
		clock:    p.Clock,

		invoicerepo: repository.ProvideStore[invoicedomain.Invoice](p.DB),
	}
}

// Create drives one visit through the whole pipeline: validation, consent,
// review, exception resolution, pricing and the single append-only write.
// Dosage and money always come from the server-side computation, never from
// the request.
func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.Invoice, error) {
	started := s.clock.Now()

	class, err := vehicle.ParseClass(req.VehicleType)
	if err != nil {
		metrics.Billing().IncInvoiceRejected("unknown_vehicle_class")
		return nil, err
	}

	run, err := workflow.NewRun(s.registry, pricing.PolicyFromChart(s.chart.Pricing()), s.draftFrom(class, req))
	if err != nil {
		return nil, err
	}

	outcome, err := run.SubmitDraft()
	if err != nil {
		metrics.Billing().IncInvoiceRejected("validation")
		return nil, err
	}
	if outcome.ConsentRequired {
		metrics.Billing().IncInvoiceRejected("consent_required")
		return nil, invoicedomain.ErrConsentRequired
	}

	review, err := run.OpenReview()
	if err != nil {
		return nil, err
	}
	if review.Outlier != workflow.OutlierNone {
		metrics.Billing().IncExceptionRaised("outlier", string(review.Outlier))
	}
	if review.Mismatch != nil {
		severity := "MINOR"
		if delta := review.Mismatch.SelectedCount - review.Mismatch.ImpliedCount; delta >= 2 || delta <= -2 {
			severity = "MAJOR"
		}
		metrics.Billing().IncExceptionRaised("tyre_count_mismatch", severity)
	}

	if err := run.ResolveException(
		overrideFrom(req, s.registry.ChartVersion()),
		req.MismatchReason,
		req.OperatorNote,
		req.MismatchAck,
		req.DoubleConfirm,
	); err != nil {
		return nil, err
	}

	if err := run.Confirm(); err != nil {
		metrics.Billing().IncInvoiceRejected("confirmation")
		return nil, fmt.Errorf("%w: %v", invoicedomain.ErrConfirmationRequired, err)
	}

	final, err := run.FinalValues()
	if err != nil {
		return nil, err
	}

	inv, err := s.buildInvoice(class, req, run, final)
	if err != nil {
		return nil, err
	}

	if err := s.invoicerepo.Create(ctx, inv); err != nil {
		// The run stays Confirmed, so the same payload can be resubmitted
		// without recomputing anything.
		s.log.Error("invoice save failed",
			zap.String("invoice_id", inv.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if err := run.MarkPersisted(); err != nil {
		return nil, err
	}

	metrics.Billing().IncInvoicePersisted(string(class))
	metrics.Billing().ObserveCreateDuration(s.clock.Now().Sub(started))
	s.log.Info("invoice persisted",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("vehicle_class", string(class)),
		zap.Int("dosage_ml", inv.DosageMl),
		zap.String("grand_total", inv.TotalWithGST.StringFixed(2)),
	)
	return inv, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	inv, err := s.invoicerepo.FindOne(ctx, &invoicedomain.Invoice{ID: id})
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	if auditsnap.Decode(inv.Remarks) == nil {
		metrics.Billing().IncSnapshotFallback()
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, filter invoicedomain.ListFilter) ([]invoicedomain.Invoice, error) {
	query := &invoicedomain.Invoice{
		FranchiseeID:  filter.FranchiseeID,
		VehicleNumber: filter.VehicleNumber,
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Field: "created_at", Desc: true}),
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + q + "%"
		opts = append(opts, option.Or(
			option.Condition{Field: "vehicle_number", Operator: option.ILIKE, Value: pattern},
			option.Condition{Field: "customer_name", Operator: option.ILIKE, Value: pattern},
		))
	}
	if !filter.From.IsZero() {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field: "created_at", Operator: option.GTE, Value: filter.From,
		}))
	}
	if !filter.To.IsZero() {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field: "created_at", Operator: option.LTE, Value: filter.To,
		}))
	}
	if filter.Limit > 0 {
		opts = append(opts, option.WithLimit(filter.Limit))
	}

	items, err := s.invoicerepo.Find(ctx, query, opts...)
	if err != nil {
		return nil, err
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoices, nil
}

// Summary aggregates over reconciled values, not raw columns, so legacy rows
// whose money lives only in the remarks snapshot still count.
func (s *Service) Summary(ctx context.Context, franchiseeID snowflake.ID) (*invoicedomain.Summary, error) {
	items, err := s.invoicerepo.Find(ctx, &invoicedomain.Invoice{FranchiseeID: franchiseeID})
	if err != nil {
		return nil, err
	}

	sum := &invoicedomain.Summary{}
	for _, item := range items {
		if item == nil {
			continue
		}
		eff := auditsnap.Reconcile(item)
		sum.InvoiceCount++
		sum.TotalMl += int64(eff.TotalMl)
		sum.GrossINR = sum.GrossINR.Add(eff.Gross)
		sum.TaxINR = sum.TaxINR.Add(eff.GSTTotal)
		sum.NetINR = sum.NetINR.Add(eff.GrandTotal)
	}
	return sum, nil
}

func (s *Service) draftFrom(class vehicle.Class, req invoicedomain.CreateInvoiceRequest) workflow.Draft {
	draft := workflow.Draft{
		Class:             class,
		TyreWidthMm:       req.TyreWidthMm,
		AspectRatioPct:    req.AspectRatio,
		RimDiameterIn:     req.RimDiameterIn,
		SelectedTyreCount: req.TyreCount,
		Fitment:           req.Fitment,
		TreadDepthsMm:     req.TreadDepthsMm,

		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerAddress: strings.TrimSpace(req.CustomerAddress),
		MobileNumber:    strings.TrimSpace(req.MobileNumber),
		VehicleNumber:   strings.ToUpper(strings.TrimSpace(req.VehicleNumber)),
		Odometer:        req.Odometer,
		InstallerName:   strings.TrimSpace(req.InstallerName),
		CustomerGSTIN:   strings.TrimSpace(req.CustomerGSTIN),
		CustomerCode:    strings.TrimSpace(req.CustomerCode),

		DiscountINR:        req.DiscountINR,
		InstallationFeeINR: req.InstallationFeeINR,
		TaxMode:            pricing.ParseTaxMode(req.TaxMode),
	}

	if sig := strings.TrimSpace(req.ConsentSignaturePNG); sig != "" {
		draft.Consent = &workflow.Consent{
			SignaturePNG: sig,
			Statement:    consentStatement(draft.CustomerName, draft.VehicleNumber),
			SignedAt:     s.clock.Now(),
		}
	}
	return draft
}

func overrideFrom(req invoicedomain.CreateInvoiceRequest, chartVersion string) *workflow.OverrideRecord {
	if req.OverridePerTyreMl <= 0 {
		return nil
	}
	return &workflow.OverrideRecord{
		ManualPerTyreMl: int(req.OverridePerTyreMl),
		ChartVersion:    chartVersion,
		Reason:          strings.TrimSpace(req.OverrideReason),
		OperatorNote:    strings.TrimSpace(req.OperatorNote),
		Acknowledged:    true,
	}
}

func (s *Service) buildInvoice(
	class vehicle.Class,
	req invoicedomain.CreateInvoiceRequest,
	run *workflow.Run,
	final workflow.FinalValues,
) (*invoicedomain.Invoice, error) {
	now := s.clock.Now()
	draft := run.Draft()
	bd := final.Pricing
	policy := s.chart.Pricing()

	snap := snapshotFrom(run, final, now, draft.Consent.SignedAt)
	remarks, err := auditsnap.Encode(draft.Consent.Statement, snap)
	if err != nil {
		return nil, err
	}

	signedAt := draft.Consent.SignedAt
	treads := make(datatypes.JSONMap, len(draft.TreadDepthsMm))
	for pos, mm := range draft.TreadDepthsMm {
		treads[pos] = mm
	}

	return &invoicedomain.Invoice{
		ID:           s.genID.Generate(),
		FranchiseeID: req.FranchiseeID,

		CustomerName:    draft.CustomerName,
		CustomerAddress: draft.CustomerAddress,
		MobileNumber:    draft.MobileNumber,
		VehicleNumber:   draft.VehicleNumber,
		Odometer:        draft.Odometer,
		InstallerName:   draft.InstallerName,
		CustomerGSTIN:   draft.CustomerGSTIN,
		CustomerCode:    draft.CustomerCode,
		HSNCode:         policy.HSNCode,

		VehicleType:      string(class),
		TyreCount:        final.CountUsed,
		TyreWidthMm:      draft.TyreWidthMm,
		AspectRatio:      draft.AspectRatioPct,
		RimDiameterIn:    draft.RimDiameterIn,
		FitmentLocations: fitmentCSV(run.Schema(), draft.Fitment),
		TreadDepthMm:     minTread(draft.TreadDepthsMm),
		TreadDepths:      treads,

		DosageMl: final.TotalMl,

		PricePerMl:      bd.PricePerMl,
		Discount:        bd.Discount,
		InstallationFee: bd.InstallationFee,
		TaxMode:         string(bd.TaxMode),
		GSTPercentage:   bd.GSTPercent,
		TotalBeforeGST:  bd.AmountBeforeTax,
		GSTAmount:       bd.GSTTotal,
		TotalWithGST:    bd.GrandTotal,
		CGSTAmount:      bd.CGST,
		SGSTAmount:      bd.SGST,
		IGSTAmount:      bd.IGST,

		ConsentSignature: draft.Consent.SignaturePNG,
		ConsentSignedAt:  &signedAt,
		SignedAt:         &signedAt,
		Remarks:          remarks,

		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func snapshotFrom(run *workflow.Run, final workflow.FinalValues, createdAt, signedAt time.Time) auditsnap.Snapshot {
	snap := auditsnap.Snapshot{
		OutlierLevel:       string(run.Outlier()),
		ComputedPerTyreMl:  run.Computed().PerTyreMl,
		ComputedTotalMl:    run.Computed().TotalMl,
		TyreCountSelected:  run.Draft().SelectedTyreCount,
		TyreCountInstalled: final.CountUsed,
		CreatedAtDisplay:   document.FormatIST(createdAt),
		SignedAtDisplay:    document.FormatIST(signedAt),
		Pricing:            pricingSnapshot(final.Pricing),
	}
	if ov := run.Override(); ov != nil {
		snap.Override = &auditsnap.OverrideSnapshot{
			ManualPerTyreMl: ov.ManualPerTyreMl,
			ChartVersion:    ov.ChartVersion,
			Reason:          ov.Reason,
			OperatorNote:    ov.OperatorNote,
			Acknowledged:    ov.Acknowledged,
		}
	}
	if mm := run.Mismatch(); mm != nil {
		snap.Mismatch = &auditsnap.MismatchSnapshot{
			SelectedCount: mm.SelectedCount,
			ImpliedCount:  mm.ImpliedCount,
			Reason:        mm.Reason,
			OperatorNote:  mm.OperatorNote,
			Acknowledged:  mm.Acknowledged,
		}
	}
	return snap
}

func pricingSnapshot(bd pricing.Breakdown) *auditsnap.PricingSnapshot {
	fixed := func(d decimal.Decimal) string { return d.StringFixed(2) }
	return &auditsnap.PricingSnapshot{
		TaxMode:         string(bd.TaxMode),
		PricePerMl:      fixed(bd.PricePerMl),
		GSTPercent:      fixed(bd.GSTPercent),
		Gross:           fixed(bd.Gross),
		Discount:        fixed(bd.Discount),
		InstallationFee: fixed(bd.InstallationFee),
		AmountBeforeTax: fixed(bd.AmountBeforeTax),
		CGST:            fixed(bd.CGST),
		SGST:            fixed(bd.SGST),
		IGST:            fixed(bd.IGST),
		GSTTotal:        fixed(bd.GSTTotal),
		GrandTotal:      fixed(bd.GrandTotal),
	}
}

func consentStatement(customerName, vehicleNumber string) string {
	return fmt.Sprintf(
		"I, %s, authorise the installation of MaxTT tyre sealant in vehicle %s and accept the dosage and charges shown to me.",
		customerName, vehicleNumber,
	)
}

func fitmentCSV(schema vehicle.Schema, fitment map[string]bool) string {
	var selected []string
	for _, pos := range schema.Positions {
		if fitment[pos.Label] {
			selected = append(selected, pos.Label)
		}
	}
	return strings.Join(selected, ", ")
}

func minTread(depths map[string]float64) float64 {
	min := 0.0
	first := true
	for _, mm := range depths {
		if first || mm < min {
			min = mm
			first = false
		}
	}
	return min
}
