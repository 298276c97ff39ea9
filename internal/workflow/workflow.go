// Package workflow is the confirmation state machine between raw measurement
// entry and the single persistence call. It owns the outlier and mismatch
// gates and decides which dosage and tyre count an invoice is allowed to use.
package workflow

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/treadstone/maxtt-billing/internal/dosage"
	"github.com/treadstone/maxtt-billing/internal/pricing"
	"github.com/treadstone/maxtt-billing/internal/vehicle"
)

// State of a single in-progress service visit. One Run per visit.
type State string

const (
	StateDraft          State = "DRAFT"
	StatePendingConsent State = "PENDING_CONSENT"
	StateUnderReview    State = "UNDER_REVIEW"
	StateConfirmed      State = "CONFIRMED"
	StatePersisted      State = "PERSISTED"
)

var (
	ErrWrongState = errors.New("transition not allowed in current state")

	errOverrideIncomplete = errors.New("override requires a positive manual dosage, a reason, the chart version, and acknowledgement")
	errMismatchUnresolved = errors.New("tyre count mismatch requires an override and an acknowledged mismatch reason")
	errRedUnacknowledged  = errors.New("red outlier requires the high-risk acknowledgement")
	errDoubleConfirm      = errors.New("high-risk visit requires the high-risk acknowledgement")
)

// Consent is the captured customer signature artifact.
type Consent struct {
	SignaturePNG string
	Statement    string
	SignedAt     time.Time
}

// Draft carries everything the operator typed for one visit.
type Draft struct {
	Class             vehicle.Class
	TyreWidthMm       float64
	AspectRatioPct    float64
	RimDiameterIn     float64
	SelectedTyreCount int
	Fitment           map[string]bool
	TreadDepthsMm     map[string]float64

	CustomerName    string
	CustomerAddress string
	MobileNumber    string
	VehicleNumber   string
	Odometer        int
	InstallerName   string
	CustomerGSTIN   string
	CustomerCode    string

	DiscountINR        float64
	InstallationFeeINR float64
	TaxMode            pricing.TaxMode

	Consent *Consent
}

// SubmitOutcome reports the result of a save attempt from Draft.
// ConsentRequired is a normal gating condition, not an error.
type SubmitOutcome struct {
	ConsentRequired bool
}

// Review is the computed preview shown to the operator together with the two
// risk banners.
type Review struct {
	Dosage   dosage.Result
	Pricing  pricing.Breakdown
	Outlier  OutlierLevel
	Mismatch *MismatchException
}

// FinalValues are the numbers actually persisted, after overrides and
// mismatch resolution are applied.
type FinalValues struct {
	PerTyreMl int
	CountUsed int
	TotalMl   int
	Pricing   pricing.Breakdown
}

// Run drives one visit through Draft -> PendingConsent -> UnderReview ->
// Confirmed -> Persisted. It holds no UI concerns and no I/O.
type Run struct {
	state  State
	params vehicle.Params
	schema vehicle.Schema
	policy pricing.Policy
	draft  Draft

	computed  dosage.Result
	breakdown pricing.Breakdown
	outlier   OutlierLevel
	mismatch  *MismatchException
	override  *OverrideRecord

	doubleConfirm bool
}

// NewRun validates nothing yet; validation happens on SubmitDraft so the
// operator can keep editing a broken draft.
func NewRun(reg *vehicle.Registry, policy pricing.Policy, draft Draft) (*Run, error) {
	params, err := reg.ParamsFor(draft.Class)
	if err != nil {
		return nil, err
	}
	return &Run{
		state:  StateDraft,
		params: params,
		schema: vehicle.SchemaFor(draft.Class, draft.SelectedTyreCount),
		policy: policy,
		draft:  draft,
	}, nil
}

func (r *Run) State() State           { return r.state }
func (r *Run) Draft() Draft           { return r.draft }
func (r *Run) Schema() vehicle.Schema { return r.schema }

// SubmitDraft is the save attempt. Blocking validation keeps the run in
// Draft; a missing signature halts with ConsentRequired.
func (r *Run) SubmitDraft() (SubmitOutcome, error) {
	if r.state != StateDraft {
		return SubmitOutcome{}, ErrWrongState
	}

	if errs := validateDraft(r.params, r.schema, r.draft); len(errs) > 0 {
		return SubmitOutcome{}, errs
	}

	if r.draft.Consent == nil || r.draft.Consent.SignaturePNG == "" {
		return SubmitOutcome{ConsentRequired: true}, nil
	}

	r.state = StatePendingConsent
	return SubmitOutcome{}, nil
}

// OpenReview computes the preview and raises the outlier and mismatch
// banners, moving the run under review.
func (r *Run) OpenReview() (Review, error) {
	if r.state != StatePendingConsent {
		return Review{}, ErrWrongState
	}

	perTyre := dosage.PerTyreMl(r.params, r.draft.TyreWidthMm, r.draft.AspectRatioPct, r.draft.RimDiameterIn)
	r.computed = dosage.Result{
		PerTyreMl: perTyre,
		TotalMl:   dosage.TotalMl(perTyre, r.draft.SelectedTyreCount),
	}
	r.outlier = ClassifyOutlier(r.params, perTyre)

	implied := r.schema.ImpliedInstalled(r.draft.Fitment)
	if implied != r.draft.SelectedTyreCount {
		r.mismatch = &MismatchException{
			SelectedCount: r.draft.SelectedTyreCount,
			ImpliedCount:  implied,
		}
	}

	r.breakdown = r.priceFor(int64(r.computed.TotalMl))
	r.state = StateUnderReview
	return Review{
		Dosage:   r.computed,
		Pricing:  r.breakdown,
		Outlier:  r.outlier,
		Mismatch: r.mismatch,
	}, nil
}

// ResolveException records the operator's override, mismatch acknowledgement
// and the high-risk checkbox. It may be called repeatedly while under review.
func (r *Run) ResolveException(override *OverrideRecord, mismatchReason, operatorNote string, mismatchAck, doubleConfirm bool) error {
	if r.state != StateUnderReview {
		return ErrWrongState
	}

	r.override = override
	r.doubleConfirm = doubleConfirm
	if r.mismatch != nil {
		r.mismatch.Reason = mismatchReason
		r.mismatch.OperatorNote = operatorNote
		r.mismatch.Acknowledged = mismatchAck
	}
	return nil
}

// Confirm applies the composed guard: the mismatch gate, the red-outlier
// gate, the high-risk double confirmation, and override completeness.
func (r *Run) Confirm() error {
	if r.state != StateUnderReview {
		return ErrWrongState
	}

	if r.mismatch != nil {
		if r.override == nil || !r.mismatch.Acknowledged || r.mismatch.Reason == "" {
			return errMismatchUnresolved
		}
	}

	if r.outlier == OutlierRed && !r.doubleConfirm {
		return errRedUnacknowledged
	}

	// A big count discrepancy or a heavy vehicle raises the bar regardless
	// of the outlier level: under-dosing here is a safety problem.
	highRisk := r.params.Class == vehicle.HTV ||
		(r.mismatch != nil && r.mismatch.delta() >= 2)
	if highRisk && r.mismatch != nil && !r.doubleConfirm {
		return errDoubleConfirm
	}

	if r.override != nil {
		if r.override.ManualPerTyreMl <= 0 ||
			r.override.Reason == "" ||
			r.override.ChartVersion == "" ||
			!r.override.Acknowledged {
			return errOverrideIncomplete
		}
	}

	r.state = StateConfirmed
	return nil
}

// Cancel abandons a draft or a review; nothing has been persisted, so there
// is nothing to roll back.
func (r *Run) Cancel() error {
	switch r.state {
	case StateDraft, StateUnderReview:
		r.state = StateDraft
		r.computed = dosage.Result{}
		r.breakdown = pricing.Breakdown{}
		r.outlier = ""
		r.mismatch = nil
		r.override = nil
		r.doubleConfirm = false
		return nil
	default:
		return ErrWrongState
	}
}

// FinalValues resolves what actually gets written: the override dosage wins
// over the computed one, and a mismatch forces the implied installed count.
func (r *Run) FinalValues() (FinalValues, error) {
	if r.state != StateConfirmed && r.state != StatePersisted {
		return FinalValues{}, ErrWrongState
	}

	perTyre := r.computed.PerTyreMl
	if r.override != nil {
		perTyre = r.override.ManualPerTyreMl
	}

	count := r.draft.SelectedTyreCount
	if r.mismatch != nil {
		count = r.mismatch.ImpliedCount
	}

	total := dosage.TotalMl(perTyre, count)
	return FinalValues{
		PerTyreMl: perTyre,
		CountUsed: count,
		TotalMl:   total,
		Pricing:   r.priceFor(int64(total)),
	}, nil
}

// MarkPersisted is called after the save call succeeded. A failed save
// leaves the run Confirmed so the identical payload can be resubmitted.
func (r *Run) MarkPersisted() error {
	if r.state != StateConfirmed {
		return ErrWrongState
	}
	r.state = StatePersisted
	return nil
}

func (r *Run) Computed() dosage.Result      { return r.computed }
func (r *Run) Outlier() OutlierLevel        { return r.outlier }
func (r *Run) Mismatch() *MismatchException { return r.mismatch }
func (r *Run) Override() *OverrideRecord    { return r.override }
func (r *Run) DoubleConfirmed() bool        { return r.doubleConfirm }

func (r *Run) priceFor(totalMl int64) pricing.Breakdown {
	return pricing.Price(
		totalMl,
		r.policy,
		decimal.NewFromFloat(r.draft.DiscountINR),
		decimal.NewFromFloat(r.draft.InstallationFeeINR),
		r.draft.TaxMode,
	)
}
