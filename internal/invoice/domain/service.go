package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvoiceNotFound is returned when the requested invoice does not exist.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrConsentRequired is returned when a create request lacks the customer
	// signature. The caller must collect consent and resubmit.
	ErrConsentRequired = errors.New("customer consent required")

	// ErrConfirmationRequired is returned when an open exception has not been
	// resolved or acknowledged before save.
	ErrConfirmationRequired = errors.New("exception confirmation required")
)

// CreateInvoiceRequest carries one full visit as entered at the counter.
// Dosage and money fields are never accepted from the caller; they are
// recomputed server side.
type CreateInvoiceRequest struct {
	FranchiseeID snowflake.ID `json:"franchisee_id"`

	CustomerName    string `json:"customer_name"`
	CustomerAddress string `json:"customer_address"`
	MobileNumber    string `json:"mobile_number"`
	VehicleNumber   string `json:"vehicle_number"`
	Odometer        int    `json:"odometer"`
	InstallerName   string `json:"installer_name"`
	CustomerGSTIN   string `json:"customer_gstin"`
	CustomerCode    string `json:"customer_code"`

	VehicleType   string             `json:"vehicle_type"`
	TyreCount     int                `json:"tyre_count"`
	TyreWidthMm   float64            `json:"tyre_width_mm"`
	AspectRatio   float64            `json:"aspect_ratio"`
	RimDiameterIn float64            `json:"rim_diameter_in"`
	Fitment       map[string]bool    `json:"fitment"`
	TreadDepthsMm map[string]float64 `json:"tread_depths_mm"`

	DiscountINR        float64 `json:"discount_inr"`
	InstallationFeeINR float64 `json:"installation_fee_inr"`
	TaxMode            string  `json:"tax_mode"`

	ConsentSignaturePNG string `json:"consent_signature_png"`

	// Override fields, present only when the operator resolved an exception.
	OverridePerTyreMl float64 `json:"override_per_tyre_ml,omitempty"`
	OverrideReason    string  `json:"override_reason,omitempty"`
	MismatchReason    string  `json:"mismatch_reason,omitempty"`
	OperatorNote      string  `json:"operator_note,omitempty"`
	MismatchAck       bool    `json:"mismatch_ack,omitempty"`
	DoubleConfirm     bool    `json:"double_confirm,omitempty"`
}

// ListFilter narrows List queries. Query matches vehicle number or customer
// name; zero From/To leave the date range open.
type ListFilter struct {
	FranchiseeID  snowflake.ID
	VehicleNumber string
	Query         string
	From          time.Time
	To            time.Time
	Limit         int
}

// Summary aggregates persisted invoices for the dashboard.
type Summary struct {
	InvoiceCount int64           `json:"invoice_count"`
	TotalMl      int64           `json:"total_ml"`
	GrossINR     decimal.Decimal `json:"gross_inr"`
	TaxINR       decimal.Decimal `json:"tax_inr"`
	NetINR       decimal.Decimal `json:"net_inr"`
}

// Service computes, prices and persists invoices.
type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	Summary(ctx context.Context, franchiseeID snowflake.ID) (*Summary, error)
}
