// Package domain contains the persisted invoice aggregate.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Invoice is one service visit, created exactly once at save time and
// append-only afterwards: an edit recomputes and re-saves, never patches.
//
// Column names match the legacy schema; older rows may lack the newer
// columns, in which case the audit snapshot embedded in Remarks carries the
// missing data.
type Invoice struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	FranchiseeID snowflake.ID `gorm:"not null;index" json:"franchisee_id"`

	CustomerName    string `gorm:"column:customer_name;type:text;not null" json:"customer_name"`
	CustomerAddress string `gorm:"column:customer_address;type:text" json:"customer_address"`
	MobileNumber    string `gorm:"column:mobile_number;type:text" json:"mobile_number"`
	VehicleNumber   string `gorm:"column:vehicle_number;type:text;not null;index" json:"vehicle_number"`
	Odometer        int    `gorm:"column:odometer" json:"odometer"`
	InstallerName   string `gorm:"column:installer_name;type:text" json:"installer_name"`
	CustomerGSTIN   string `gorm:"column:customer_gstin;type:text" json:"customer_gstin"`
	CustomerCode    string `gorm:"column:customer_code;type:text" json:"customer_code"`
	HSNCode         string `gorm:"column:hsn_code;type:text" json:"hsn_code"`

	VehicleType      string            `gorm:"column:vehicle_type;type:text;not null" json:"vehicle_type"`
	TyreCount        int               `gorm:"column:tyre_count;not null" json:"tyre_count"`
	TyreWidthMm      float64           `gorm:"column:tyre_width_mm" json:"tyre_width_mm"`
	AspectRatio      float64           `gorm:"column:aspect_ratio" json:"aspect_ratio"`
	RimDiameterIn    float64           `gorm:"column:rim_diameter_in" json:"rim_diameter_in"`
	FitmentLocations string            `gorm:"column:fitment_locations;type:text" json:"fitment_locations"`
	TreadDepthMm     float64           `gorm:"column:tread_depth_mm" json:"tread_depth_mm"`
	TreadDepths      datatypes.JSONMap `gorm:"column:tread_depths_json" json:"tread_depths_json"`

	DosageMl int `gorm:"column:dosage_ml;not null" json:"dosage_ml"`

	PricePerMl      decimal.Decimal `gorm:"column:price_per_ml;type:numeric(10,2)" json:"price_per_ml"`
	Discount        decimal.Decimal `gorm:"column:discount;type:numeric(12,2)" json:"discount"`
	InstallationFee decimal.Decimal `gorm:"column:installation_fee;type:numeric(12,2)" json:"installation_fee"`
	TaxMode         string          `gorm:"column:tax_mode;type:text" json:"tax_mode"`
	GSTPercentage   decimal.Decimal `gorm:"column:gst_percentage;type:numeric(6,2)" json:"gst_percentage"`
	TotalBeforeGST  decimal.Decimal `gorm:"column:total_before_gst;type:numeric(12,2)" json:"total_before_gst"`
	GSTAmount       decimal.Decimal `gorm:"column:gst_amount;type:numeric(12,2)" json:"gst_amount"`
	TotalWithGST    decimal.Decimal `gorm:"column:total_with_gst;type:numeric(12,2)" json:"total_with_gst"`
	CGSTAmount      decimal.Decimal `gorm:"column:cgst_amount;type:numeric(12,2)" json:"cgst_amount"`
	SGSTAmount      decimal.Decimal `gorm:"column:sgst_amount;type:numeric(12,2)" json:"sgst_amount"`
	IGSTAmount      decimal.Decimal `gorm:"column:igst_amount;type:numeric(12,2)" json:"igst_amount"`

	ConsentSignature string     `gorm:"column:consent_signature;type:text" json:"consent_signature"`
	ConsentSignedAt  *time.Time `gorm:"column:consent_signed_at" json:"consent_signed_at"`
	SignedAt         *time.Time `gorm:"column:signed_at" json:"signed_at"`
	Remarks          string     `gorm:"column:remarks;type:text" json:"remarks"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }
