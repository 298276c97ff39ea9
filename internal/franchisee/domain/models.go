// Package domain contains the franchisee profile.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ErrProfileNotFound is returned when the requested franchisee does not exist.
var ErrProfileNotFound = errors.New("franchisee profile not found")

// Profile identifies the outlet issuing invoices. The state field feeds the
// invoice display code; when it is blank the GSTIN prefix and then the
// address are consulted instead.
type Profile struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	Name    string       `gorm:"column:name;type:text;not null" json:"name"`
	Code    string       `gorm:"column:code;type:text;not null;uniqueIndex" json:"code"`
	GSTIN   string       `gorm:"column:gstin;type:text" json:"gstin"`
	State   string       `gorm:"column:state;type:text" json:"state"`
	Address string       `gorm:"column:address;type:text" json:"address"`
	Phone   string       `gorm:"column:phone;type:text" json:"phone"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Profile) TableName() string { return "franchisees" }

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	Name    string `json:"name"`
	GSTIN   string `json:"gstin"`
	State   string `json:"state"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Service reads and maintains franchisee profiles.
type Service interface {
	// Default returns the operating franchisee's own profile, the oldest row.
	// A deployment serves one franchisee; the seed guarantees the row exists.
	Default(ctx context.Context) (*Profile, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Profile, error)
	GetByCode(ctx context.Context, code string) (*Profile, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateProfileRequest) (*Profile, error)
}
