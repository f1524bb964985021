package dto

import (
	"time"

	"github.com/noah-isme/officer-registry-api/internal/models"
)

// TransferInRequest receives an officer from another congregation. The origin is free text
// because it may lie outside this registry.
type TransferInRequest struct {
	Officer          OfficerFields   `json:"officer"`
	District         string          `json:"district" validate:"required,max=32"`
	Congregation     string          `json:"congregation" validate:"required,max=64"`
	FromDistrict     string          `json:"fromDistrict" validate:"required,max=120"`
	FromCongregation string          `json:"fromCongregation" validate:"required,max=120"`
	Department       DepartmentInput `json:"department"`
	TransferDate     string          `json:"transferDate" validate:"required,datetime=2006-01-02"`
	Notes            string          `json:"notes" validate:"omitempty,max=1000"`
}

// TransferOutRequest sends an active officer to another congregation.
type TransferOutRequest struct {
	OfficerID      string `json:"officerId" validate:"required"`
	ToDistrict     string `json:"toDistrict" validate:"required,max=120"`
	ToCongregation string `json:"toCongregation" validate:"required,max=120"`
	TransferDate   string `json:"transferDate" validate:"required,datetime=2006-01-02"`
	Notes          string `json:"notes" validate:"omitempty,max=1000"`
}

// RemovalRequest removes an active officer without a destination.
type RemovalRequest struct {
	OfficerID   string             `json:"officerId" validate:"required"`
	ReasonCode  models.RemovalCode `json:"reasonCode" validate:"required,oneof=SUSPENSION VOLUNTARY_DEPARTURE ADMINISTRATIVE_CORRECTION DECEASED OTHER"`
	Reason      string             `json:"reason" validate:"omitempty,max=1000"`
	RemovalDate string             `json:"removalDate" validate:"required,datetime=2006-01-02"`
}

// ScopeRequest names one congregation.
type ScopeRequest struct {
	District     string `json:"district" validate:"required,max=32"`
	Congregation string `json:"congregation" validate:"required,max=64"`
}

// TransferInResponse identifies the officer row created by a transfer-in or an intake.
type TransferInResponse struct {
	OfficerID  string `json:"officerId"`
	RefNo      string `json:"refNo"`
	TransferID string `json:"transferId,omitempty"`
	Week       int    `json:"week,omitempty"`
	Year       int    `json:"year,omitempty"`
	Headcount  *int   `json:"headcount,omitempty"`
}

// TransferOutResponse reports the ledger row and snapshot of a transfer-out.
type TransferOutResponse struct {
	OfficerID  string  `json:"officerId"`
	TransferID string  `json:"transferId"`
	Week       int     `json:"week"`
	Year       int     `json:"year"`
	Department string  `json:"department"`
	Duty       *string `json:"duty,omitempty"`
}

// RemovalResponse reports the removal row.
type RemovalResponse struct {
	OfficerID    string  `json:"officerId"`
	RemovalID    string  `json:"removalId"`
	DepartmentID *string `json:"departmentId,omitempty"`
	Department   string  `json:"department"`
}

// TransferView is a ledger row with the officer name decrypted for display.
type TransferView struct {
	models.Transfer
	RefNo             string   `json:"ref_no"`
	OfficerName       string   `json:"officer_name"`
	UnavailableFields []string `json:"unavailable_fields,omitempty"`
}

// RemovalView is a removal row with the officer name decrypted for display.
type RemovalView struct {
	models.Removal
	RefNo             string   `json:"ref_no"`
	OfficerName       string   `json:"officer_name"`
	UnavailableFields []string `json:"unavailable_fields,omitempty"`
}

// HeadcountVerification compares the materialized counter with a live count.
type HeadcountVerification struct {
	District     string    `json:"district"`
	Congregation string    `json:"congregation"`
	Counter      int       `json:"counter"`
	Active       int       `json:"active"`
	Consistent   bool      `json:"consistent"`
	CheckedAt    time.Time `json:"checkedAt"`
}
