package dto

import (
	"time"

	"github.com/noah-isme/officer-registry-api/internal/models"
)

// DateLayout is the calendar date format accepted by every request.
const DateLayout = "2006-01-02"

// OfficerFields carries the personal fields of a new officer in plaintext. They are normalized
// and encrypted with the district key before anything is stored.
type OfficerFields struct {
	LastName       string `json:"lastName" validate:"required,max=120"`
	FirstName      string `json:"firstName" validate:"required,max=120"`
	MiddleName     string `json:"middleName" validate:"omitempty,max=120"`
	Suffix         string `json:"suffix" validate:"omitempty,max=20"`
	Birthdate      string `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
	ControlNumber  string `json:"controlNumber" validate:"omitempty,max=64"`
	RegistryNumber string `json:"registryNumber" validate:"omitempty,max=64"`
	Purok          string `json:"purok" validate:"omitempty,max=64"`
	Grupo          string `json:"grupo" validate:"omitempty,max=64"`
}

// DepartmentInput describes one department assignment.
type DepartmentInput struct {
	Department string `json:"department" validate:"required,max=120"`
	Duty       string `json:"duty" validate:"omitempty,max=255"`
	OathDate   string `json:"oathDate" validate:"omitempty,datetime=2006-01-02"`
}

// IntakeRequest registers a brand-new officer in a congregation.
type IntakeRequest struct {
	Officer      OfficerFields   `json:"officer"`
	District     string          `json:"district" validate:"required,max=32"`
	Congregation string          `json:"congregation" validate:"required,max=64"`
	Department   DepartmentInput `json:"department"`
}

// UpdateBirthdateRequest replaces the birthdate. An empty value clears it.
type UpdateBirthdateRequest struct {
	Birthdate string `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
}

// MergeOfficersRequest folds a duplicate officer record into the one being kept.
type MergeOfficersRequest struct {
	KeepID string `json:"keepId" validate:"required"`
	DropID string `json:"dropId" validate:"required,nefield=KeepID"`
}

// OfficerLookupQuery searches by exact registry or control number inside one district.
type OfficerLookupQuery struct {
	District       string `form:"district" validate:"required"`
	RegistryNumber string `form:"registryNumber" validate:"required_without=ControlNumber"`
	ControlNumber  string `form:"controlNumber" validate:"required_without=RegistryNumber"`
}

// OfficerView is an officer with identity fields decrypted for display. Fields that failed to
// decrypt hold a placeholder and are named in UnavailableFields.
type OfficerView struct {
	ID                      string                        `json:"id"`
	RefNo                   string                        `json:"refNo"`
	District                string                        `json:"district"`
	Congregation            string                        `json:"congregation"`
	Purok                   *string                       `json:"purok,omitempty"`
	Grupo                   *string                       `json:"grupo,omitempty"`
	LastName                string                        `json:"lastName"`
	FirstName               string                        `json:"firstName"`
	MiddleName              string                        `json:"middleName,omitempty"`
	Suffix                  string                        `json:"suffix,omitempty"`
	FullName                string                        `json:"fullName"`
	Birthdate               string                        `json:"birthdate,omitempty"`
	ControlNumber           string                        `json:"controlNumber,omitempty"`
	RegistryNumber          string                        `json:"registryNumber,omitempty"`
	IsActive                bool                          `json:"isActive"`
	Status                  models.OfficerStatus          `json:"status"`
	ClassificationAuto      *models.Classification        `json:"classificationAuto,omitempty"`
	ClassificationManual    *models.Classification        `json:"classificationManual,omitempty"`
	EffectiveClassification *models.Classification        `json:"effectiveClassification,omitempty"`
	Assignments             []models.DepartmentAssignment `json:"assignments,omitempty"`
	Transfers               []models.Transfer             `json:"transfers,omitempty"`
	CreatedAt               time.Time                     `json:"createdAt"`
	UpdatedAt               time.Time                     `json:"updatedAt"`
	DeactivatedAt           *time.Time                    `json:"deactivatedAt,omitempty"`
	UnavailableFields       []string                      `json:"unavailable_fields,omitempty"`
}

// MergeOfficersResponse reports the outcome of a merge.
type MergeOfficersResponse struct {
	Officer          *OfficerView `json:"officer"`
	DroppedID        string       `json:"droppedId"`
	DroppedWasActive bool         `json:"droppedWasActive"`
}
