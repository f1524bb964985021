package dto

import (
	"time"

	"github.com/noah-isme/officer-registry-api/internal/models"
)

// SetClassificationRequest sets the manual override; a null classification clears it.
type SetClassificationRequest struct {
	Classification *models.Classification `json:"classification" validate:"omitempty,oneof=Child Youth Adult"`
}

// ResetBaselineRequest starts a new delta window for a classification (or "all").
type ResetBaselineRequest struct {
	District       string                `json:"district" validate:"required,max=32"`
	Congregation   string                `json:"congregation" validate:"required,max=64"`
	Classification models.Classification `json:"classification" validate:"required,oneof=Child Youth Adult all"`
	Period         models.BaselinePeriod `json:"period" validate:"required,oneof=week month both"`
}

// DeltaQuery selects the delta report.
type DeltaQuery struct {
	District       string                `form:"district" validate:"required"`
	Congregation   string                `form:"congregation" validate:"required"`
	Classification models.Classification `form:"classification" validate:"required,oneof=Child Youth Adult all"`
	Period         models.BaselinePeriod `form:"period" validate:"required,oneof=week month"`
}

// ClassificationDelta is the added/removed tally of one classification since its baseline.
type ClassificationDelta struct {
	Classification models.Classification `json:"classification"`
	Baseline       time.Time             `json:"baseline"`
	BaselineSource models.BaselineSource `json:"baselineSource"`
	Added          int                   `json:"added"`
	Removed        int                   `json:"removed"`
	Net            int                   `json:"net"`
}

// ClassificationDeltaResponse groups the per-classification deltas of one period.
type ClassificationDeltaResponse struct {
	District     string                `json:"district"`
	Congregation string                `json:"congregation"`
	Period       models.BaselinePeriod `json:"period"`
	Items        []ClassificationDelta `json:"items"`
}

// RecomputeResult summarises a bulk recompute.
type RecomputeResult struct {
	Scanned     int `json:"scanned"`
	Changed     int `json:"changed"`
	Unavailable int `json:"unavailable"`
}

// UpcomingAdult is an officer approaching the adult threshold.
type UpcomingAdult struct {
	OfficerID      string                 `json:"officerId"`
	RefNo          string                 `json:"refNo"`
	FullName       string                 `json:"fullName"`
	Birthdate      string                 `json:"birthdate"`
	TurnsAdultOn   string                 `json:"turnsAdultOn"`
	DaysUntil      int                    `json:"daysUntil"`
	Classification *models.Classification `json:"classification,omitempty"`
}

// UpcomingAdultsResponse lists officers reaching adulthood within the window.
type UpcomingAdultsResponse struct {
	WithinDays  int             `json:"withinDays"`
	Items       []UpcomingAdult `json:"items"`
	Unavailable int             `json:"unavailable"`
}

// ClassificationChangeView is a change log row with the officer name decrypted.
type ClassificationChangeView struct {
	models.ClassificationChange
	RefNo             string   `json:"ref_no"`
	OfficerName       string   `json:"officer_name"`
	UnavailableFields []string `json:"unavailable_fields,omitempty"`
}
