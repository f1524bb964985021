package models

import "time"

// Classification is the age-based cohort label of an officer.
type Classification string

const (
	ClassificationChild Classification = "Child"
	ClassificationYouth Classification = "Youth"
	ClassificationAdult Classification = "Adult"
	// ClassificationAll is the wildcard used by baselines and delta queries.
	ClassificationAll Classification = "all"
)

// Classifications lists the concrete labels in ascending age order.
var Classifications = []Classification{ClassificationChild, ClassificationYouth, ClassificationAdult}

// Valid reports whether c is a concrete label.
func (c Classification) Valid() bool {
	switch c {
	case ClassificationChild, ClassificationYouth, ClassificationAdult:
		return true
	}
	return false
}

// BaselinePeriod is the reporting window a baseline applies to.
type BaselinePeriod string

const (
	PeriodWeek  BaselinePeriod = "week"
	PeriodMonth BaselinePeriod = "month"
	// PeriodBoth is accepted on reset only and expands to week and month.
	PeriodBoth BaselinePeriod = "both"
)

// Expand returns the concrete periods a reset request touches.
func (p BaselinePeriod) Expand() []BaselinePeriod {
	if p == PeriodBoth {
		return []BaselinePeriod{PeriodWeek, PeriodMonth}
	}
	return []BaselinePeriod{p}
}

// Baseline marks the start of the "added/removed since" window for one classification and period.
type Baseline struct {
	ID             string         `db:"id" json:"id"`
	District       string         `db:"district" json:"district"`
	Congregation   string         `db:"congregation" json:"congregation"`
	Classification Classification `db:"classification" json:"classification"`
	Period         BaselinePeriod `db:"period" json:"period"`
	ResetAt        time.Time      `db:"reset_at" json:"reset_at"`
	ResetBy        string         `db:"reset_by" json:"reset_by"`
}

// BaselineSource tells where a resolved baseline came from.
type BaselineSource string

const (
	BaselineSourceClassification BaselineSource = "classification"
	BaselineSourceAll            BaselineSource = "all"
	BaselineSourceRolling        BaselineSource = "rolling"
)

// ChangeSource identifies what produced a classification change.
type ChangeSource string

const (
	ChangeSourceAuto          ChangeSource = "auto"
	ChangeSourceManual        ChangeSource = "manual"
	ChangeSourceManualCleared ChangeSource = "manual_cleared"
)

// ClassificationChange is one entry of the classification change log.
type ClassificationChange struct {
	ID                 string          `db:"id" json:"id"`
	OfficerID          string          `db:"officer_id" json:"officer_id"`
	District           string          `db:"district" json:"district"`
	Congregation       string          `db:"congregation" json:"congregation"`
	FromClassification *Classification `db:"from_classification" json:"from_classification,omitempty"`
	ToClassification   *Classification `db:"to_classification" json:"to_classification,omitempty"`
	Source             ChangeSource    `db:"source" json:"source"`
	ChangedBy          string          `db:"changed_by" json:"changed_by"`
	ChangedAt          time.Time       `db:"changed_at" json:"changed_at"`
}

// ClassificationChangeFilter constrains change log listings.
type ClassificationChangeFilter struct {
	District      string
	Congregation  string
	Source        ChangeSource
	ClearedBefore *time.Time
	Page          int
	PageSize      int
}

// View names that support clear markers.
const (
	ViewTransfersOut          = "transfers_out"
	ViewClassificationChanges = "classification_changes"
)

// ViewMarker records that a report list was acknowledged up to ClearedAt.
type ViewMarker struct {
	ID           string    `db:"id" json:"id"`
	ViewName     string    `db:"view_name" json:"view_name"`
	District     string    `db:"district" json:"district"`
	Congregation string    `db:"congregation" json:"congregation"`
	ClearedAt    time.Time `db:"cleared_at" json:"cleared_at"`
	ClearedBy    string    `db:"cleared_by" json:"cleared_by"`
}

// ClassificationChangeRecord is a change log row joined with its officer's identity.
type ClassificationChangeRecord struct {
	ClassificationChange
	OfficerIdentity
}
