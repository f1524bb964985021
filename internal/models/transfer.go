package models

import "time"

// TransferDirection marks which side of a congregation move a ledger row records.
type TransferDirection string

const (
	TransferDirectionIn  TransferDirection = "in"
	TransferDirectionOut TransferDirection = "out"
)

// Transfer is an append-only ledger row for a congregation move. The non-local side is free text.
type Transfer struct {
	ID               string            `db:"id" json:"id"`
	OfficerID        string            `db:"officer_id" json:"officer_id"`
	Direction        TransferDirection `db:"direction" json:"direction"`
	FromDistrict     string            `db:"from_district" json:"from_district"`
	FromCongregation string            `db:"from_congregation" json:"from_congregation"`
	ToDistrict       string            `db:"to_district" json:"to_district"`
	ToCongregation   string            `db:"to_congregation" json:"to_congregation"`
	Department       string            `db:"department" json:"department"`
	Duty             *string           `db:"duty" json:"duty,omitempty"`
	OathDate         *time.Time        `db:"oath_date" json:"oath_date,omitempty"`
	TransferDate     time.Time         `db:"transfer_date" json:"transfer_date"`
	Week             int               `db:"week" json:"week"`
	Year             int               `db:"year" json:"year"`
	ProcessedBy      string            `db:"processed_by" json:"processed_by"`
	Notes            *string           `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
}

// TransferFilter constrains ledger listings.
type TransferFilter struct {
	Direction     TransferDirection
	District      string
	Congregation  string
	Week          int
	Year          int
	ClearedBefore *time.Time
	Page          int
	PageSize      int
}

// WeekBucket derives the ISO (week, year) reporting bucket of a date.
func WeekBucket(date time.Time) (week int, year int) {
	year, week = date.ISOWeek()
	return week, year
}

// RemovalCode classifies why an officer was removed.
type RemovalCode string

const (
	RemovalCodeSuspension               RemovalCode = "SUSPENSION"
	RemovalCodeVoluntaryDeparture       RemovalCode = "VOLUNTARY_DEPARTURE"
	RemovalCodeAdministrativeCorrection RemovalCode = "ADMINISTRATIVE_CORRECTION"
	RemovalCodeDeceased                 RemovalCode = "DECEASED"
	RemovalCodeOther                    RemovalCode = "OTHER"
)

// Valid reports whether the code is one of the known removal codes.
func (c RemovalCode) Valid() bool {
	switch c {
	case RemovalCodeSuspension, RemovalCodeVoluntaryDeparture, RemovalCodeAdministrativeCorrection,
		RemovalCodeDeceased, RemovalCodeOther:
		return true
	}
	return false
}

// Removal is an append-only record of a removal that has no destination congregation.
type Removal struct {
	ID           string      `db:"id" json:"id"`
	OfficerID    string      `db:"officer_id" json:"officer_id"`
	DepartmentID *string     `db:"department_id" json:"department_id,omitempty"`
	Department   string      `db:"department" json:"department"`
	Duty         *string     `db:"duty" json:"duty,omitempty"`
	RemovalCode  RemovalCode `db:"removal_code" json:"removal_code"`
	Reason       string      `db:"reason" json:"reason"`
	RemovalDate  time.Time   `db:"removal_date" json:"removal_date"`
	ProcessedBy  string      `db:"processed_by" json:"processed_by"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// RemovalFilter constrains removal listings.
type RemovalFilter struct {
	District     string
	Congregation string
	Code         RemovalCode
	Page         int
	PageSize     int
}

// Headcount is the materialized active-officer total for one congregation.
type Headcount struct {
	District     string    `db:"district" json:"district"`
	Congregation string    `db:"congregation" json:"congregation"`
	TotalCount   int       `db:"total_count" json:"total_count"`
	LastUpdated  time.Time `db:"last_updated" json:"last_updated"`
}

// OfficerIdentity carries the encrypted identity columns joined onto ledger rows so listings can
// decrypt names with the officer's district key.
type OfficerIdentity struct {
	RefNo           string  `db:"ref_no" json:"-"`
	OfficerDistrict string  `db:"officer_district" json:"-"`
	LastName        string  `db:"last_name" json:"-"`
	FirstName       string  `db:"first_name" json:"-"`
	MiddleName      *string `db:"middle_name" json:"-"`
	Suffix          *string `db:"suffix" json:"-"`
}

// TransferRecord is a ledger row joined with its officer's identity.
type TransferRecord struct {
	Transfer
	OfficerIdentity
}

// RemovalRecord is a removal row joined with its officer's identity.
type RemovalRecord struct {
	Removal
	OfficerIdentity
}
