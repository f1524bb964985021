package models

import "time"

// OfficerStatus captures the lifecycle state of an officer row.
type OfficerStatus string

const (
	OfficerStatusActive         OfficerStatus = "ACTIVE"
	OfficerStatusTransferredOut OfficerStatus = "TRANSFERRED_OUT"
	OfficerStatusRemoved        OfficerStatus = "REMOVED"
)

// Officer is the canonical officer row. Name parts, numbers and birthdate hold ciphertext
// produced by the district field cipher.
type Officer struct {
	ID                   string          `db:"id" json:"id"`
	RefNo                string          `db:"ref_no" json:"ref_no"`
	District             string          `db:"district" json:"district"`
	Congregation         string          `db:"congregation" json:"congregation"`
	Purok                *string         `db:"purok" json:"purok,omitempty"`
	Grupo                *string         `db:"grupo" json:"grupo,omitempty"`
	ControlNumber        *string         `db:"control_number" json:"control_number,omitempty"`
	RegistryNumber       *string         `db:"registry_number" json:"registry_number,omitempty"`
	LastName             string          `db:"last_name" json:"last_name"`
	FirstName            string          `db:"first_name" json:"first_name"`
	MiddleName           *string         `db:"middle_name" json:"middle_name,omitempty"`
	Suffix               *string         `db:"suffix" json:"suffix,omitempty"`
	Birthdate            *string         `db:"birthdate" json:"birthdate,omitempty"`
	IsActive             bool            `db:"is_active" json:"is_active"`
	Status               OfficerStatus   `db:"status" json:"status"`
	ClassificationAuto   *Classification `db:"classification_auto" json:"classification_auto,omitempty"`
	ClassificationManual *Classification `db:"classification_manual" json:"classification_manual,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
	DeactivatedAt        *time.Time      `db:"deactivated_at" json:"deactivated_at,omitempty"`
}

// EffectiveClassification returns the manual override when present, otherwise the computed label.
func (o *Officer) EffectiveClassification() *Classification {
	if o == nil {
		return nil
	}
	if o.ClassificationManual != nil {
		return o.ClassificationManual
	}
	return o.ClassificationAuto
}

// Scope returns the congregation the officer belongs to.
func (o *Officer) Scope() Scope {
	return Scope{District: o.District, Congregation: o.Congregation}
}

// DepartmentAssignment is one duty an officer holds or held.
type DepartmentAssignment struct {
	ID         string     `db:"id" json:"id"`
	OfficerID  string     `db:"officer_id" json:"officer_id"`
	Department string     `db:"department" json:"department"`
	Duty       *string    `db:"duty" json:"duty,omitempty"`
	OathDate   *time.Time `db:"oath_date" json:"oath_date,omitempty"`
	IsActive   bool       `db:"is_active" json:"is_active"`
	RemovedAt  *time.Time `db:"removed_at" json:"removed_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// OfficerFilter constrains officer listings.
type OfficerFilter struct {
	District     string
	Congregation string
	Status       OfficerStatus
	Purok        string
	Grupo        string
	Page         int
	PageSize     int
}

// DepartmentSnapshot is the department/duty state captured when an officer is deactivated.
type DepartmentSnapshot struct {
	Assignments []DepartmentAssignment `json:"assignments"`
}

// Primary returns the earliest active assignment, or nil when the officer held none.
func (s DepartmentSnapshot) Primary() *DepartmentAssignment {
	if len(s.Assignments) == 0 {
		return nil
	}
	return &s.Assignments[0]
}

// Departments joins department names in assignment order.
func (s DepartmentSnapshot) Departments() string {
	return joinNonEmpty(s.Assignments, func(a DepartmentAssignment) string { return a.Department })
}

// Duties joins duty texts in assignment order; nil when no assignment carried one.
func (s DepartmentSnapshot) Duties() *string {
	joined := joinNonEmpty(s.Assignments, func(a DepartmentAssignment) string {
		if a.Duty == nil {
			return ""
		}
		return *a.Duty
	})
	if joined == "" {
		return nil
	}
	return &joined
}

func joinNonEmpty(items []DepartmentAssignment, pick func(DepartmentAssignment) string) string {
	out := ""
	for _, item := range items {
		value := pick(item)
		if value == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += value
	}
	return out
}
