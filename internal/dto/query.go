package dto

// PageQuery carries pagination parameters shared by list endpoints.
type PageQuery struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// OfficerListQuery filters officer listings.
type OfficerListQuery struct {
	PageQuery
	District     string `form:"district"`
	Congregation string `form:"congregation"`
	Status       string `form:"status" validate:"omitempty,oneof=ACTIVE TRANSFERRED_OUT REMOVED"`
	Purok        string `form:"purok"`
	Grupo        string `form:"grupo"`
}

// TransferListQuery filters the transfer ledger.
type TransferListQuery struct {
	PageQuery
	Direction      string `form:"direction" validate:"omitempty,oneof=in out"`
	District       string `form:"district"`
	Congregation   string `form:"congregation"`
	Week           int    `form:"week" validate:"omitempty,min=1,max=53"`
	Year           int    `form:"year" validate:"omitempty,min=1900,max=9999"`
	IncludeCleared bool   `form:"include_cleared"`
}

// RemovalListQuery filters removal records.
type RemovalListQuery struct {
	PageQuery
	District     string `form:"district"`
	Congregation string `form:"congregation"`
	Code         string `form:"code" validate:"omitempty,oneof=SUSPENSION VOLUNTARY_DEPARTURE ADMINISTRATIVE_CORRECTION DECEASED OTHER"`
}

// ClassificationChangeQuery filters the classification change log.
type ClassificationChangeQuery struct {
	PageQuery
	District       string `form:"district"`
	Congregation   string `form:"congregation"`
	Source         string `form:"source" validate:"omitempty,oneof=auto manual manual_cleared"`
	IncludeCleared bool   `form:"include_cleared"`
}

// AuditListQuery filters the audit trail.
type AuditListQuery struct {
	PageQuery
	TableName string `form:"table"`
	RecordID  string `form:"recordId"`
	Actor     string `form:"actor"`
	Action    string `form:"action"`
}

// UpcomingAdultsQuery selects the upcoming adults window.
type UpcomingAdultsQuery struct {
	District     string `form:"district" validate:"required"`
	Congregation string `form:"congregation" validate:"required"`
	WithinDays   int    `form:"withinDays" validate:"omitempty,min=1,max=3660"`
}

// ExportQuery selects an export format and scope.
type ExportQuery struct {
	Format       string `form:"format" validate:"omitempty,oneof=csv pdf xlsx"`
	District     string `form:"district"`
	Congregation string `form:"congregation"`
	Direction    string `form:"direction" validate:"omitempty,oneof=in out"`
	Week         int    `form:"week" validate:"omitempty,min=1,max=53"`
	Year         int    `form:"year" validate:"omitempty,min=1900,max=9999"`
}
