package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
	"github.com/noah-isme/officer-registry-api/pkg/export"
)

const exportPageSize = 100

type headcountReaderService interface {
	Get(ctx context.Context, actor *models.JWTClaims, scope models.Scope) (*models.Headcount, error)
	ListByDistrict(ctx context.Context, actor *models.JWTClaims, district string) ([]models.Headcount, error)
}

type transferReaderService interface {
	ListTransfers(ctx context.Context, actor *models.JWTClaims, query dto.TransferListQuery) ([]dto.TransferView, *models.Pagination, error)
}

// ExportService renders headcount and ledger reports as downloadable documents. It reads through
// the headcount and ledger services so scope checks and name masking stay identical to the JSON
// endpoints.
type ExportService struct {
	headcount headcountReaderService
	ledger    transferReaderService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(headcount headcountReaderService, ledger transferReaderService, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ExportService{
		headcount: headcount,
		ledger:    ledger,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Headcount exports one congregation's counter, or every counter of the district when no
// congregation is given.
func (s *ExportService) Headcount(ctx context.Context, actor *models.JWTClaims, query dto.ExportQuery) (*export.Document, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query")
	}
	scope := ResolveScope(actor, models.Scope{District: query.District, Congregation: query.Congregation})

	var rows []models.Headcount
	if scope.Congregation != "" {
		row, err := s.headcount.Get(ctx, actor, scope)
		if err != nil {
			return nil, err
		}
		rows = []models.Headcount{*row}
	} else {
		list, err := s.headcount.ListByDistrict(ctx, actor, scope.District)
		if err != nil {
			return nil, err
		}
		rows = list
	}

	dataset := export.Dataset{
		Title:   "Headcount " + scope.District,
		Headers: []string{"District", "Congregation", "Active Officers", "Last Updated"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"District":        row.District,
			"Congregation":    row.Congregation,
			"Active Officers": strconv.Itoa(row.TotalCount),
			"Last Updated":    formatReportTime(row.LastUpdated),
		})
	}
	return s.render(export.Format(query.Format), dataset, "headcount", scope)
}

// Transfers exports the ledger rows matching the query, following every page.
func (s *ExportService) Transfers(ctx context.Context, actor *models.JWTClaims, query dto.ExportQuery) (*export.Document, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query")
	}
	listQuery := dto.TransferListQuery{
		PageQuery:    dto.PageQuery{Page: 1, PageSize: exportPageSize},
		Direction:    query.Direction,
		District:     query.District,
		Congregation: query.Congregation,
		Week:         query.Week,
		Year:         query.Year,
	}
	var views []dto.TransferView
	for {
		page, pagination, err := s.ledger.ListTransfers(ctx, actor, listQuery)
		if err != nil {
			return nil, err
		}
		views = append(views, page...)
		if len(page) == 0 || pagination == nil || len(views) >= pagination.TotalCount {
			break
		}
		listQuery.Page++
	}

	dataset := export.Dataset{
		Title: transfersTitle(query),
		Headers: []string{"Ref No", "Officer", "Direction", "From", "To", "Department", "Duty",
			"Transfer Date", "Week", "Year"},
		Rows: make([]map[string]string, 0, len(views)),
	}
	for _, view := range views {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Ref No":        view.RefNo,
			"Officer":       view.OfficerName,
			"Direction":     string(view.Direction),
			"From":          joinScope(view.FromDistrict, view.FromCongregation),
			"To":            joinScope(view.ToDistrict, view.ToCongregation),
			"Department":    view.Department,
			"Duty":          deref(view.Duty),
			"Transfer Date": view.TransferDate.Format(dto.DateLayout),
			"Week":          strconv.Itoa(view.Week),
			"Year":          strconv.Itoa(view.Year),
		})
	}
	scope := ResolveScope(actor, models.Scope{District: query.District, Congregation: query.Congregation})
	return s.render(export.Format(query.Format), dataset, "transfers", scope)
}

func (s *ExportService) render(format export.Format, dataset export.Dataset, kind string, scope models.Scope) (*export.Document, error) {
	if format == "" {
		format = export.FormatCSV
	}
	renderer, err := export.RendererFor(format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("export rendered",
		zap.String("kind", kind),
		zap.String("format", string(format)),
		zap.String("district", scope.District),
		zap.String("congregation", scope.Congregation),
		zap.Int("rows", len(dataset.Rows)),
	)
	return &export.Document{
		Filename:    buildFilename(kind, scope, format, s.now()),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

func transfersTitle(query dto.ExportQuery) string {
	title := "Transfers"
	if query.Direction != "" {
		title += " " + query.Direction
	}
	if query.Week > 0 && query.Year > 0 {
		title += fmt.Sprintf(" week %d %d", query.Week, query.Year)
	}
	return title
}

func buildFilename(kind string, scope models.Scope, format export.Format, at time.Time) string {
	parts := []string{kind, sanitizeFilename(scope.District)}
	if scope.Congregation != "" {
		parts = append(parts, sanitizeFilename(scope.Congregation))
	}
	parts = append(parts, at.Format("20060102_150405"))
	return strings.Join(parts, "_") + "." + string(format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func joinScope(district, congregation string) string {
	switch {
	case district == "":
		return congregation
	case congregation == "":
		return district
	}
	return district + " / " + congregation
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatReportTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
