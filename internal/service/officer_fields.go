package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	"github.com/noah-isme/officer-registry-api/internal/repository"
	"github.com/noah-isme/officer-registry-api/pkg/cipher"
	appErrors "github.com/noah-isme/officer-registry-api/pkg/errors"
)

// UnavailablePlaceholder replaces an encrypted display field that could not be decrypted.
const UnavailablePlaceholder = "[unavailable]"

// Display field names reported in unavailable_fields.
const (
	fieldLastName       = "last_name"
	fieldFirstName      = "first_name"
	fieldMiddleName     = "middle_name"
	fieldSuffix         = "suffix"
	fieldBirthdate      = "birthdate"
	fieldControlNumber  = "control_number"
	fieldRegistryNumber = "registry_number"
)

// newRefNo returns an externally shareable officer reference.
func newRefNo() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "OFC-" + raw[:12]
}

func parseDate(value, field string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dto.DateLayout, value)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, field+" must be formatted as YYYY-MM-DD")
	}
	return &parsed, nil
}

func optionalText(value string) *string {
	value = cipher.NormalizeText(value)
	if value == "" {
		return nil
	}
	return &value
}

// sealer encrypts normalized officer fields with one district key.
type sealer struct {
	cipher   cipher.FieldCipher
	district string
	err      error
}

func (s *sealer) seal(value string) string {
	if s.err != nil || value == "" {
		return ""
	}
	out, err := s.cipher.Encrypt(value, s.district)
	if err != nil {
		s.err = err
		return ""
	}
	return out
}

func (s *sealer) sealOptional(value string) *string {
	out := s.seal(value)
	if out == "" {
		return nil
	}
	return &out
}

// sealOfficer builds a new officer row from plaintext fields. Names are NFC-normalized and
// numbers NFKC-folded before encryption so exact-match lookups stay stable.
func sealOfficer(c cipher.FieldCipher, fields dto.OfficerFields, scope models.Scope) (*models.Officer, error) {
	s := &sealer{cipher: c, district: scope.District}
	officer := &models.Officer{
		ID:             uuid.NewString(),
		RefNo:          newRefNo(),
		District:       scope.District,
		Congregation:   scope.Congregation,
		Purok:          optionalText(fields.Purok),
		Grupo:          optionalText(fields.Grupo),
		LastName:       s.seal(cipher.NormalizeText(fields.LastName)),
		FirstName:      s.seal(cipher.NormalizeText(fields.FirstName)),
		MiddleName:     s.sealOptional(cipher.NormalizeText(fields.MiddleName)),
		Suffix:         s.sealOptional(cipher.NormalizeText(fields.Suffix)),
		Birthdate:      s.sealOptional(strings.TrimSpace(fields.Birthdate)),
		ControlNumber:  s.sealOptional(cipher.NormalizeNumber(fields.ControlNumber)),
		RegistryNumber: s.sealOptional(cipher.NormalizeNumber(fields.RegistryNumber)),
	}
	if s.err != nil {
		return nil, appErrors.Wrap(s.err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encrypt officer fields")
	}
	if officer.LastName == "" || officer.FirstName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "first and last name are required")
	}
	return officer, nil
}

// opener decrypts display fields, masking failures instead of failing the whole record.
type opener struct {
	cipher      cipher.FieldCipher
	district    string
	recordID    string
	logger      *zap.Logger
	metrics     *MetricsService
	unavailable []string
}

func (o *opener) open(field, ciphertext string) string {
	plain, err := o.cipher.Decrypt(ciphertext, o.district)
	if err == nil {
		return plain
	}
	if !errors.Is(err, cipher.ErrDecryptionFailure) {
		o.logger.Error("field decrypt error", zap.String("record_id", o.recordID), zap.String("field", field), zap.Error(err))
	} else {
		o.logger.Warn("field unavailable", zap.String("record_id", o.recordID), zap.String("field", field), zap.String("district", o.district))
	}
	o.metrics.RecordDecryptionFailure(field)
	o.unavailable = append(o.unavailable, field)
	return UnavailablePlaceholder
}

func (o *opener) openOptional(field string, ciphertext *string) string {
	if ciphertext == nil {
		return ""
	}
	return o.open(field, *ciphertext)
}

type nameParts struct {
	last, first, middle, suffix string
}

func (n nameParts) full() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{n.first, n.middle, n.last, n.suffix} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (o *opener) name(last, first string, middle, suffix *string) nameParts {
	return nameParts{
		last:   o.open(fieldLastName, last),
		first:  o.open(fieldFirstName, first),
		middle: o.openOptional(fieldMiddleName, middle),
		suffix: o.openOptional(fieldSuffix, suffix),
	}
}

// displayIdentity decrypts the officer name joined onto a ledger row.
func displayIdentity(c cipher.FieldCipher, logger *zap.Logger, metrics *MetricsService, recordID string, identity models.OfficerIdentity) (string, []string) {
	o := &opener{cipher: c, district: identity.OfficerDistrict, recordID: recordID, logger: logger, metrics: metrics}
	name := o.name(identity.LastName, identity.FirstName, identity.MiddleName, identity.Suffix)
	return name.full(), o.unavailable
}

// displayOfficer decrypts an officer row for API responses.
func displayOfficer(c cipher.FieldCipher, logger *zap.Logger, metrics *MetricsService, officer *models.Officer, assignments []models.DepartmentAssignment) *dto.OfficerView {
	o := &opener{cipher: c, district: officer.District, recordID: officer.ID, logger: logger, metrics: metrics}
	name := o.name(officer.LastName, officer.FirstName, officer.MiddleName, officer.Suffix)
	view := &dto.OfficerView{
		ID:                      officer.ID,
		RefNo:                   officer.RefNo,
		District:                officer.District,
		Congregation:            officer.Congregation,
		Purok:                   officer.Purok,
		Grupo:                   officer.Grupo,
		LastName:                name.last,
		FirstName:               name.first,
		MiddleName:              name.middle,
		Suffix:                  name.suffix,
		FullName:                name.full(),
		Birthdate:               o.openOptional(fieldBirthdate, officer.Birthdate),
		ControlNumber:           o.openOptional(fieldControlNumber, officer.ControlNumber),
		RegistryNumber:          o.openOptional(fieldRegistryNumber, officer.RegistryNumber),
		IsActive:                officer.IsActive,
		Status:                  officer.Status,
		ClassificationAuto:      officer.ClassificationAuto,
		ClassificationManual:    officer.ClassificationManual,
		EffectiveClassification: officer.EffectiveClassification(),
		Assignments:             assignments,
		CreatedAt:               officer.CreatedAt,
		UpdatedAt:               officer.UpdatedAt,
		DeactivatedAt:           officer.DeactivatedAt,
		UnavailableFields:       o.unavailable,
	}
	return view
}

// mapStoreError translates repository sentinels into the application error taxonomy.
func mapStoreError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, repository.ErrOfficerNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "officer not found")
	case errors.Is(err, repository.ErrAssignmentNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "active department assignment not found")
	case errors.Is(err, repository.ErrOfficerInactive):
		return appErrors.Wrap(err, appErrors.ErrConsistencyViolation.Code, appErrors.ErrConsistencyViolation.Status, "officer is not active")
	case errors.Is(err, repository.ErrScopeMismatch):
		return appErrors.Wrap(err, appErrors.ErrConsistencyViolation.Code, appErrors.ErrConsistencyViolation.Status, "officer scope changed or does not match")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Wrap(err, appErrors.ErrConsistencyViolation.Code, appErrors.ErrConsistencyViolation.Status, "record already exists")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return appErrors.Storage(err, "request cancelled before the write committed")
	}
	return appErrors.Storage(err, message)
}

// newAuditEntry prepares an audit entry carrying the request's client metadata.
func newAuditEntry(ctx context.Context, actor *models.JWTClaims, action, table, recordID string) *models.AuditEntry {
	return &models.AuditEntry{
		Actor:      actorID(actor),
		Action:     action,
		TableName:  table,
		RecordID:   recordID,
		ClientMeta: models.ClientMetaFrom(ctx).JSONText(),
	}
}

func actorID(actor *models.JWTClaims) string {
	if actor == nil {
		return "system"
	}
	return actor.UserID
}

// openBirthdate decrypts and parses the stored birthdate. A missing birthdate yields nil; any
// failure is logged, counted and reported as ErrDecryptionFailure.
func openBirthdate(c cipher.FieldCipher, logger *zap.Logger, metrics *MetricsService, officer *models.Officer) (*time.Time, error) {
	if officer.Birthdate == nil || *officer.Birthdate == "" {
		return nil, nil
	}
	plain, err := c.Decrypt(*officer.Birthdate, officer.District)
	if err == nil {
		var parsed time.Time
		if parsed, err = time.Parse(dto.DateLayout, plain); err == nil {
			return &parsed, nil
		}
	}
	logger.Warn("field unavailable", zap.String("record_id", officer.ID), zap.String("field", fieldBirthdate), zap.String("district", officer.District))
	metrics.RecordDecryptionFailure(fieldBirthdate)
	if errors.Is(err, cipher.ErrDecryptionFailure) {
		return nil, err
	}
	return nil, errors.Join(cipher.ErrDecryptionFailure, err)
}
