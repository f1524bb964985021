package service

import (
	"time"

	"github.com/noah-isme/officer-registry-api/internal/models"
)

// Default cohort thresholds in completed years.
const (
	DefaultYouthMinAge = 13
	DefaultAdultMinAge = 18
)

// AgeClassifier maps a birthdate to a cohort label using two age thresholds.
type AgeClassifier struct {
	YouthMinAge int
	AdultMinAge int
}

// NewAgeClassifier validates thresholds and falls back to the defaults when they are unusable.
func NewAgeClassifier(youthMinAge, adultMinAge int) AgeClassifier {
	if youthMinAge <= 0 || adultMinAge <= youthMinAge {
		return AgeClassifier{YouthMinAge: DefaultYouthMinAge, AdultMinAge: DefaultAdultMinAge}
	}
	return AgeClassifier{YouthMinAge: youthMinAge, AdultMinAge: adultMinAge}
}

// Classify returns the label for someone born on birthdate, evaluated at the given instant.
func (c AgeClassifier) Classify(birthdate, at time.Time) models.Classification {
	day := dateOf(at)
	switch {
	case !day.Before(c.AdultOn(birthdate)):
		return models.ClassificationAdult
	case !day.Before(dateOf(birthdate).AddDate(c.YouthMinAge, 0, 0)):
		return models.ClassificationYouth
	default:
		return models.ClassificationChild
	}
}

// ClassifyPtr is Classify for optional birthdates; no birthdate yields no label.
func (c AgeClassifier) ClassifyPtr(birthdate *time.Time, at time.Time) *models.Classification {
	if birthdate == nil {
		return nil
	}
	label := c.Classify(*birthdate, at)
	return &label
}

// AdultOn is the calendar day the adult threshold is reached. A 29 February birthday rolls to
// 1 March in non-leap years.
func (c AgeClassifier) AdultOn(birthdate time.Time) time.Time {
	return dateOf(birthdate).AddDate(c.AdultMinAge, 0, 0)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
