package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/officer-registry-api/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeClassifierThresholds(t *testing.T) {
	c := NewAgeClassifier(13, 18)
	at := date(2024, time.March, 5)

	assert.Equal(t, models.ClassificationChild, c.Classify(date(2011, time.March, 6), at))
	assert.Equal(t, models.ClassificationYouth, c.Classify(date(2011, time.March, 5), at))
	assert.Equal(t, models.ClassificationYouth, c.Classify(date(2006, time.March, 6), at))
	assert.Equal(t, models.ClassificationAdult, c.Classify(date(2006, time.March, 5), at))
	assert.Nil(t, c.ClassifyPtr(nil, at))
}

func TestAgeClassifierLeapDay(t *testing.T) {
	c := NewAgeClassifier(13, 18)
	born := date(2008, time.February, 29)

	assert.Equal(t, date(2026, time.March, 1), c.AdultOn(born))
	assert.Equal(t, models.ClassificationYouth, c.Classify(born, date(2026, time.February, 28)))
	assert.Equal(t, models.ClassificationAdult, c.Classify(born, date(2026, time.March, 1)))
}

func TestNewAgeClassifierRejectsInvertedThresholds(t *testing.T) {
	c := NewAgeClassifier(20, 10)
	assert.Equal(t, DefaultYouthMinAge, c.YouthMinAge)
	assert.Equal(t, DefaultAdultMinAge, c.AdultMinAge)
}
