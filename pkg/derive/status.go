// Package derive recomputes dependent form values (expiry statuses and
// translation shadows of option-backed fields) whenever a source field
// changes. It only reads and returns form values; it never performs I/O.
package derive

import (
	"time"

	"github.com/goliatone/go-fleetform/pkg/model"
	"github.com/goliatone/go-fleetform/pkg/validation"
)

// DefaultThresholdDays is the about-to-expire window used when none is
// configured.
const DefaultThresholdDays = 30

// ExpiryStatus classifies an expiry date relative to now:
// absent or unparsable dates are Valid, dates before today are Expired,
// dates within thresholdDays of today (inclusive) are AboutToExpire.
func ExpiryStatus(date any, now time.Time, thresholdDays int) model.ExpiryStatus {
	if model.IsEmpty(date) {
		return model.StatusValid
	}
	today := validation.StartOfDay(now)
	expiry, err := validation.ParseDate(date, today.Location())
	if err != nil {
		return model.StatusValid
	}
	if thresholdDays < 0 {
		thresholdDays = DefaultThresholdDays
	}
	switch {
	case expiry.Before(today):
		return model.StatusExpired
	case !expiry.After(today.AddDate(0, 0, thresholdDays)):
		return model.StatusAboutToExpire
	default:
		return model.StatusValid
	}
}
