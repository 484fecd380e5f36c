// Package calendar builds warranty expiration reminders and encodes
// them as iCalendar documents.
package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coverly/warranty-desk/internal/sanitize"
)

// WarrantyInput describes one covered product and its coverage window.
type WarrantyInput struct {
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Retailer       string    `json:"retailer"`
	PurchaseDate   time.Time `json:"purchase_date"`
	WarrantyMonths int       `json:"warranty_months"`
}

// ExpirationEvent is the computed reminder: a one-hour event on the
// day the warranty lapses, carrying a stable UID for re-imports.
type ExpirationEvent struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
}

var (
	ErrMissingProduct  = errors.New("calendar: product name is required")
	ErrInvalidCoverage = errors.New("calendar: warranty months must be positive")
)

// AddMonthsClamped adds months to t without the normalization overflow
// of time.AddDate: when the source day does not exist in the target
// month, the result clamps to that month's last day. The clock and
// location are preserved.
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	m := int(month) - 1 + months
	y := year + m/12
	m %= 12
	if m < 0 {
		m += 12
		y--
	}
	target := time.Month(m + 1)
	if last := daysIn(y, target); day > last {
		day = last
	}
	hour, min, sec := t.Clock()
	return time.Date(y, target, day, hour, min, sec, t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month. Day zero of
// the following month normalizes to the last day of this one.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// BuildExpirationEvent computes the expiration reminder for one
// warranty. The purchase date anchors the coverage window; the event
// lands on the clamped expiration day.
func BuildExpirationEvent(in WarrantyInput) (ExpirationEvent, error) {
	name := sanitize.Clean(in.ProductName)
	if name == "" {
		return ExpirationEvent{}, ErrMissingProduct
	}
	if in.WarrantyMonths <= 0 {
		return ExpirationEvent{}, ErrInvalidCoverage
	}

	expires := AddMonthsClamped(in.PurchaseDate, in.WarrantyMonths)

	desc := fmt.Sprintf("The warranty for %s expires on %s.",
		name, expires.Format("2006-01-02"))
	if retailer := sanitize.Clean(in.Retailer); retailer != "" {
		desc += fmt.Sprintf(" Purchased from %s on %s.",
			retailer, in.PurchaseDate.Format("2006-01-02"))
	}
	desc += " Review the product condition and file any claims before coverage ends."

	return ExpirationEvent{
		UID:         uuid.NewString() + "@coverly",
		Summary:     "Warranty expires: " + name,
		Description: desc,
		Start:       expires,
	}, nil
}
