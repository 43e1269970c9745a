package domain

import "time"

// Equipment is a company asset that maintenance requests are raised against.
type Equipment struct {
	ID                  string
	Name                string
	SerialNumber        string
	Department          string
	Location            string
	DefaultTeamID       *string
	DefaultTechnicianID *string
	PurchaseDate        time.Time
	WarrantyExpiresOn   *time.Time
	IsScrapped          bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// UnderWarranty reports whether the warranty is still valid on the given day.
func (e *Equipment) UnderWarranty(now time.Time) bool {
	if e == nil || e.WarrantyExpiresOn == nil {
		return false
	}
	return !dateOnly(now).After(dateOnly(*e.WarrantyExpiresOn))
}

// MarkScrapped flips the scrap flag. It never reverts and reports whether it changed anything.
func (e *Equipment) MarkScrapped() bool {
	if e.IsScrapped {
		return false
	}
	e.IsScrapped = true
	return true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
