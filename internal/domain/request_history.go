package domain

import "time"

// RequestChangeType captures what changed in a history entry.
type RequestChangeType string

const (
	ChangeTypeCreated    RequestChangeType = "CREATED"
	ChangeTypeStatus     RequestChangeType = "STATUS_CHANGE"
	ChangeTypeTechnician RequestChangeType = "TECHNICIAN_CHANGE"
)

// RequestHistory is an immutable audit trail entry.
type RequestHistory struct {
	ID          string
	RequestID   string
	ChangedByID *string
	ChangeType  RequestChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}
