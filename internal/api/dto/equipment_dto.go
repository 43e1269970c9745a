package dto

import "time"

// CreateEquipmentRequest payload.
type CreateEquipmentRequest struct {
	Name                string     `json:"name" validate:"required,max=200"`
	SerialNumber        string     `json:"serial_number" validate:"required,max=100"`
	Department          string     `json:"department" validate:"max=120"`
	Location            string     `json:"location" validate:"max=200"`
	DefaultTeamID       *string    `json:"default_team_id" validate:"omitempty,min=1"`
	DefaultTechnicianID *string    `json:"default_technician_id" validate:"omitempty,min=1"`
	PurchaseDate        time.Time  `json:"purchase_date" validate:"required"`
	WarrantyExpiresOn   *time.Time `json:"warranty_expires_on"`
}

// EquipmentResponse is the public view of equipment.
type EquipmentResponse struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	SerialNumber        string     `json:"serial_number"`
	Department          string     `json:"department"`
	Location            string     `json:"location"`
	DefaultTeamID       *string    `json:"default_team_id"`
	DefaultTechnicianID *string    `json:"default_technician_id"`
	PurchaseDate        time.Time  `json:"purchase_date"`
	WarrantyExpiresOn   *time.Time `json:"warranty_expires_on"`
	IsScrapped          bool       `json:"is_scrapped"`
	CreatedAt           time.Time  `json:"created_at"`
}

// EquipmentDetailResponse adds derived fields to the equipment view.
type EquipmentDetailResponse struct {
	EquipmentResponse
	OpenRequestCount int                  `json:"open_request_count"`
	UnderWarranty    bool                 `json:"under_warranty"`
	RequestDefaults  RequestDefaultsBlock `json:"request_defaults"`
}

// RequestDefaultsBlock is what a new request against the equipment is pre-filled with.
type RequestDefaultsBlock struct {
	TeamID         *string `json:"team_id"`
	TeamName       string  `json:"team_name,omitempty"`
	TechnicianID   *string `json:"technician_id"`
	TechnicianName string  `json:"technician_name,omitempty"`
}
