package dto

import "time"

// CreateTeamRequest payload.
type CreateTeamRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
}

// AddMemberRequest payload.
type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// TeamResponse is the public view of a team.
type TeamResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MemberIDs   []string  `json:"member_ids"`
	CreatedAt   time.Time `json:"created_at"`
}
