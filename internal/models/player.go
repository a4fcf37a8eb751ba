package models

import (
	"time"

	"github.com/google/uuid"
)

// Defaults applied when a player is derived from a settled registration.
const (
	DefaultPosition     = "TBD"
	DefaultTeam         = "Unassigned"
	DefaultJerseyNumber = "-"
)

// Player is the canonical roster record for a child once payment clears,
// decoupled from the intake submission that produced it. RegistrationID
// points back to the source registration and carries a unique constraint so
// settlement replays cannot materialize the same child twice.
type Player struct {
	ID                uuid.UUID  `json:"id"`
	ParentID          *uuid.UUID `json:"parent_id,omitempty"`
	RegistrationID    *uuid.UUID `json:"registration_id,omitempty"`
	FullName          string     `json:"full_name"`
	DateOfBirth       string     `json:"date_of_birth"`
	Gender            string     `json:"gender"`
	Position          string     `json:"position"`
	JerseySize        string     `json:"jersey_size,omitempty"`
	JerseyNumber      string     `json:"jersey_number,omitempty"`
	MedicalConditions string     `json:"medical_conditions,omitempty"`
	TeamAssigned      string     `json:"team_assigned"`
	CoachID           *uuid.UUID `json:"coach_id,omitempty"`
	PhotoURL          string     `json:"photo_url,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// PlayerFromRegistration derives a roster record from an activated
// registration, applying roster defaults where the intake left fields blank.
func PlayerFromRegistration(reg *Registration) *Player {
	position := reg.Position
	if position == "" {
		position = DefaultPosition
	}
	regID := reg.ID
	return &Player{
		ParentID:          reg.ParentID,
		RegistrationID:    &regID,
		FullName:          reg.FullName(),
		DateOfBirth:       reg.DOB,
		Gender:            reg.Gender,
		Position:          position,
		JerseySize:        reg.JerseySize,
		JerseyNumber:      DefaultJerseyNumber,
		MedicalConditions: reg.MedicalConditions,
		TeamAssigned:      DefaultTeam,
		PhotoURL:          reg.PhotoURL,
	}
}
