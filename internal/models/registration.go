package models

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the lifecycle state of a registration.
type RegistrationStatus string

const (
	RegistrationStatusPending RegistrationStatus = "pending"
	RegistrationStatusActive  RegistrationStatus = "active"
)

// PaymentStatus tracks the financial state of a registration.
type PaymentStatus string

const (
	PaymentStatusUnset   PaymentStatus = ""
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// ValidRegistrationStatus reports whether s is a known lifecycle state.
func ValidRegistrationStatus(s RegistrationStatus) bool {
	return s == RegistrationStatusPending || s == RegistrationStatusActive
}

// ValidPaymentStatus reports whether s is a known payment state.
func ValidPaymentStatus(s PaymentStatus) bool {
	return s == PaymentStatusUnset || s == PaymentStatusPending || s == PaymentStatusPaid
}

// Registration is a guardian's submission for one child, pending financial
// settlement. It transitions pending -> active at most once (settlement or
// staff direct entry), never backward. payment_status=paid implies
// status=active; the settlement path sets both in one update.
type Registration struct {
	ID                   uuid.UUID          `json:"id"`
	ParentID             *uuid.UUID         `json:"parent_id,omitempty"`
	FirstName            string             `json:"first_name"`
	LastName             string             `json:"last_name"`
	DOB                  string             `json:"dob"` // ISO date, e.g. 2015-04-02
	Gender               string             `json:"gender"`
	MedicalConditions    string             `json:"medical_conditions,omitempty"`
	BirthCertPath        string             `json:"birth_cert_path,omitempty"`
	PhotoURL             string             `json:"photo_url,omitempty"`
	WaiverSignedAt       *time.Time         `json:"waiver_signed_at,omitempty"`
	Position             string             `json:"position,omitempty"`
	JerseySize           string             `json:"jersey_size,omitempty"`
	Status               RegistrationStatus `json:"status"`
	PaymentStatus        PaymentStatus      `json:"payment_status,omitempty"`
	StripeSubscriptionID string             `json:"stripe_subscription_id,omitempty"`
	AssignedStaffID      *uuid.UUID         `json:"assigned_staff_id,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// FullName joins the child's given and family names.
func (r *Registration) FullName() string {
	return r.FirstName + " " + r.LastName
}
