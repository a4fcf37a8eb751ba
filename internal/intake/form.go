// Package intake models the player registration wizard as an explicit state
// machine: an immutable step-indexed form with pure transition functions and
// per-step validity predicates. The same predicates gate client progression
// and server-side submission validation, so the create-checkout boundary
// never trusts client-side gating alone.
package intake

import (
	"errors"
	"strings"
	"time"
)

// Step is a wizard step, ordered.
type Step int

const (
	StepIdentity  Step = iota + 1 // given/family name, date of birth
	StepDocuments                 // birth certificate and photo uploads
	StepWaiver                    // liability waiver checkbox + typed signature
	StepReview                    // read-only summary; its action submits
)

const dateLayout = "2006-01-02"

var (
	ErrStepInvalid = errors.New("current step is incomplete")
	ErrAtFirstStep = errors.New("already at the first step")
	ErrAtLastStep  = errors.New("already at the last step")
)

// Form is the wizard state. It is a value: transition methods return a new
// Form and never mutate the receiver.
type Form struct {
	Step Step

	FirstName         string
	LastName          string
	DOB               string
	Gender            string
	MedicalConditions string

	BirthCertPath string
	PhotoURL      string

	WaiverSignedAt *time.Time
	Signature      string
}

// NewForm returns an empty form positioned at the identity step.
func NewForm() Form {
	return Form{Step: StepIdentity, Gender: "Male"}
}

// Next advances to the following step when the current step's gate passes.
func (f Form) Next() (Form, error) {
	if f.Step >= StepReview {
		return f, ErrAtLastStep
	}
	if !f.StepValid(f.Step) {
		return f, ErrStepInvalid
	}
	f.Step++
	return f, nil
}

// Back returns to the previous step. No validity gate applies going backward.
func (f Form) Back() (Form, error) {
	if f.Step <= StepIdentity {
		return f, ErrAtFirstStep
	}
	f.Step--
	return f, nil
}

// AttachPhoto records the public URL of an already-uploaded photo. The
// upload itself happens before this transition; a failed upload leaves the
// field unset and the documents gate closed.
func (f Form) AttachPhoto(url string) Form {
	f.PhotoURL = url
	return f
}

// AttachDocument records the storage path of an uploaded birth certificate.
func (f Form) AttachDocument(path string) Form {
	f.BirthCertPath = path
	return f
}

// SignWaiver stamps the waiver acceptance at now with the typed signature.
func (f Form) SignWaiver(signature string, now time.Time) Form {
	f.Signature = signature
	f.WaiverSignedAt = &now
	return f
}

// ClearWaiver unchecks the waiver, clearing the acceptance timestamp.
func (f Form) ClearWaiver() Form {
	f.WaiverSignedAt = nil
	return f
}

// StepValid reports whether the gate for the given step passes.
func (f Form) StepValid(step Step) bool {
	switch step {
	case StepIdentity:
		return f.FirstName != "" && f.LastName != "" && f.DOB != ""
	case StepDocuments:
		return f.BirthCertPath != "" && f.PhotoURL != ""
	case StepWaiver:
		return f.WaiverSignedAt != nil && strings.TrimSpace(f.Signature) != ""
	case StepReview:
		return true
	}
	return false
}

// Complete reports whether every gated step passes, i.e. the form is
// submittable from the review step.
func (f Form) Complete() bool {
	return f.StepValid(StepIdentity) && f.StepValid(StepDocuments) && f.StepValid(StepWaiver)
}

// Submission is the payload shape a finished wizard produces, as accepted by
// the create-checkout-session boundary.
type Submission struct {
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	DOB               string     `json:"dob"`
	Gender            string     `json:"gender"`
	MedicalConditions string     `json:"medical_conditions"`
	BirthCertPath     string     `json:"birth_cert_path"`
	PhotoURL          string     `json:"photo_url"`
	WaiverSignedAt    *time.Time `json:"waiver_signed_at"`
	Signature         string     `json:"signature"`
	Position          string     `json:"position"`
	JerseySize        string     `json:"jersey_size"`
}

// Submission packages the form's collected fields for submission.
func (f Form) Submission() Submission {
	return Submission{
		FirstName:         f.FirstName,
		LastName:          f.LastName,
		DOB:               f.DOB,
		Gender:            f.Gender,
		MedicalConditions: f.MedicalConditions,
		BirthCertPath:     f.BirthCertPath,
		PhotoURL:          f.PhotoURL,
		WaiverSignedAt:    f.WaiverSignedAt,
		Signature:         f.Signature,
	}
}

// Validate checks a submitted payload server-side. Identity fields are
// mandatory and must be well-formed; document and waiver fields are shaped
// but optional at the boundary (upload policy has varied across club
// seasons, and staff-assisted submissions may not carry them).
func Validate(s Submission) map[string]string {
	problems := make(map[string]string)
	if s.FirstName == "" {
		problems["first_name"] = "required"
	}
	if s.LastName == "" {
		problems["last_name"] = "required"
	}
	if s.DOB == "" {
		problems["dob"] = "required"
	} else if !validDate(s.DOB) {
		problems["dob"] = "must be a date in YYYY-MM-DD form"
	}
	if s.Gender != "" && s.Gender != "Male" && s.Gender != "Female" {
		problems["gender"] = "must be Male or Female"
	}
	if s.WaiverSignedAt != nil && strings.TrimSpace(s.Signature) == "" {
		problems["signature"] = "typed signature required with an accepted waiver"
	}
	return problems
}

func validDate(s string) bool {
	if s == "" {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
