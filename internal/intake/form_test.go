package intake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type FormSuite struct {
	suite.Suite
}

func TestFormSuite(t *testing.T) {
	suite.Run(t, new(FormSuite))
}

func (s *FormSuite) filledIdentity() Form {
	f := NewForm()
	f.FirstName = "Ama"
	f.LastName = "Owusu"
	f.DOB = "2015-04-02"
	return f
}

func (s *FormSuite) TestNewFormStartsAtIdentity() {
	f := NewForm()
	s.Equal(StepIdentity, f.Step)
	s.Equal("Male", f.Gender)
}

func (s *FormSuite) TestNextBlockedOnEmptyIdentity() {
	f := NewForm()
	_, err := f.Next()
	s.ErrorIs(err, ErrStepInvalid)
	s.Equal(StepIdentity, f.Step)
}

func (s *FormSuite) TestIdentityGateRequiresOnlyNonEmptyFields() {
	f := s.filledIdentity()
	s.True(f.StepValid(StepIdentity))

	f.DOB = ""
	s.False(f.StepValid(StepIdentity))
}

func (s *FormSuite) TestNextAdvancesWhenGatePasses() {
	f := s.filledIdentity()
	next, err := f.Next()
	s.Require().NoError(err)
	s.Equal(StepDocuments, next.Step)
	// the receiver is untouched
	s.Equal(StepIdentity, f.Step)
}

func (s *FormSuite) TestDocumentsGateNeedsBothUploads() {
	f := s.filledIdentity()
	f.Step = StepDocuments
	s.False(f.StepValid(StepDocuments))

	f = f.AttachDocument("birth_certificates/p1/cert.pdf")
	s.False(f.StepValid(StepDocuments))

	f = f.AttachPhoto("https://photos.example.com/players/ama.jpg")
	s.True(f.StepValid(StepDocuments))
}

func (s *FormSuite) TestWaiverGateNeedsTimestampAndSignature() {
	f := s.filledIdentity()
	f.Step = StepWaiver
	s.False(f.StepValid(StepWaiver))

	f = f.SignWaiver("Kwame Owusu", time.Now())
	s.True(f.StepValid(StepWaiver))

	f = f.ClearWaiver()
	s.False(f.StepValid(StepWaiver))
}

func (s *FormSuite) TestWaiverSignatureMustNotBeBlank() {
	f := s.filledIdentity()
	f = f.SignWaiver("   ", time.Now())
	s.False(f.StepValid(StepWaiver))
}

func (s *FormSuite) TestBackFromFirstStepFails() {
	f := NewForm()
	_, err := f.Back()
	s.ErrorIs(err, ErrAtFirstStep)
}

func (s *FormSuite) TestNextFromReviewFails() {
	f := s.filledIdentity()
	f.Step = StepReview
	_, err := f.Next()
	s.ErrorIs(err, ErrAtLastStep)
}

func (s *FormSuite) TestBackRequiresNoGate() {
	f := NewForm()
	f.Step = StepWaiver
	prev, err := f.Back()
	s.Require().NoError(err)
	s.Equal(StepDocuments, prev.Step)
}

func (s *FormSuite) TestFullWalkthrough() {
	f := s.filledIdentity()

	f, err := f.Next()
	s.Require().NoError(err)

	f = f.AttachDocument("birth_certificates/p1/cert.pdf").
		AttachPhoto("https://photos.example.com/players/ama.jpg")
	f, err = f.Next()
	s.Require().NoError(err)

	f = f.SignWaiver("Kwame Owusu", time.Now())
	f, err = f.Next()
	s.Require().NoError(err)

	s.Equal(StepReview, f.Step)
	s.True(f.Complete())
}

func (s *FormSuite) TestValidateMinimalSubmission() {
	problems := Validate(Submission{
		FirstName: "Ama",
		LastName:  "Owusu",
		DOB:       "2015-04-02",
		Gender:    "Female",
	})
	s.Empty(problems)
}

func (s *FormSuite) TestValidateMissingIdentity() {
	problems := Validate(Submission{})
	s.Contains(problems, "first_name")
	s.Contains(problems, "last_name")
	s.Contains(problems, "dob")
}

func (s *FormSuite) TestValidateMalformedDate() {
	problems := Validate(Submission{FirstName: "Ama", LastName: "Owusu", DOB: "02/04/2015"})
	s.Contains(problems, "dob")
}

func (s *FormSuite) TestValidateUnknownGender() {
	problems := Validate(Submission{FirstName: "Ama", LastName: "Owusu", DOB: "2015-04-02", Gender: "other"})
	s.Contains(problems, "gender")
}

func (s *FormSuite) TestValidateWaiverWithoutSignature() {
	now := time.Now()
	problems := Validate(Submission{
		FirstName:      "Ama",
		LastName:       "Owusu",
		DOB:            "2015-04-02",
		WaiverSignedAt: &now,
	})
	s.Contains(problems, "signature")
}

func (s *FormSuite) TestSubmissionCarriesFormFields() {
	now := time.Now()
	f := s.filledIdentity().
		AttachDocument("birth_certificates/p1/cert.pdf").
		AttachPhoto("https://photos.example.com/players/ama.jpg").
		SignWaiver("Kwame Owusu", now)

	sub := f.Submission()
	s.Equal("Ama", sub.FirstName)
	s.Equal("Owusu", sub.LastName)
	s.Equal("2015-04-02", sub.DOB)
	s.Equal("birth_certificates/p1/cert.pdf", sub.BirthCertPath)
	s.Equal("https://photos.example.com/players/ama.jpg", sub.PhotoURL)
	s.Require().NotNil(sub.WaiverSignedAt)
	s.True(sub.WaiverSignedAt.Equal(now))
	s.Equal("Kwame Owusu", sub.Signature)
}
