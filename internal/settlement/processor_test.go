package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/bamika-fc/backend/internal/models"
	"github.com/bamika-fc/backend/pkg/queue"
)

type fakeRegistrations struct {
	byID        map[uuid.UUID]*models.Registration
	activateErr error
}

func (f *fakeRegistrations) Activate(_ context.Context, id uuid.UUID, subscriptionID string) (*models.Registration, error) {
	if f.activateErr != nil {
		return nil, f.activateErr
	}
	reg, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	reg.Status = models.RegistrationStatusActive
	reg.PaymentStatus = models.PaymentStatusPaid
	reg.StripeSubscriptionID = subscriptionID
	return reg, nil
}

type fakeRoster struct {
	players   []*models.Player
	byRegID   map[uuid.UUID]bool
	createErr error
}

// Create mirrors the players table: inserts carrying a registration id fall
// under the partial unique index, unlinked inserts do not.
func (f *fakeRoster) Create(_ context.Context, p *models.Player) error {
	if f.createErr != nil {
		return f.createErr
	}
	if p.RegistrationID != nil {
		if f.byRegID == nil {
			f.byRegID = make(map[uuid.UUID]bool)
		}
		if f.byRegID[*p.RegistrationID] {
			return errors.New(`duplicate key value violates unique constraint "ux_players_registration"`)
		}
		f.byRegID[*p.RegistrationID] = true
	}
	f.players = append(f.players, p)
	return nil
}

func (f *fakeRoster) CreateIdempotent(_ context.Context, p *models.Player) (bool, error) {
	if f.createErr != nil {
		return false, f.createErr
	}
	if f.byRegID == nil {
		f.byRegID = make(map[uuid.UUID]bool)
	}
	if p.RegistrationID != nil && f.byRegID[*p.RegistrationID] {
		return false, nil
	}
	if p.RegistrationID != nil {
		f.byRegID[*p.RegistrationID] = true
	}
	f.players = append(f.players, p)
	return true, nil
}

type fakeEvents struct {
	seen    map[string]bool
	markErr error
}

func (f *fakeEvents) MarkProcessed(_ context.Context, provider, eventID, _ string) (bool, error) {
	if f.markErr != nil {
		return false, f.markErr
	}
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	key := provider + ":" + eventID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

type fakeRosterQueue struct {
	enqueued   []queue.RosterMaterializationPayload
	enqueueErr error
}

func (f *fakeRosterQueue) EnqueueRosterMaterialization(_ context.Context, payload queue.RosterMaterializationPayload) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, payload)
	return nil
}

type ProcessorSuite struct {
	suite.Suite
	ctx           context.Context
	registrations *fakeRegistrations
	roster        *fakeRoster
	events        *fakeEvents
	rosterQueue   *fakeRosterQueue
}

func TestProcessorSuite(t *testing.T) {
	suite.Run(t, new(ProcessorSuite))
}

func (s *ProcessorSuite) SetupTest() {
	s.ctx = context.Background()
	s.registrations = &fakeRegistrations{byID: make(map[uuid.UUID]*models.Registration)}
	s.roster = &fakeRoster{}
	s.events = &fakeEvents{}
	s.rosterQueue = &fakeRosterQueue{}
}

func (s *ProcessorSuite) processor(dedupe bool) *Processor {
	return NewProcessor(s.registrations, s.roster, s.events, s.rosterQueue, dedupe, nil)
}

func (s *ProcessorSuite) pendingRegistration() *models.Registration {
	parentID := uuid.New()
	reg := &models.Registration{
		ID:            uuid.New(),
		ParentID:      &parentID,
		FirstName:     "Ama",
		LastName:      "Owusu",
		DOB:           "2015-04-02",
		Gender:        "Female",
		JerseySize:    "YS",
		Status:        models.RegistrationStatusPending,
		PaymentStatus: models.PaymentStatusPending,
	}
	s.registrations.byID[reg.ID] = reg
	return reg
}

func (s *ProcessorSuite) TestCompletedCheckoutActivatesAndMaterializes() {
	reg := s.pendingRegistration()
	p := s.processor(true)

	err := p.HandleCheckoutCompleted(s.ctx, "evt_1", CheckoutSession{
		ID:                "cs_1",
		ClientReferenceID: reg.ID.String(),
		SubscriptionID:    "sub_1",
	})
	s.Require().NoError(err)

	s.Equal(models.RegistrationStatusActive, reg.Status)
	s.Equal(models.PaymentStatusPaid, reg.PaymentStatus)
	s.Equal("sub_1", reg.StripeSubscriptionID)

	s.Require().Len(s.roster.players, 1)
	player := s.roster.players[0]
	s.Equal("Ama Owusu", player.FullName)
	s.Equal("2015-04-02", player.DateOfBirth)
	s.Equal(models.DefaultPosition, player.Position)
	s.Equal(models.DefaultTeam, player.TeamAssigned)
	s.Equal(models.DefaultJerseyNumber, player.JerseyNumber)
	s.Require().NotNil(player.RegistrationID)
	s.Equal(reg.ID, *player.RegistrationID)
	s.Empty(s.rosterQueue.enqueued)
}

func (s *ProcessorSuite) TestEmptyClientReferenceIsAcknowledgedWithoutWrites() {
	p := s.processor(true)
	err := p.HandleCheckoutCompleted(s.ctx, "evt_1", CheckoutSession{ID: "cs_1"})
	s.Require().NoError(err)
	s.Empty(s.roster.players)
}

func (s *ProcessorSuite) TestMalformedClientReferenceIsAcknowledgedWithoutWrites() {
	p := s.processor(true)
	err := p.HandleCheckoutCompleted(s.ctx, "evt_1", CheckoutSession{
		ID:                "cs_1",
		ClientReferenceID: "not-a-uuid",
	})
	s.Require().NoError(err)
	s.Empty(s.roster.players)
}

func (s *ProcessorSuite) TestUnknownRegistrationIsAcknowledgedWithoutRosterWrite() {
	p := s.processor(true)
	err := p.HandleCheckoutCompleted(s.ctx, "evt_1", CheckoutSession{
		ID:                "cs_1",
		ClientReferenceID: uuid.New().String(),
		SubscriptionID:    "sub_1",
	})
	s.Require().NoError(err)
	s.Empty(s.roster.players)
}

func (s *ProcessorSuite) TestActivationFailurePropagates() {
	reg := s.pendingRegistration()
	s.registrations.activateErr = errors.New("db down")
	p := s.processor(false)

	err := p.HandleCheckoutCompleted(s.ctx, "evt_1", CheckoutSession{
		ID:                "cs_1",
		ClientReferenceID: reg.ID.String(),
		SubscriptionID:    "sub_1",
	})
	s.Error(err)
	s.Empty(s.roster.players)
}

func (s *ProcessorSuite) TestReplayWithDedupeCreatesOnePlayerOnly() {
	reg := s.pendingRegistration()
	p := s.processor(true)
	sess := CheckoutSession{ID: "cs_1", ClientReferenceID: reg.ID.String(), SubscriptionID: "sub_1"}

	s.Require().NoError(p.HandleCheckoutCompleted(s.ctx, "evt_1", sess))
	s.Require().NoError(p.HandleCheckoutCompleted(s.ctx, "evt_1", sess))

	s.Len(s.roster.players, 1)
}

func (s *ProcessorSuite) TestDistinctEventsSameRegistrationStillOnePlayer() {
	// Stripe can deliver distinct events for the same logical completion;
	// the roster insert is keyed on the registration, not the event.
	reg := s.pendingRegistration()
	p := s.processor(true)
	sess := CheckoutSession{ID: "cs_1", ClientReferenceID: reg.ID.String(), SubscriptionID: "sub_1"}

	s.Require().NoError(p.HandleCheckoutCompleted(s.ctx, "evt_1", sess))
	s.Require().NoError(p.HandleCheckoutCompleted(s.ctx, "evt_2", sess))

	s.Len(s.roster.players, 1)
}

func (s *ProcessorSuite) TestReplayWithoutDedupeDuplicatesPlayer() {
	reg := s.pendingRegistration()
	p := s.processor(false)
	sess := CheckoutSession{ID: "cs_1", ClientReferenceID: reg.ID.String(), SubscriptionID: "sub_1"}

	s.Require().NoError(p.HandleCheckoutCompleted(s.ctx, "evt_1", sess))
	s.Require().NoError(p.HandleCheckoutCompleted(s.ctx, "evt_1", sess))

	s.Require().Len(s.roster.players, 2)
	// unlinked rows: the schema's unique index keys on registration id, so
	// the duplicate insert only succeeds because no id is carried
	s.Nil(s.roster.players[0].RegistrationID)
	s.Nil(s.roster.players[1].RegistrationID)
	s.Equal(models.RegistrationStatusActive, reg.Status)
	s.Empty(s.rosterQueue.enqueued)
}

func (s *ProcessorSuite) TestDedupeBookkeepingFailureDoesNotBlockSettlement() {
	reg := s.pendingRegistration()
	s.events.markErr = errors.New("events table unavailable")
	p := s.processor(true)

	err := p.HandleCheckoutCompleted(s.ctx, "evt_1", CheckoutSession{
		ID:                "cs_1",
		ClientReferenceID: reg.ID.String(),
		SubscriptionID:    "sub_1",
	})
	s.Require().NoError(err)
	s.Equal(models.RegistrationStatusActive, reg.Status)
	s.Len(s.roster.players, 1)
}

func (s *ProcessorSuite) TestRosterFailureQueuesRetryAndStillSucceeds() {
	reg := s.pendingRegistration()
	s.roster.createErr = errors.New("players table unavailable")
	p := s.processor(true)

	err := p.HandleCheckoutCompleted(s.ctx, "evt_1", CheckoutSession{
		ID:                "cs_1",
		ClientReferenceID: reg.ID.String(),
		SubscriptionID:    "sub_1",
	})
	s.Require().NoError(err)

	// activation held even though materialization failed
	s.Equal(models.RegistrationStatusActive, reg.Status)
	s.Equal(models.PaymentStatusPaid, reg.PaymentStatus)
	s.Empty(s.roster.players)

	s.Require().Len(s.rosterQueue.enqueued, 1)
	s.Equal(reg.ID, s.rosterQueue.enqueued[0].RegistrationID)
	s.Equal("evt_1", s.rosterQueue.enqueued[0].ProviderEventID)
}

func (s *ProcessorSuite) TestRosterAndQueueBothFailingStillAcks() {
	reg := s.pendingRegistration()
	s.roster.createErr = errors.New("players table unavailable")
	s.rosterQueue.enqueueErr = errors.New("redis unavailable")
	p := s.processor(true)

	err := p.HandleCheckoutCompleted(s.ctx, "evt_1", CheckoutSession{
		ID:                "cs_1",
		ClientReferenceID: reg.ID.String(),
		SubscriptionID:    "sub_1",
	})
	s.Require().NoError(err)
	s.Equal(models.RegistrationStatusActive, reg.Status)
}
