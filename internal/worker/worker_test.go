package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/bamika-fc/backend/internal/models"
	"github.com/bamika-fc/backend/pkg/queue"
)

type fakeRegistrations struct {
	byID map[uuid.UUID]*models.Registration
}

func (f *fakeRegistrations) GetByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	return f.byID[id], nil
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

type RosterProcessorSuite struct {
	suite.Suite
	ctx           context.Context
	registrations *fakeRegistrations
	roster        *fakeRoster
}

func TestRosterProcessorSuite(t *testing.T) {
	suite.Run(t, new(RosterProcessorSuite))
}

func (s *RosterProcessorSuite) SetupTest() {
	s.ctx = context.Background()
	s.registrations = &fakeRegistrations{byID: make(map[uuid.UUID]*models.Registration)}
	s.roster = &fakeRoster{}
}

func (s *RosterProcessorSuite) processor(dedupe bool) *RosterProcessor {
	return NewRosterProcessor(s.registrations, s.roster, nil, dedupe, nil)
}

func (s *RosterProcessorSuite) activeRegistration() *models.Registration {
	reg := &models.Registration{
		ID:            uuid.New(),
		FirstName:     "Ama",
		LastName:      "Owusu",
		DOB:           "2015-04-02",
		Status:        models.RegistrationStatusActive,
		PaymentStatus: models.PaymentStatusPaid,
	}
	s.registrations.byID[reg.ID] = reg
	return reg
}

func (s *RosterProcessorSuite) job(regID uuid.UUID) *queue.Job {
	payload, err := json.Marshal(queue.RosterMaterializationPayload{RegistrationID: regID, ProviderEventID: "evt_1"})
	s.Require().NoError(err)
	return &queue.Job{ID: uuid.New().String(), Type: queue.JobTypeRosterMaterialization, Payload: payload}
}

func (s *RosterProcessorSuite) TestProcessMaterializesPlayer() {
	reg := s.activeRegistration()

	err := s.processor(true).Process(s.ctx, s.job(reg.ID))
	s.Require().NoError(err)

	s.Require().Len(s.roster.players, 1)
	s.Equal("Ama Owusu", s.roster.players[0].FullName)
	s.Equal(models.DefaultTeam, s.roster.players[0].TeamAssigned)
}

func (s *RosterProcessorSuite) TestProcessRejectsUnknownJobType() {
	err := s.processor(true).Process(s.ctx, &queue.Job{ID: "j1", Type: "recording_upload"})
	s.Error(err)
}

func (s *RosterProcessorSuite) TestMissingRegistrationIsTerminalNoop() {
	err := s.processor(true).Process(s.ctx, s.job(uuid.New()))
	s.Require().NoError(err)
	s.Empty(s.roster.players)
}

func (s *RosterProcessorSuite) TestPendingRegistrationIsDropped() {
	reg := s.activeRegistration()
	reg.Status = models.RegistrationStatusPending

	err := s.processor(true).Process(s.ctx, s.job(reg.ID))
	s.Require().NoError(err)
	s.Empty(s.roster.players)
}

func (s *RosterProcessorSuite) TestAlreadyMaterializedIsNoopWithDedupe() {
	reg := s.activeRegistration()
	p := s.processor(true)

	s.Require().NoError(p.Process(s.ctx, s.job(reg.ID)))
	s.Require().NoError(p.Process(s.ctx, s.job(reg.ID)))

	s.Len(s.roster.players, 1)
}

func (s *RosterProcessorSuite) TestLegacyModeInsertsUnlinkedRows() {
	reg := s.activeRegistration()
	p := s.processor(false)

	s.Require().NoError(p.Process(s.ctx, s.job(reg.ID)))
	s.Require().NoError(p.Process(s.ctx, s.job(reg.ID)))

	s.Require().Len(s.roster.players, 2)
	s.Nil(s.roster.players[0].RegistrationID)
	s.Nil(s.roster.players[1].RegistrationID)
}

func (s *RosterProcessorSuite) TestInsertFailureSurfacesForRetry() {
	reg := s.activeRegistration()
	s.roster.createErr = errors.New("players table unavailable")

	err := s.processor(true).Process(s.ctx, s.job(reg.ID))
	s.Error(err)
}
