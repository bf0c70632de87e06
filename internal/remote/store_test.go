package remote

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/bouncetimer/internal/api"
	"github.com/mcoot/bouncetimer/internal/dependencies/mocks"
	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/services/auth"
	"github.com/mcoot/bouncetimer/internal/storage/memory"
	"github.com/mcoot/bouncetimer/internal/store"
	"github.com/mcoot/bouncetimer/internal/testutil"
)

type RemoteSuite struct {
	suite.Suite
	ctx    context.Context
	clock  *mocks.MockClock
	server *httptest.Server
	local  *store.Store
	client *Client
	remote *Store
}

func TestRemoteSuite(t *testing.T) {
	suite.Run(t, new(RemoteSuite))
}

func (s *RemoteSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	rnd := mocks.NewMockRandom()

	authCfg := auth.DefaultConfig()
	authCfg.BcryptCost = bcrypt.MinCost
	authService, err := auth.New(s.clock, rnd, authCfg)
	s.Require().NoError(err)

	s.local = store.New(memory.New(), s.clock, rnd, testutil.NopLogger())
	s.server = httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:      testutil.NopLogger(),
		AuthService: authService,
		Store:       s.local,
		StorageName: "memory",
	}))

	s.client = NewClient(s.server.URL)
	s.remote = NewStore(s.client, s.clock, time.Second, testutil.NopLogger())
}

func (s *RemoteSuite) TearDownTest() {
	s.server.Close()
}

func (s *RemoteSuite) login(username string) {
	resp, err := s.client.Login(s.ctx, username, "123")
	s.Require().NoError(err)
	s.Equal(resp.SessionToken, s.client.Token())
}

func (s *RemoteSuite) TestLoginWrongPassword() {
	_, err := s.client.Login(s.ctx, "admin", "bad")
	s.ErrorIs(err, auth.ErrInvalidCredentials)
	s.Empty(s.client.Token())
}

func (s *RemoteSuite) TestRequiresSession() {
	_, err := s.client.FetchPlayers(s.ctx)
	s.ErrorIs(err, auth.ErrInvalidSession)

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(401, apiErr.Status)
}

func (s *RemoteSuite) TestCreateUpdatesCache() {
	s.login("admin")

	p, err := s.remote.Create(s.ctx, "Ana", 10)
	s.Require().NoError(err)

	got, ok := s.remote.Get(p.ID)
	s.Require().True(ok)
	s.Equal("Ana", got.Name)
	s.Equal(1, s.remote.CountTotal())
	s.Equal(1, s.remote.CountActive())

	_, ok = s.local.Get(p.ID)
	s.True(ok)
}

func (s *RemoteSuite) TestCreateValidationError() {
	s.login("admin")

	_, err := s.remote.Create(s.ctx, "  ", 10)
	s.ErrorIs(err, model.ErrInvalidInput)
	s.Equal(0, s.local.CountTotal())
}

func (s *RemoteSuite) TestEmployeeCannotWrite() {
	s.login("Usuario")

	_, err := s.remote.Create(s.ctx, "Ana", 10)
	s.ErrorIs(err, auth.ErrForbidden)
}

func (s *RemoteSuite) TestStatusTransitionError() {
	s.login("admin")
	p, _ := s.remote.Create(s.ctx, "Ana", 10)

	err := s.remote.UpdateStatus(s.ctx, p.ID, model.StatusExpired)
	s.ErrorIs(err, model.ErrNotYetExpired)

	s.clock.Advance(10 * time.Minute)
	s.Require().NoError(s.remote.UpdateStatus(s.ctx, p.ID, model.StatusExpired))
	got, _ := s.remote.Get(p.ID)
	s.Equal(model.StatusExpired, got.Status)

	err = s.remote.UpdateStatus(s.ctx, p.ID, model.StatusActive)
	s.ErrorIs(err, model.ErrInvalidStatusTransition)
}

func (s *RemoteSuite) TestDeleteAndClearExpired() {
	s.login("admin")
	a, _ := s.remote.Create(s.ctx, "A", 10)
	b, _ := s.remote.Create(s.ctx, "B", 5)
	s.clock.Advance(5 * time.Minute)
	s.Require().NoError(s.remote.UpdateStatus(s.ctx, b.ID, model.StatusExpired))

	s.Require().NoError(s.remote.ClearExpired(s.ctx))
	s.Equal(1, s.remote.CountTotal())

	s.Require().NoError(s.remote.Delete(s.ctx, a.ID))
	s.Equal(0, s.remote.CountTotal())
	s.Empty(s.remote.List())
}

func (s *RemoteSuite) TestMutationNotifiesSubscribers() {
	s.login("admin")

	var mu sync.Mutex
	var events []model.ChangeEvent
	unsubscribe := s.remote.Subscribe(func(e model.ChangeEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})
	defer unsubscribe()

	p, err := s.remote.Create(s.ctx, "Ana", 10)
	s.Require().NoError(err)

	mu.Lock()
	defer mu.Unlock()
	s.Require().Len(events, 1)
	s.Equal(model.ActionAdd, events[0].Action)
	s.Equal(p.ID, events[0].PlayerID)
	s.Len(events[0].Players, 1)
}

func (s *RemoteSuite) TestPollingPicksUpServerChanges() {
	s.login("Usuario")

	received := make(chan model.ChangeEvent, 4)
	unsubscribe := s.remote.Subscribe(func(e model.ChangeEvent) { received <- e })
	defer unsubscribe()
	s.True(s.remote.Polling())

	_, err := s.local.Create(s.ctx, "Ana", 10)
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(s.ctx, time.Second)
	defer cancel()
	s.Require().NoError(s.clock.BlockUntilContext(ctx, 1))
	s.clock.Advance(time.Second)

	select {
	case e := <-received:
		s.Equal(model.ActionSync, e.Action)
		s.Require().Len(e.Players, 1)
		s.Equal("Ana", e.Players[0].Name)
	case <-time.After(time.Second):
		s.Fail("no sync event after poll")
	}
	s.Equal(1, s.remote.CountTotal())
}

func (s *RemoteSuite) TestUnchangedPollIsSilent() {
	s.login("Usuario")
	s.Require().NoError(s.remote.Refresh(s.ctx))

	received := make(chan model.ChangeEvent, 4)
	unsubscribe := s.remote.Subscribe(func(e model.ChangeEvent) { received <- e })
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(s.ctx, time.Second)
	defer cancel()
	s.Require().NoError(s.clock.BlockUntilContext(ctx, 1))
	s.clock.Advance(time.Second)

	select {
	case e := <-received:
		s.Failf("unexpected event", "%+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *RemoteSuite) TestUnsubscribeStopsPolling() {
	s.login("Usuario")

	first := s.remote.Subscribe(func(model.ChangeEvent) {})
	second := s.remote.Subscribe(func(model.ChangeEvent) {})

	first()
	first()
	s.True(s.remote.Polling())

	second()
	s.False(s.remote.Polling())
}

func (s *RemoteSuite) TestUnreachableServer() {
	s.server.Close()

	_, err := s.client.Health(s.ctx)
	s.ErrorIs(err, model.ErrRemoteUnavailable)
	s.True(IsUnavailable(err))
}

func (s *RemoteSuite) TestHealthAndStats() {
	health, err := s.client.Health(s.ctx)
	s.Require().NoError(err)
	s.Equal("ok", health.Status)
	s.Equal("memory", health.Storage)

	s.login("admin")
	_, _ = s.remote.Create(s.ctx, "A", 10)

	stats, err := s.client.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.Active)
	s.Equal(10, stats.AverageDuration)
}
