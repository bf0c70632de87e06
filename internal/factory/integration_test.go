package factory

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/services/auth"
	redisstorage "github.com/mcoot/bouncetimer/internal/storage/redis"
	"github.com/mcoot/bouncetimer/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.Require().NoError(s.app.Start(s.ctx))
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func (s *IntegrationSuite) waitForTickers(n int) {
	ctx, cancel := context.WithTimeout(s.ctx, time.Second)
	defer cancel()
	s.Require().NoError(s.app.MockClock.BlockUntilContext(ctx, n))
}

// Test: a slot runs out and the monitor marks it expired
func (s *IntegrationSuite) TestSlotExpiresThroughMonitor() {
	s.app.MockRandom.QueueID("p1")

	p, err := s.app.Store.Create(s.ctx, "Ana", 1)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), p.ID)
	s.Equal([]model.PlayerID{p.ID}, s.app.Monitor.Running())
	s.waitForTickers(1)

	s.app.MockClock.Advance(time.Minute)

	s.Eventually(func() bool {
		got, _ := s.app.Store.Get(p.ID)
		return got.Status == model.StatusExpired
	}, time.Second, 5*time.Millisecond)
	s.Eventually(func() bool {
		return len(s.app.Monitor.Running()) == 0
	}, time.Second, 5*time.Millisecond)

	s.Equal(0, s.app.Store.CountActive())
	s.Equal(1, s.app.Store.CountExpired())

	s.NoError(promtest.GatherAndCompare(s.app.Metrics.Registry(), strings.NewReader(`
# HELP bouncetimer_expirations_total Player slots marked expired by a countdown.
# TYPE bouncetimer_expirations_total counter
bouncetimer_expirations_total 1
`), "bouncetimer_expirations_total"))
}

// Test: store events keep the player gauges current
func (s *IntegrationSuite) TestMetricsFollowStore() {
	a, err := s.app.Store.Create(s.ctx, "Ana", 10)
	s.Require().NoError(err)
	_, err = s.app.Store.Create(s.ctx, "Bo", 10)
	s.Require().NoError(err)
	s.Require().NoError(s.app.Store.UpdateStatus(s.ctx, a.ID, model.StatusExpired))

	s.NoError(promtest.GatherAndCompare(s.app.Metrics.Registry(), strings.NewReader(`
# HELP bouncetimer_players Number of players in the store by status.
# TYPE bouncetimer_players gauge
bouncetimer_players{status="active"} 1
bouncetimer_players{status="expired"} 1
`), "bouncetimer_players"))
}

// Test: clearing expired players stops nothing that is still running
func (s *IntegrationSuite) TestClearExpiredKeepsActiveCountdowns() {
	a, _ := s.app.Store.Create(s.ctx, "Ana", 10)
	b, _ := s.app.Store.Create(s.ctx, "Bo", 10)
	s.Require().NoError(s.app.Store.UpdateStatus(s.ctx, a.ID, model.StatusExpired))

	s.Require().NoError(s.app.Store.ClearExpired(s.ctx))

	s.Equal(1, s.app.Store.CountTotal())
	s.Equal([]model.PlayerID{b.ID}, s.app.Monitor.Running())
}

// Test: logging in as each default operator
func (s *IntegrationSuite) TestDefaultOperators() {
	admin, err := s.app.AuthService.Login("admin", "123")
	s.Require().NoError(err)
	s.True(admin.Role.CanManage())

	employee, err := s.app.AuthService.Login("Usuario", "123")
	s.Require().NoError(err)
	s.False(employee.Role.CanManage())
}

// Test: Start and Close may be repeated
func (s *IntegrationSuite) TestStartIsIdempotent() {
	s.NoError(s.app.Start(s.ctx))
	s.Equal(3, s.app.Store.SubscriberCount(), "metrics observer, monitor and broadcaster")
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	_, err := New(Config{StorageType: "postgres"})
	assert.Error(t, err)
}

func TestNewRedisRequiresConfig(t *testing.T) {
	_, err := New(Config{StorageType: StorageTypeRedis})
	assert.Error(t, err)
}

func TestNewRejectsInvalidOperators(t *testing.T) {
	_, err := New(Config{AuthConfig: auth.Config{
		Operators: []auth.Operator{{Username: "x", Password: "y", Role: "owner"}},
	}})
	assert.Error(t, err)
}

// Test: a file-backed app reloads what a previous process persisted
func TestFileStorageSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "players.json")
	cfg := Config{
		StorageType: StorageTypeFile,
		StoreFile:   path,
		Logger:      testutil.NopLogger(),
		AuthConfig:  auth.Config{BcryptCost: bcrypt.MinCost, Operators: auth.DefaultConfig().Operators},
	}

	first, err := New(cfg)
	require.NoError(t, err)
	require.Equal(t, StorageTypeFile, first.StorageType)
	require.NoError(t, first.Start(ctx))
	p, err := first.Store.Create(ctx, "Ana", 15)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, second.Start(ctx))
	t.Cleanup(func() { _ = second.Close() })

	got, ok := second.Store.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, "Ana", got.Name)
	assert.Equal(t, 15, got.Duration)
	assert.Contains(t, second.Monitor.Running(), p.ID)
}

// Test: two servers sharing redis see each other's writes
func TestRedisAppsShareState(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mr.Addr()
	cfg := Config{
		StorageType: StorageTypeRedis,
		RedisConfig: &redisCfg,
		Logger:      testutil.NopLogger(),
		AuthConfig:  auth.Config{BcryptCost: bcrypt.MinCost, Operators: auth.DefaultConfig().Operators},
	}

	apps := make([]*App, 2)
	for i := range apps {
		app, err := New(cfg)
		require.NoError(t, err)
		require.NoError(t, app.Start(ctx))
		t.Cleanup(func() { _ = app.Close() })
		apps[i] = app
	}

	p, err := apps[0].Store.Create(ctx, "Ana", 20)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := apps[1].Store.Get(p.ID)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, apps[1].Monitor.Running(), p.ID)

	require.NoError(t, apps[1].Store.UpdateStatus(ctx, p.ID, model.StatusExpired))
	require.Eventually(t, func() bool {
		got, _ := apps[0].Store.Get(p.ID)
		return got.Status == model.StatusExpired
	}, 2*time.Second, 10*time.Millisecond)
}
