package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bouncetimer/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	s.storage = s.newStorage(DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) newStorage(cfg Config) *Storage {
	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})
	return NewWithClient(client, cfg)
}

func (s *StorageSuite) TestLoadNotFound() {
	_, err := s.storage.Load(s.ctx)
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}

func (s *StorageSuite) TestSaveAndLoad() {
	doc := `{"state":{"players":[]},"version":0}`
	s.Require().NoError(s.storage.Save(s.ctx, []byte(doc)))

	data, err := s.storage.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal(doc, string(data))

	raw, err := s.mini.Get(snapshotKey())
	s.Require().NoError(err)
	s.Equal(doc, raw)
}

func (s *StorageSuite) TestSnapshotHasNoTTLByDefault() {
	_ = s.storage.Save(s.ctx, []byte("{}"))

	s.Equal(time.Duration(0), s.mini.TTL(snapshotKey()), "Snapshot should not have TTL")
}

func (s *StorageSuite) TestSnapshotTTL() {
	cfg := DefaultConfig()
	cfg.SnapshotTTL = time.Hour
	storage := s.newStorage(cfg)
	defer func() { _ = storage.Close() }()

	_ = storage.Save(s.ctx, []byte("{}"))

	s.True(s.mini.TTL(snapshotKey()) > 0, "Snapshot should have TTL")
}

func (s *StorageSuite) TestWatchSeesWritesFromAnotherClient() {
	other := s.newStorage(DefaultConfig())
	defer func() { _ = other.Close() }()

	var mu sync.Mutex
	var got []string
	stop, err := s.storage.Watch(s.ctx, func(data []byte) {
		mu.Lock()
		got = append(got, string(data))
		mu.Unlock()
	})
	s.Require().NoError(err)
	defer stop()

	s.Require().NoError(other.Save(s.ctx, []byte("doc-1")))

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == "doc-1"
	}, time.Second, 10*time.Millisecond)
}

func (s *StorageSuite) TestStopEndsSubscription() {
	stop, err := s.storage.Watch(s.ctx, func([]byte) {})
	s.Require().NoError(err)

	s.Eventually(func() bool {
		return len(s.mini.PubSubChannels("")) == 1
	}, time.Second, 10*time.Millisecond)

	stop()
	stop()

	s.Eventually(func() bool {
		return len(s.mini.PubSubChannels("")) == 0
	}, time.Second, 10*time.Millisecond)
}
