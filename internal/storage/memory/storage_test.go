package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bouncetimer/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	_ = s.storage.Close()
}

func (s *StorageSuite) TestLoadBeforeSave() {
	_, err := s.storage.Load(s.ctx)
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}

func (s *StorageSuite) TestSaveAndLoad() {
	err := s.storage.Save(s.ctx, []byte(`{"state":{"players":[]},"version":0}`))
	s.Require().NoError(err)

	data, err := s.storage.Load(s.ctx)
	s.Require().NoError(err)
	s.JSONEq(`{"state":{"players":[]},"version":0}`, string(data))
}

func (s *StorageSuite) TestLoadReturnsCopy() {
	_ = s.storage.Save(s.ctx, []byte("abc"))

	data, _ := s.storage.Load(s.ctx)
	data[0] = 'x'

	again, _ := s.storage.Load(s.ctx)
	s.Equal("abc", string(again))
}

func (s *StorageSuite) TestWatchReceivesSaves() {
	var mu sync.Mutex
	var got []string
	stop, err := s.storage.Watch(s.ctx, func(data []byte) {
		mu.Lock()
		got = append(got, string(data))
		mu.Unlock()
	})
	s.Require().NoError(err)
	defer stop()

	_ = s.storage.Save(s.ctx, []byte("one"))

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == "one"
	}, time.Second, 5*time.Millisecond)
}

func (s *StorageSuite) TestWatchAlwaysDeliversLatest() {
	var mu sync.Mutex
	var last string
	stop, _ := s.storage.Watch(s.ctx, func(data []byte) {
		mu.Lock()
		last = string(data)
		mu.Unlock()
	})
	defer stop()

	for _, doc := range []string{"a", "b", "c", "d"} {
		_ = s.storage.Save(s.ctx, []byte(doc))
	}

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return last == "d"
	}, time.Second, 5*time.Millisecond)
}

func (s *StorageSuite) TestStopRemovesWatcher() {
	stop, _ := s.storage.Watch(s.ctx, func([]byte) {})
	s.Equal(1, s.storage.WatcherCount())

	stop()
	stop() // idempotent
	s.Equal(0, s.storage.WatcherCount())
}

func (s *StorageSuite) TestCloseRemovesAllWatchers() {
	_, _ = s.storage.Watch(s.ctx, func([]byte) {})
	_, _ = s.storage.Watch(s.ctx, func([]byte) {})

	s.Require().NoError(s.storage.Close())
	s.Equal(0, s.storage.WatcherCount())
}
