package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/bouncetimer/internal/dependencies/mocks"
	"github.com/mcoot/bouncetimer/internal/services/auth"
	"github.com/mcoot/bouncetimer/internal/storage/memory"
	"github.com/mcoot/bouncetimer/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App over memory storage with mocked dependencies.
// The default operators are hashed at bcrypt.MinCost.
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	authCfg := auth.DefaultConfig()
	authCfg.BcryptCost = bcrypt.MinCost

	app, err := newWithDependencies(memory.New(), mockClock, mockRandom, authCfg, testutil.NopLogger())
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
