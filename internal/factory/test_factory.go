package factory

import (
	"time"

	"github.com/mcoot/battlearena/internal/dependencies/mocks"
	"github.com/mcoot/battlearena/internal/services/arena"
	"github.com/mcoot/battlearena/internal/storage/memory"
	"github.com/mcoot/battlearena/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp(arenaCfg arena.Config) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, []arena.ResultSink{store}, mockClock, mockRandom, arenaCfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
