package factory

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/gameportal/internal/dependencies/mocks"
	"github.com/mcoot/gameportal/internal/services/auth"
	"github.com/mcoot/gameportal/internal/services/session"
	"github.com/mcoot/gameportal/internal/storage"
	"github.com/mcoot/gameportal/internal/storage/memory"
	redisstorage "github.com/mcoot/gameportal/internal/storage/redis"
	"github.com/mcoot/gameportal/internal/testutil"
)

// TestSecret signs session tokens in test apps
const TestSecret = "test-session-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App on in-memory storage with a mocked clock
func NewTestApp() *TestApp {
	mockClock := newMockClock()
	return newTestApp(memory.New(mockClock), mockClock)
}

// NewRedisTestApp creates an App backed by a miniredis server that lives for the test
func NewRedisTestApp(t testing.TB) *TestApp {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	return newTestApp(redisstorage.NewWithClient(client, redisstorage.DefaultConfig()), newMockClock())
}

func newMockClock() *mocks.MockClock {
	return mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
}

func newTestApp(store storage.Storage, mockClock *mocks.MockClock) *TestApp {

	sessionCfg := session.DefaultConfig()
	sessionCfg.Secret = []byte(TestSecret)

	app := newWithDependencies(store, mockClock, auth.Config{BcryptCost: bcrypt.MinCost}, sessionCfg, testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}
