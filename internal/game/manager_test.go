package game

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/playpool/minipool/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		SessionExpiryMinutes:     30,
		ExpiryCheckIntervalSecs:  60,
		MaxSessions:              2,
		TickRate:                 60,
		FrameBroadcastEveryTicks: 0,
		Rules:                    config.DefaultRules(),
	}
}

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager(testConfig(), nil)
	defer m.Shutdown()

	r, err := m.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(r.ID(), "table_") {
		t.Errorf("unexpected id %q", r.ID())
	}
	got, err := m.Get(r.ID())
	if err != nil || got != r {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if _, err := m.Get("table_missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestManagerSessionLimit(t *testing.T) {
	m := NewManager(testConfig(), nil)
	defer m.Shutdown()

	for i := 0; i < 2; i++ {
		if _, err := m.Create(); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if _, err := m.Create(); !errors.Is(err, ErrTooManySessions) {
		t.Fatalf("err = %v, want ErrTooManySessions", err)
	}
}

func TestManagerRemoveStopsRunner(t *testing.T) {
	m := NewManager(testConfig(), nil)
	defer m.Shutdown()

	r, _ := m.Create()
	if !m.Remove(r.ID()) {
		t.Fatal("Remove returned false")
	}
	if m.Remove(r.ID()) {
		t.Error("second Remove returned true")
	}
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner still running after Remove")
	}
	if m.Count() != 0 {
		t.Errorf("count = %d", m.Count())
	}
}

func TestManagerExpiresIdleSessions(t *testing.T) {
	m := NewManager(testConfig(), nil)
	defer m.Shutdown()

	r, _ := m.Create()
	if n := m.checkExpiredSessions(time.Now()); n != 0 {
		t.Fatalf("expired %d fresh sessions", n)
	}
	if n := m.checkExpiredSessions(time.Now().Add(31 * time.Minute)); n != 1 {
		t.Fatalf("expired %d sessions, want 1", n)
	}
	if _, err := m.Get(r.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Error("expired session still registered")
	}
}

func TestManagerShutdown(t *testing.T) {
	m := NewManager(testConfig(), nil)
	a, _ := m.Create()
	b, _ := m.Create()
	m.Shutdown()

	for _, r := range []*Runner{a, b} {
		select {
		case <-r.Done():
		default:
			t.Errorf("runner %s still running", r.ID())
		}
	}
	if m.Count() != 0 {
		t.Errorf("count = %d after shutdown", m.Count())
	}
}
