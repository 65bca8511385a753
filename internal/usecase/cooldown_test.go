package usecase

import (
	"errors"
	"testing"
	"time"

	"SwingScan/internal/domain/models"
)

func TestCooldownGuardBlockedWindow(t *testing.T) {
	g := NewCooldownGuard(testConfig())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if g.Blocked("BTCUSDT", t0) {
		t.Fatalf("unarmed symbol must not be blocked")
	}
	g.Arm("BTCUSDT", t0)
	if !g.Blocked("BTCUSDT", t0.Add(29*time.Minute)) {
		t.Fatalf("expected blocked inside window")
	}
	// Exclusive boundary: a scan exactly at expiry proceeds.
	if g.Blocked("BTCUSDT", t0.Add(30*time.Minute)) {
		t.Fatalf("expected unblocked at expiry")
	}
	if g.Blocked("ETHUSDT", t0) {
		t.Fatalf("other symbols must not be affected")
	}
}

func TestCooldownGuardCheck(t *testing.T) {
	g := NewCooldownGuard(testConfig())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g.Arm("BTCUSDT", t0)

	err := g.Check("BTCUSDT", t0.Add(10*time.Minute))
	if !errors.Is(err, models.ErrCooldownActive) {
		t.Fatalf("expected ErrCooldownActive, got %v", err)
	}
	if err := g.Check("BTCUSDT", t0.Add(30*time.Minute)); err != nil {
		t.Fatalf("expired cooldown must pass, got %v", err)
	}
	if err := g.Check("ETHUSDT", t0); err != nil {
		t.Fatalf("unarmed symbol must pass, got %v", err)
	}
}

func TestCooldownGuardRemaining(t *testing.T) {
	g := NewCooldownGuard(testConfig())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g.Arm("BTCUSDT", t0)

	if got := g.Remaining("BTCUSDT", t0.Add(10*time.Minute)); got != 20*time.Minute {
		t.Fatalf("remaining %v", got)
	}
	if got := g.Remaining("BTCUSDT", t0.Add(time.Hour)); got != 0 {
		t.Fatalf("expired remaining %v", got)
	}
	if got := g.Remaining("ETHUSDT", t0); got != 0 {
		t.Fatalf("unarmed remaining %v", got)
	}
}

func TestCooldownGuardRearm(t *testing.T) {
	g := NewCooldownGuard(testConfig())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g.Arm("BTCUSDT", t0)
	g.Arm("BTCUSDT", t0.Add(20*time.Minute))
	if !g.Blocked("BTCUSDT", t0.Add(45*time.Minute)) {
		t.Fatalf("re-arm must restart the window")
	}
}

func TestCooldownGuardActiveSnapshot(t *testing.T) {
	g := NewCooldownGuard(testConfig())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g.Arm("BTCUSDT", t0)
	g.Arm("ETHUSDT", t0.Add(20*time.Minute))

	active := g.Active(t0.Add(40 * time.Minute))
	if len(active) != 1 || active[0].Symbol != "ETHUSDT" {
		t.Fatalf("unexpected active set %+v", active)
	}
}

func TestCooldownGuardSweep(t *testing.T) {
	g := NewCooldownGuard(testConfig())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g.Arm("BTCUSDT", t0)

	// Inside the retention horizon the entry stays.
	g.Sweep(t0.Add(time.Hour))
	if _, ok := g.entries["BTCUSDT"]; !ok {
		t.Fatalf("entry swept too early")
	}
	// A quiet scanner still sheds long-expired entries without any Arm.
	g.Sweep(t0.Add(3 * time.Hour))
	if _, ok := g.entries["BTCUSDT"]; ok {
		t.Fatalf("stale entry survived sweep")
	}
}

func TestCooldownGuardPurge(t *testing.T) {
	g := NewCooldownGuard(testConfig())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g.Arm("BTCUSDT", t0)
	// Arming another symbol long after BTCUSDT's window lapsed purges it.
	g.Arm("ETHUSDT", t0.Add(3*time.Hour))
	if _, ok := g.entries["BTCUSDT"]; ok {
		t.Fatalf("stale entry not purged")
	}
	if _, ok := g.entries["ETHUSDT"]; !ok {
		t.Fatalf("fresh entry must survive purge")
	}
}
