package usecase

import (
	"fmt"
	"sync"
	"time"

	"SwingScan/internal/domain/models"
	"SwingScan/pkg/config"
)

// CooldownGuard suppresses new signal creation for a symbol after one of
// its signals confirms. The cooldown is keyed by symbol only: a
// confirmed BULLISH signal blocks BEARISH detections too. Writes come
// from the single scan loop; readers take snapshots under RLock.
type CooldownGuard struct {
	mu      sync.RWMutex
	window  time.Duration
	purge   time.Duration
	entries map[string]models.CooldownEntry
}

func NewCooldownGuard(cfg *config.Config) *CooldownGuard {
	return &CooldownGuard{
		window:  cfg.Cooldown.Window,
		purge:   cfg.Cooldown.Window * time.Duration(cfg.Cooldown.PurgeFactor),
		entries: make(map[string]models.CooldownEntry),
	}
}

// Arm starts (or restarts) the cooldown window for a symbol.
func (g *CooldownGuard) Arm(symbol string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[symbol] = models.CooldownEntry{
		Symbol:    symbol,
		ArmedAt:   now,
		ExpiresAt: now.Add(g.window),
	}
	g.purgeLocked(now)
}

// Blocked reports whether the symbol is still cooling down at now.
// The boundary is exclusive: a check exactly at expiry is not blocked.
func (g *CooldownGuard) Blocked(symbol string, now time.Time) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.entries[symbol]
	return ok && e.Active(now)
}

// Check returns models.ErrCooldownActive (wrapped with the remaining
// duration) while the symbol's window is open, nil once it is clear.
func (g *CooldownGuard) Check(symbol string, now time.Time) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.entries[symbol]
	if !ok || !e.Active(now) {
		return nil
	}
	return fmt.Errorf("%w: %s for %s", models.ErrCooldownActive, symbol, e.Remaining(now))
}

// Remaining returns time left on the symbol's cooldown, zero when clear.
func (g *CooldownGuard) Remaining(symbol string, now time.Time) time.Duration {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.entries[symbol]
	if !ok {
		return 0
	}
	return e.Remaining(now)
}

// Active returns a snapshot of the cooldowns still in effect at now.
func (g *CooldownGuard) Active(now time.Time) []models.CooldownEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]models.CooldownEntry, 0, len(g.entries))
	for _, e := range g.entries {
		if e.Active(now) {
			out = append(out, e)
		}
	}
	return out
}

// Sweep drops long-expired entries. The scan loop calls it every tick
// so a quiet scanner does not accumulate stale cooldowns between Arms.
func (g *CooldownGuard) Sweep(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.purgeLocked(now)
}

// purgeLocked drops entries expired long enough to be of no interest.
func (g *CooldownGuard) purgeLocked(now time.Time) {
	for sym, e := range g.entries {
		if now.Sub(e.ExpiresAt) > g.purge {
			delete(g.entries, sym)
		}
	}
}
