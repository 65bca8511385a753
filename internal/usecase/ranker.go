package usecase

import (
	"sort"
	"sync"
	"time"

	"SwingScan/internal/domain/models"
)

// Opportunity is one scored scan result, whether or not it qualified
// for confirmation tracking.
type Opportunity struct {
	Symbol         string                `json:"symbol"`
	Direction      models.Direction      `json:"direction"`
	CompositeScore float64               `json:"composite_score"`
	Classification models.Classification `json:"classification"`
	Breakdown      models.ScoreBreakdown `json:"breakdown"`
	ConfluencePct  float64               `json:"confluence_pct"`
	Price          float64               `json:"price"`
	Admitted       bool                  `json:"admitted"`
	ScannedAt      time.Time             `json:"scanned_at"`
}

// Ranker keeps the latest tick's opportunities ordered by composite
// score, ties broken by symbol for a stable listing.
type Ranker struct {
	mu     sync.RWMutex
	latest []Opportunity
}

func NewRanker() *Ranker {
	return &Ranker{}
}

// SetTick replaces the ranked snapshot with this tick's results.
func (r *Ranker) SetTick(opps []Opportunity) {
	sorted := make([]Opportunity, len(opps))
	copy(sorted, opps)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CompositeScore != sorted[j].CompositeScore {
			return sorted[i].CompositeScore > sorted[j].CompositeScore
		}
		return sorted[i].Symbol < sorted[j].Symbol
	})
	r.mu.Lock()
	r.latest = sorted
	r.mu.Unlock()
}

// Top returns up to n of the best-ranked opportunities from the latest
// tick. n <= 0 returns all of them.
func (r *Ranker) Top(n int) []Opportunity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 || n > len(r.latest) {
		n = len(r.latest)
	}
	out := make([]Opportunity, n)
	copy(out, r.latest[:n])
	return out
}
