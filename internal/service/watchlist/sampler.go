package watchlist

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	domain "github.com/wonny/sectorwatch/internal/domain/watchlist"
	"github.com/wonny/sectorwatch/internal/service/reference"
)

// Sample size bounds, inclusive
const (
	MinSampleCount = 1
	MaxSampleCount = 10
)

// SectorRows is the part of the reference table the sampler reads
type SectorRows interface {
	RowsForSector(sector string) []reference.Row
}

// Sampler draws random companies from a sector
type Sampler struct {
	rows SectorRows

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler creates a Sampler seeded from the clock
func NewSampler(rows SectorRows) *Sampler {
	seed := uint64(time.Now().UnixNano())
	return NewSeededSampler(rows, seed, seed>>1)
}

// NewSeededSampler creates a deterministic Sampler
func NewSeededSampler(rows SectorRows, seed1, seed2 uint64) *Sampler {
	return &Sampler{
		rows: rows,
		rng:  rand.New(rand.NewPCG(seed1, seed2)),
	}
}

// ValidateCount rejects counts outside [MinSampleCount, MaxSampleCount]
func ValidateCount(count int) error {
	if count < MinSampleCount || count > MaxSampleCount {
		return domain.NewValidationError("num_companies", "must be between %d and %d", MinSampleCount, MaxSampleCount)
	}
	return nil
}

// Sample returns up to count rows of sector, uniformly at random without
// replacement, skipping symbols in exclude (keys are normalized symbols).
//
// Returns ErrUnknownSector when the sector has no rows at all and
// ErrEmptyCandidates when every row is excluded. A pool smaller than count
// is returned whole.
func (s *Sampler) Sample(sector string, count int, exclude map[string]struct{}) ([]reference.Row, error) {
	if err := ValidateCount(count); err != nil {
		return nil, err
	}
	sector = strings.TrimSpace(sector)
	if sector == "" {
		return nil, domain.NewValidationError("sector", "is required")
	}

	rows := s.rows.RowsForSector(sector)
	if len(rows) == 0 {
		return nil, domain.ErrUnknownSector
	}

	seen := make(map[string]struct{}, len(rows))
	pool := make([]reference.Row, 0, len(rows))
	for _, r := range rows {
		sym := domain.NormalizeSymbol(r.Symbol)
		if sym == "" {
			continue
		}
		if _, skip := exclude[sym]; skip {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		pool = append(pool, r)
	}

	if len(pool) == 0 {
		return nil, domain.ErrEmptyCandidates
	}
	if count >= len(pool) {
		return pool, nil
	}

	// Partial Fisher-Yates over the first count positions
	s.mu.Lock()
	for i := 0; i < count; i++ {
		j := i + s.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	s.mu.Unlock()

	return pool[:count], nil
}
