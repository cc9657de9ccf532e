package watchlist

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domain "github.com/wonny/sectorwatch/internal/domain/watchlist"
	"github.com/wonny/sectorwatch/internal/service/reference"
)

// staticRows serves a fixed row set, matching sectors like the real table
type staticRows []reference.Row

func (s staticRows) RowsForSector(sector string) []reference.Row {
	out := []reference.Row{}
	for _, r := range s {
		if strings.EqualFold(strings.TrimSpace(r.Sector), strings.TrimSpace(sector)) {
			out = append(out, r)
		}
	}
	return out
}

func (s staticRows) Sectors() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range s {
		if !seen[r.Sector] {
			seen[r.Sector] = true
			out = append(out, r.Sector)
		}
	}
	return out
}

func techRows(n int) staticRows {
	rows := staticRows{}
	for i := 0; i < n; i++ {
		rows = append(rows, reference.Row{
			Symbol:   fmt.Sprintf("T%02d", i),
			Name:     fmt.Sprintf("Tech %d", i),
			Exchange: "NASDAQ",
			Sector:   "Technology",
		})
	}
	return rows
}

func TestValidateCount_Boundaries(t *testing.T) {
	tests := []struct {
		count   int
		wantErr bool
	}{
		{count: 0, wantErr: true},
		{count: 1, wantErr: false},
		{count: 10, wantErr: false},
		{count: 11, wantErr: true},
		{count: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.count), func(t *testing.T) {
			err := ValidateCount(tt.count)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSample_RejectsCountBeforeSampling(t *testing.T) {
	s := NewSeededSampler(staticRows{}, 1, 2)

	for _, count := range []int{0, 11, -1} {
		_, err := s.Sample("Unknown sector", count, nil)
		assert.ErrorIs(t, err, domain.ErrValidation, "count %d", count)
	}
}

func TestSample_Properties(t *testing.T) {
	rows := techRows(15)
	exclude := map[string]struct{}{"T00": {}, "T03": {}, "T07": {}}
	s := NewSeededSampler(rows, 42, 7)

	for count := MinSampleCount; count <= MaxSampleCount; count++ {
		for run := 0; run < 20; run++ {
			got, err := s.Sample("technology", count, exclude)
			require.NoError(t, err)

			assert.Len(t, got, count)
			seen := map[string]bool{}
			for _, r := range got {
				_, excluded := exclude[r.Symbol]
				assert.False(t, excluded, "excluded symbol %s returned", r.Symbol)
				assert.False(t, seen[r.Symbol], "symbol %s returned twice", r.Symbol)
				seen[r.Symbol] = true
			}
		}
	}
}

func TestSample_SmallPoolReturnsWholePool(t *testing.T) {
	s := NewSeededSampler(techRows(3), 1, 2)

	got, err := s.Sample("Technology", 10, map[string]struct{}{"T01": {}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSample_AllExcludedIsEmptyCandidates(t *testing.T) {
	rows := staticRows{{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ", Sector: "Technology"}}
	s := NewSeededSampler(rows, 1, 2)

	got, err := s.Sample("Technology", 5, map[string]struct{}{"AAPL": {}})
	assert.Empty(t, got)
	assert.ErrorIs(t, err, domain.ErrEmptyCandidates)
	assert.NotErrorIs(t, err, domain.ErrUnknownSector)
}

func TestSample_UnknownSector(t *testing.T) {
	s := NewSeededSampler(techRows(3), 1, 2)

	_, err := s.Sample("Energy", 3, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownSector)

	_, err = s.Sample("  ", 3, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSample_DuplicateSymbolsInReferenceCountOnce(t *testing.T) {
	rows := staticRows{
		{Symbol: "AAPL", Sector: "Technology"},
		{Symbol: "aapl", Sector: "Technology"},
		{Symbol: "MSFT", Sector: "Technology"},
	}
	s := NewSeededSampler(rows, 1, 2)

	got, err := s.Sample("Technology", 10, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSample_IsRoughlyUniform(t *testing.T) {
	rows := techRows(5)
	s := NewSeededSampler(rows, 99, 100)

	counts := map[string]int{}
	const runs = 5000
	for i := 0; i < runs; i++ {
		got, err := s.Sample("Technology", 1, nil)
		require.NoError(t, err)
		counts[got[0].Symbol]++
	}

	for _, r := range rows {
		share := float64(counts[r.Symbol]) / runs
		assert.InDelta(t, 0.2, share, 0.05, r.Symbol)
	}
}
