package quotes

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/sectorwatch/internal/domain/quote"
)

type stubProvider struct {
	mu      sync.Mutex
	records map[string]*quote.Record
	fail    map[string]bool
	delay   time.Duration
	calls   atomic.Int32
}

func (p *stubProvider) Quote(ctx context.Context, symbol string) (*quote.Record, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[symbol] {
		return nil, quote.ErrUpstreamUnavailable
	}
	rec, ok := p.records[symbol]
	if !ok {
		return nil, quote.ErrSymbolNotFound
	}
	return rec, nil
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name          string
		rec           *quote.Record
		wantChange    *float64
		wantChangePct *float64
	}{
		{
			name:          "derived from previous close",
			rec:           &quote.Record{RegularMarketPrice: quote.Float(110), PreviousClose: quote.Float(100)},
			wantChange:    quote.Float(10),
			wantChangePct: quote.Float(10),
		},
		{
			name:          "upstream fields win",
			rec:           &quote.Record{RegularMarketPrice: quote.Float(110), PreviousClose: quote.Float(100), RegularMarketChange: quote.Float(9.5), RegularMarketChangePercent: quote.Float(9.4)},
			wantChange:    quote.Float(9.5),
			wantChangePct: quote.Float(9.4),
		},
		{
			name:          "zero previous close never divides",
			rec:           &quote.Record{RegularMarketPrice: quote.Float(100), PreviousClose: quote.Float(0)},
			wantChange:    quote.Float(100),
			wantChangePct: nil,
		},
		{
			name:          "missing previous close",
			rec:           &quote.Record{RegularMarketPrice: quote.Float(100)},
			wantChange:    nil,
			wantChangePct: nil,
		},
		{
			name:          "upstream change with missing previous close",
			rec:           &quote.Record{RegularMarketPrice: quote.Float(100), RegularMarketChange: quote.Float(-2)},
			wantChange:    quote.Float(-2),
			wantChangePct: nil,
		},
		{
			name:          "non-finite values dropped",
			rec:           &quote.Record{RegularMarketPrice: quote.Float(math.NaN()), PreviousClose: quote.Float(100), RegularMarketChangePercent: quote.Float(math.Inf(1))},
			wantChange:    nil,
			wantChangePct: nil,
		},
		{
			name: "nil record",
			rec:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Derive(tt.rec)
			if tt.wantChange == nil {
				assert.Nil(t, snap.Change)
			} else {
				require.NotNil(t, snap.Change)
				assert.InDelta(t, *tt.wantChange, *snap.Change, 1e-9)
			}
			if tt.wantChangePct == nil {
				assert.Nil(t, snap.ChangePercent)
			} else {
				require.NotNil(t, snap.ChangePercent)
				assert.InDelta(t, *tt.wantChangePct, *snap.ChangePercent, 1e-9)
			}
		})
	}
}

func TestDerive_AvoidsFloatNoise(t *testing.T) {
	snap := Derive(&quote.Record{RegularMarketPrice: quote.Float(0.3), PreviousClose: quote.Float(0.1)})
	require.NotNil(t, snap.Change)
	assert.Equal(t, 0.2, *snap.Change)
}

func TestFetchOne_ZeroPreviousClose(t *testing.T) {
	p := &stubProvider{records: map[string]*quote.Record{
		"XYZ": {Symbol: "XYZ", RegularMarketPrice: quote.Float(100), PreviousClose: quote.Float(0)},
	}}
	g := NewGateway(p, Config{Timeout: time.Second, Concurrency: 2})

	snap := g.FetchOne(context.Background(), " xyz ")
	assert.Equal(t, "XYZ", snap.Symbol)
	require.NotNil(t, snap.CurrentPrice)
	assert.Equal(t, 100.0, *snap.CurrentPrice)
	assert.Nil(t, snap.ChangePercent)
}

func TestFetchOne_ErrorIsAbsentSnapshot(t *testing.T) {
	p := &stubProvider{fail: map[string]bool{"BAD": true}}
	g := NewGateway(p, Config{Timeout: time.Second})

	assert.Equal(t, quote.Snapshot{Symbol: "BAD"}, g.FetchOne(context.Background(), "BAD"))
	assert.Equal(t, quote.Snapshot{}, g.FetchOne(context.Background(), "   "))
}

func TestFetchOne_TimeoutIsAbsentSnapshot(t *testing.T) {
	p := &stubProvider{
		records: map[string]*quote.Record{"SLOW": {RegularMarketPrice: quote.Float(1)}},
		delay:   time.Second,
	}
	g := NewGateway(p, Config{Timeout: 20 * time.Millisecond})

	start := time.Now()
	snap := g.FetchOne(context.Background(), "SLOW")
	assert.Equal(t, quote.Snapshot{Symbol: "SLOW"}, snap)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestFetchMany_ReturnsEveryKeyEvenWhenAllFail(t *testing.T) {
	p := &stubProvider{fail: map[string]bool{"A": true, "B": true, "C": true}}
	g := NewGateway(p, Config{Timeout: time.Second, Concurrency: 2})

	got := g.FetchMany(context.Background(), []string{"A", "B", "C", "D"})
	assert.Len(t, got, 4)
	for _, s := range []string{"A", "B", "C", "D"} {
		snap, ok := got[s]
		assert.True(t, ok, s)
		assert.Nil(t, snap.CurrentPrice)
	}
}

func TestFetchMany_PartialFailure(t *testing.T) {
	p := &stubProvider{
		records: map[string]*quote.Record{
			"AAPL": {RegularMarketPrice: quote.Float(200), PreviousClose: quote.Float(190)},
		},
		fail: map[string]bool{"MSFT": true},
	}
	g := NewGateway(p, Config{Timeout: time.Second, Concurrency: 4})

	got := g.FetchMany(context.Background(), []string{"AAPL", "MSFT"})
	require.Len(t, got, 2)
	require.NotNil(t, got["AAPL"].CurrentPrice)
	assert.Equal(t, 200.0, *got["AAPL"].CurrentPrice)
	assert.Nil(t, got["MSFT"].CurrentPrice)
}

func TestFetchMany_DedupesUpstreamCalls(t *testing.T) {
	p := &stubProvider{records: map[string]*quote.Record{
		"AAPL": {RegularMarketPrice: quote.Float(200)},
	}}
	g := NewGateway(p, Config{Timeout: time.Second, Concurrency: 4})

	got := g.FetchMany(context.Background(), []string{"AAPL", "aapl", "AAPL"})
	assert.Len(t, got, 2)
	assert.NotNil(t, got["aapl"].CurrentPrice)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestFetchOne_CancelledContextSkipsUpstream(t *testing.T) {
	p := &stubProvider{records: map[string]*quote.Record{"AAPL": {RegularMarketPrice: quote.Float(200)}}}
	g := NewGateway(p, Config{Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, quote.Snapshot{Symbol: "AAPL"}, g.FetchOne(ctx, "AAPL"))
	assert.Equal(t, int32(0), p.calls.Load())
}

func TestFetchOne_ReturnsWhenCallerGivesUp(t *testing.T) {
	p := &stubProvider{
		records: map[string]*quote.Record{"SLOW": {RegularMarketPrice: quote.Float(1)}},
		delay:   time.Second,
	}
	g := NewGateway(p, Config{Timeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	snap := g.FetchOne(ctx, "SLOW")
	assert.Nil(t, snap.CurrentPrice)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestFetchMany_CancelledContextStopsBatch(t *testing.T) {
	records := map[string]*quote.Record{}
	var symbols []string
	for i := 0; i < 20; i++ {
		s := fmt.Sprintf("S%02d", i)
		records[s] = &quote.Record{RegularMarketPrice: quote.Float(float64(i))}
		symbols = append(symbols, s)
	}
	p := &stubProvider{records: records, delay: 200 * time.Millisecond}
	g := NewGateway(p, Config{Timeout: 200 * time.Millisecond, Concurrency: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	got := g.FetchMany(ctx, symbols)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, int32(0), p.calls.Load())
	require.Len(t, got, 20)
	for _, s := range symbols {
		assert.Equal(t, quote.Snapshot{Symbol: s}, got[s])
	}
}

func TestFetchMany_DeadlineBoundsSlowBatch(t *testing.T) {
	records := map[string]*quote.Record{}
	var symbols []string
	for i := 0; i < 20; i++ {
		s := fmt.Sprintf("S%02d", i)
		records[s] = &quote.Record{RegularMarketPrice: quote.Float(float64(i))}
		symbols = append(symbols, s)
	}
	p := &stubProvider{records: records, delay: time.Second}
	g := NewGateway(p, Config{Timeout: 5 * time.Second, Concurrency: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	got := g.FetchMany(ctx, symbols)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Len(t, got, 20)
	assert.LessOrEqual(t, p.calls.Load(), int32(4))
}

func TestFetchMany_TrimsKeysAndKeepsSymbol(t *testing.T) {
	p := &stubProvider{records: map[string]*quote.Record{
		"AAPL": {RegularMarketPrice: quote.Float(200)},
	}}
	g := NewGateway(p, Config{Timeout: time.Second})

	got := g.FetchMany(context.Background(), []string{" AAPL "})
	require.Contains(t, got, "AAPL")
	assert.Equal(t, "AAPL", got["AAPL"].Symbol)
}

func TestFetchMany_Empty(t *testing.T) {
	g := NewGateway(&stubProvider{}, Config{})
	assert.Empty(t, g.FetchMany(context.Background(), nil))
}
