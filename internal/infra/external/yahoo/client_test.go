package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/sectorwatch/internal/domain/quote"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:   srv.URL,
		SearchURL: srv.URL,
		UserAgent: "test-agent",
		Timeout:   time.Second,
	}, zerolog.Nop())
}

func TestClient_Quote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{
			"symbol":"AAPL","regularMarketPrice":201.5,"chartPreviousClose":200
		}}],"error":null}}`))
	})

	rec, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", rec.Symbol)
	require.NotNil(t, rec.RegularMarketPrice)
	assert.Equal(t, 201.5, *rec.RegularMarketPrice)
	require.NotNil(t, rec.PreviousClose)
	assert.Equal(t, 200.0, *rec.PreviousClose)
	assert.Nil(t, rec.RegularMarketChange)
}

func TestClient_Quote_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: quote.ErrUpstreamUnavailable},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: quote.ErrUpstreamUnavailable},
		{name: "not found", status: http.StatusNotFound, body: `{}`, wantErr: quote.ErrSymbolNotFound},
		{name: "empty result", status: http.StatusOK, body: `{"chart":{"result":[]}}`, wantErr: quote.ErrSymbolNotFound},
		{name: "api error", status: http.StatusOK, body: `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, wantErr: quote.ErrSymbolNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Quote(context.Background(), "XYZ")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_Quote_ContextTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Quote(ctx, "SLOW")
	assert.ErrorIs(t, err, quote.ErrUpstreamUnavailable)
}

func TestClient_Search(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/finance/search", r.URL.Path)
		assert.Equal(t, "apple", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("quotesCount"))
		_, _ = w.Write([]byte(`{"quotes":[
			{"symbol":"AAPL","shortname":"Apple Inc.","exchDisp":"NASDAQ"},
			{"symbol":"APLE","longname":"Apple Hospitality REIT","exchange":"NYQ"},
			{"symbol":"NONAME"},
			{"shortname":"No symbol"}
		]}`))
	})

	results, err := client.Search(context.Background(), "apple", 10)
	require.NoError(t, err)
	assert.Equal(t, []quote.SearchResult{
		{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ"},
		{Symbol: "APLE", Name: "Apple Hospitality REIT", Exchange: "NYQ"},
	}, results)
}

func TestClient_Company(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/MSFT", r.URL.Path)
		assert.Equal(t, "price,summaryProfile", r.URL.Query().Get("modules"))
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{
			"price":{
				"symbol":"MSFT","longName":"Microsoft Corporation","exchangeName":"NasdaqGS",
				"regularMarketPrice":{"raw":410.2,"fmt":"410.20"},
				"regularMarketChange":{"raw":-1.5,"fmt":"-1.50"},
				"regularMarketChangePercent":{}
			},
			"summaryProfile":{"sector":"Technology","industry":"Software","country":"United States","website":"https://microsoft.com"}
		}],"error":null}}`))
	})

	details, err := client.Company(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "Microsoft Corporation", details.Price.LongName)
	assert.Equal(t, "NasdaqGS", details.Price.ExchangeName)
	require.NotNil(t, details.Price.RegularMarketPrice)
	assert.Equal(t, 410.2, *details.Price.RegularMarketPrice)
	require.NotNil(t, details.Price.RegularMarketChange)
	assert.Equal(t, -1.5, *details.Price.RegularMarketChange)
	assert.Nil(t, details.Price.RegularMarketChangePercent)
	assert.Equal(t, "Technology", details.SummaryProfile.Sector)
	assert.Equal(t, "Software", details.SummaryProfile.Industry)
}

func TestGetFloat64(t *testing.T) {
	m := map[string]interface{}{
		"plain":   1.5,
		"wrapped": map[string]interface{}{"raw": 2.5},
		"text":    "3.5",
		"junk":    "n/a",
		"null":    nil,
	}

	assert.Equal(t, 1.5, *getFloat64(m, "plain"))
	assert.Equal(t, 2.5, *getFloat64(m, "wrapped"))
	assert.Equal(t, 3.5, *getFloat64(m, "text"))
	assert.Nil(t, getFloat64(m, "junk"))
	assert.Nil(t, getFloat64(m, "null"))
	assert.Nil(t, getFloat64(m, "missing"))
}
