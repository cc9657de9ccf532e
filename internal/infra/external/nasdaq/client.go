// Package nasdaq downloads the NASDAQ Trader symbol directories.
package nasdaq

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://www.nasdaqtrader.com/dynamic/SymDir"

	nasdaqListedFile = "nasdaqlisted.txt"
	otherListedFile  = "otherlisted.txt"
)

// exchangeCodes maps otherlisted.txt exchange codes to names
var exchangeCodes = map[string]string{
	"A": "NYSE MKT",
	"N": "NYSE",
	"P": "NYSE ARCA",
	"Z": "BATS",
	"V": "IEXG",
}

// Listing is one row of a symbol directory
type Listing struct {
	Symbol   string
	Name     string
	Exchange string
	ETF      bool
}

// Client handles symbol directory downloads
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new directory client
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("client", "nasdaq").Logger(),
	}
}

// Listings returns the non-test issues of both directories, deduplicated
// by symbol and sorted
func (c *Client) Listings(ctx context.Context) ([]Listing, error) {
	nasdaq, err := c.fetch(ctx, nasdaqListedFile)
	if err != nil {
		return nil, err
	}
	listed, err := ParseNasdaqListed(nasdaq)
	nasdaq.Close()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", nasdaqListedFile, err)
	}

	other, err := c.fetch(ctx, otherListedFile)
	if err != nil {
		return nil, err
	}
	otherListed, err := ParseOtherListed(other)
	other.Close()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", otherListedFile, err)
	}

	seen := map[string]struct{}{}
	out := make([]Listing, 0, len(listed)+len(otherListed))
	for _, l := range append(listed, otherListed...) {
		if _, dup := seen[l.Symbol]; dup {
			continue
		}
		seen[l.Symbol] = struct{}{}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })

	c.log.Info().
		Int("nasdaq", len(listed)).
		Int("other", len(otherListed)).
		Int("total", len(out)).
		Msg("Symbol directories fetched")

	return out, nil
}

func (c *Client) fetch(ctx context.Context, file string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+file, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", file, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status=%d", file, resp.StatusCode)
	}
	return resp.Body, nil
}

// ParseNasdaqListed parses nasdaqlisted.txt
func ParseNasdaqListed(r io.Reader) ([]Listing, error) {
	return parseDirectory(r, "Symbol", func(row map[string]string) string {
		return "NASDAQ"
	})
}

// ParseOtherListed parses otherlisted.txt
func ParseOtherListed(r io.Reader) ([]Listing, error) {
	return parseDirectory(r, "ACT Symbol", func(row map[string]string) string {
		if name, ok := exchangeCodes[row["Exchange"]]; ok {
			return name
		}
		return row["Exchange"]
	})
}

// parseDirectory reads a pipe-delimited directory, skipping test issues and
// the trailing "File Creation Time" line
func parseDirectory(r io.Reader, symbolColumn string, exchange func(map[string]string) string) ([]Listing, error) {
	reader := csv.NewReader(r)
	reader.Comma = '|'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var out []Listing
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) > 0 && strings.HasPrefix(record[0], "File Creation Time") {
			continue
		}

		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			}
		}

		if row["Test Issue"] != "N" || row[symbolColumn] == "" {
			continue
		}
		out = append(out, Listing{
			Symbol:   row[symbolColumn],
			Name:     row["Security Name"],
			Exchange: exchange(row),
			ETF:      row["ETF"] == "Y",
		})
	}
	return out, nil
}
