package quote

import "context"

// Provider fetches raw market data for symbols
type Provider interface {
	// Quote returns the raw record for one symbol
	Quote(ctx context.Context, symbol string) (*Record, error)
}

// Directory looks up symbols and company profiles
type Directory interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Company(ctx context.Context, symbol string) (*CompanyDetails, error)
}
