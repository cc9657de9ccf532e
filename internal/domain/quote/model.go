package quote

// Record is what a provider returns for one symbol.
// Every field is optional; nil means the provider did not supply it.
type Record struct {
	Symbol                     string
	RegularMarketPrice         *float64
	PreviousClose              *float64
	RegularMarketChange        *float64
	RegularMarketChangePercent *float64
}

// Snapshot is the derived, request-scoped price view of a symbol.
// Symbol is the normalized ticker; batch responses carry it as the map key.
type Snapshot struct {
	Symbol        string   `json:"-"`
	CurrentPrice  *float64 `json:"currentPrice"`
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"changePercent"`
}

// SearchResult is one symbol search hit
type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// CompanyDetails combines price and profile data for one symbol
type CompanyDetails struct {
	Price          CompanyPrice   `json:"price"`
	SummaryProfile CompanyProfile `json:"summaryProfile"`
}

type CompanyPrice struct {
	Symbol                     string   `json:"symbol"`
	LongName                   string   `json:"longName"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketChange        *float64 `json:"regularMarketChange"`
	RegularMarketChangePercent *float64 `json:"regularMarketChangePercent"`
	ExchangeName               string   `json:"exchangeName"`
}

type CompanyProfile struct {
	Sector              string `json:"sector"`
	Industry            string `json:"industry"`
	LongBusinessSummary string `json:"longBusinessSummary"`
	Website             string `json:"website"`
	Country             string `json:"country"`
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
