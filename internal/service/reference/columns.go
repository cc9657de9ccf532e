package reference

import "strings"

// Canonical column names
const (
	ColSymbol   = "symbol"
	ColName     = "name"
	ColExchange = "exchange"
	ColSector   = "sector"
	ColIndustry = "industry"
)

// headerSynonyms maps a lower-cased, trimmed header to its canonical column
var headerSynonyms = map[string]string{
	"ticker":        ColSymbol,
	"symbol":        ColSymbol,
	"company name":  ColName,
	"name":          ColName,
	"longname":      ColName,
	"exchange":      ColExchange,
	"exchange name": ColExchange,
	"sector":        ColSector,
	"gics sector":   ColSector,
	"industry":      ColIndustry,
}

// columnMap holds the header index of each canonical column, -1 when absent
type columnMap struct {
	symbol   int
	name     int
	exchange int
	sector   int
	industry int

	// industryAsSector is set when no sector-bearing column exists and the
	// industry column stands in for it
	industryAsSector bool
}

// resolveColumns applies the synonym table to a header row.
// The first header matching a canonical column wins.
//
// Two separate industry rules apply:
//   - no sector-bearing column at all: industry becomes the sector column
//   - a sector column exists: industry only backfills rows whose sector is empty
func resolveColumns(header []string) columnMap {
	cm := columnMap{symbol: -1, name: -1, exchange: -1, sector: -1, industry: -1}

	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		canonical, ok := headerSynonyms[key]
		if !ok {
			continue
		}
		slot := cm.slot(canonical)
		if *slot == -1 {
			*slot = i
		}
	}

	if cm.sector == -1 && cm.industry != -1 {
		cm.sector = cm.industry
		cm.industry = -1
		cm.industryAsSector = true
	}

	return cm
}

func (cm *columnMap) slot(canonical string) *int {
	switch canonical {
	case ColSymbol:
		return &cm.symbol
	case ColName:
		return &cm.name
	case ColExchange:
		return &cm.exchange
	case ColSector:
		return &cm.sector
	default:
		return &cm.industry
	}
}

// field returns the trimmed value at idx, or "" when the column is absent
// or the record is short
func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
