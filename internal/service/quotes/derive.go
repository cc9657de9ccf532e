package quotes

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/wonny/sectorwatch/internal/domain/quote"
)

const derivedPlaces = 6

var hundred = decimal.NewFromInt(100)

// Derive turns a raw provider record into a Snapshot.
//
// Upstream change fields win when present. Otherwise change is
// current - previousClose and changePercent is change / previousClose * 100.
// changePercent stays nil when previousClose is zero or missing.
func Derive(rec *quote.Record) quote.Snapshot {
	if rec == nil {
		return quote.Snapshot{}
	}

	price := finite(rec.RegularMarketPrice)
	prev := finite(rec.PreviousClose)
	change := finite(rec.RegularMarketChange)
	changePct := finite(rec.RegularMarketChangePercent)

	if change == nil && price != nil && prev != nil {
		d := decimal.NewFromFloat(*price).Sub(decimal.NewFromFloat(*prev))
		change = toFloat(d)
	}

	if changePct == nil && change != nil && prev != nil && *prev != 0 {
		d := decimal.NewFromFloat(*change).
			Div(decimal.NewFromFloat(*prev)).
			Mul(hundred)
		changePct = toFloat(d)
	}

	return quote.Snapshot{
		CurrentPrice:  price,
		Change:        change,
		ChangePercent: changePct,
	}
}

// finite drops NaN and ±Inf, which JSON cannot carry
func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	out := *v
	return &out
}

func toFloat(d decimal.Decimal) *float64 {
	f, _ := d.Round(derivedPlaces).Float64()
	return &f
}
