// Package history synthesizes an illustrative price history for a product.
// The data is generated, not observed; it only gives the storefront chart a
// plausible shape around today's price.
package history

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/zlap-okazje/internal/domain/product"
)

const (
	// Days is how far back the generated history reaches.
	Days = 30
	// DateLayout formats PricePoint dates.
	DateLayout = "2006-01-02"

	minVariation = 0.85
	maxVariation = 1.15
)

// PricePoint is one day of the chart.
type PricePoint struct {
	Date  string
	Price decimal.Decimal
}

// Generator produces price histories. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator creates a Generator using the given random source and clock.
// Nil arguments select a time-seeded source and time.Now.
func NewGenerator(src rand.Source, now func() time.Time) *Generator {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>1)
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{rnd: rand.New(src), now: now}
}

// Generate builds Days points for the days before today, each within ±15% of
// the parsed display price, followed by today's point at exactly that price.
// It reports false when displayText carries no usable price.
func (g *Generator) Generate(displayText string) ([]PricePoint, bool) {
	price, ok := product.ParsePrice(displayText)
	if !ok || !price.IsPositive() {
		return nil, false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	today := g.now()
	points := make([]PricePoint, 0, Days+1)
	for i := range Days {
		day := today.AddDate(0, 0, -(Days - i))
		variation := minVariation + g.rnd.Float64()*(maxVariation-minVariation)
		points = append(points, PricePoint{
			Date:  day.Format(DateLayout),
			Price: price.Mul(decimal.NewFromFloat(variation)).Round(2),
		})
	}
	points = append(points, PricePoint{
		Date:  today.Format(DateLayout),
		Price: price,
	})
	return points, true
}
