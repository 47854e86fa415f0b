package exposures

import (
	"fmt"
	"time"

	"github.com/aristath/fxrisk/internal/domain"
	"github.com/rs/zerolog"
)

// SeedDemoData inserts a realistic commodity-trading exposure book into an
// empty store: a USD-based trader buying soft commodities and metals across
// eight currencies, with one receivable, one manual hedge override and a
// spread of classifications. No-op when any exposure already exists.
func SeedDemoData(repo *Repository, log zerolog.Logger) error {
	count, err := repo.Count()
	if err != nil {
		return fmt.Errorf("failed to check exposure count before seeding: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()

	type seed struct {
		from, to     string
		amount       float64
		budgetRate   float64
		currentRate  float64
		hedgeRatio   *float64
		override     bool
		instrument   domain.InstrumentType
		days         int
		reference    string
		description  string
		counterparty string
	}

	seeds := []seed{
		{
			from: "BRL", to: "USD", amount: 83_000_000,
			budgetRate: 0.1810, currentRate: 0.1785, hedgeRatio: floatPtr(0.75),
			instrument: domain.InstrumentSpot, days: 21,
			reference: "GT-1001", description: "Brazilian soybean purchase - Q1",
			counterparty: "Agro Brasil SA",
		},
		{
			// Receivable: copper sale settles in CNY.
			from: "CNY", to: "USD", amount: -178_000_000,
			budgetRate: 0.1405, currentRate: 0.1398, hedgeRatio: floatPtr(0.5),
			instrument: domain.InstrumentForward, days: 14,
			reference: "GT-1002", description: "Copper concentrate shipment to Shandong",
			counterparty: "Shandong Metals Corp",
		},
		{
			from: "EUR", to: "USD", amount: 11_000_000,
			budgetRate: 1.0850, currentRate: 1.1080,
			instrument: domain.InstrumentSpot, days: 7,
			reference: "GT-1003", description: "Ukrainian wheat via Rotterdam",
			counterparty: "EuroGrain BV",
		},
		{
			from: "MXN", to: "USD", amount: 145_000_000,
			budgetRate: 0.0552, currentRate: 0.0538, hedgeRatio: floatPtr(0.6),
			instrument: domain.InstrumentSpot, days: 14,
			reference: "GT-1004", description: "Silver ore from Zacatecas mines",
			counterparty: "Minera Mexicana",
		},
		{
			// Treasurer pinned this one by hand; the cascade must skip it.
			from: "AUD", to: "USD", amount: 27_500_000,
			budgetRate: 0.6580, currentRate: 0.6512, hedgeRatio: floatPtr(0.9),
			override:   true,
			instrument: domain.InstrumentForward, days: 21,
			reference: "GT-1005", description: "Iron ore shipment - Pilbara region",
			counterparty: "Aussie Mining Corp",
		},
		{
			from: "ZAR", to: "USD", amount: 178_000_000,
			budgetRate: 0.0561, currentRate: 0.0593, hedgeRatio: floatPtr(0.25),
			instrument: domain.InstrumentSpot, days: 25,
			reference: "GT-1006", description: "Platinum group metals - Rustenburg",
			counterparty: "SA Precious Metals",
		},
		{
			from: "CAD", to: "USD", amount: 9_600_000,
			budgetRate: 0.7290, currentRate: 0.7315,
			instrument: domain.InstrumentSpot, days: 14,
			reference: "GT-1007", description: "Canola seed - Saskatchewan harvest",
			counterparty: "Prairie Agro Ltd",
		},
		{
			from: "INR", to: "USD", amount: 420_000_000,
			budgetRate: 0.0120, currentRate: 0.0119, hedgeRatio: floatPtr(0.5),
			instrument: domain.InstrumentNDF, days: 30,
			reference: "GT-1008", description: "Cotton shipment - Gujarat mills",
			counterparty: "Mumbai Textiles Ltd",
		},
	}

	seeded := 0
	for i, s := range seeds {
		start := now
		end := now.AddDate(0, 0, s.days)
		pnl := (s.currentRate - s.budgetRate) * s.amount

		exp := domain.Exposure{
			ID:                   fmt.Sprintf("demo-%03d", i+1),
			FromCurrency:         s.from,
			ToCurrency:           s.to,
			Amount:               floatPtr(s.amount),
			BudgetRate:           floatPtr(s.budgetRate),
			CurrentRate:          floatPtr(s.currentRate),
			HedgeRatioPolicy:     s.hedgeRatio,
			HedgeOverride:        s.override,
			CurrentPnl:           floatPtr(pnl),
			InstrumentType:       s.instrument,
			SettlementPeriodDays: intPtr(s.days),
			StartDate:            &start,
			EndDate:              &end,
			Reference:            s.reference,
			Description:          s.description,
			Counterparty:         s.counterparty,
		}

		if err := repo.Create(exp); err != nil {
			return fmt.Errorf("failed to seed exposure %s: %w", exp.Reference, err)
		}
		seeded++
	}

	log.Info().Int("count", seeded).Msg("Seeded demo exposure book")
	return nil
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
