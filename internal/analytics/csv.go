package analytics

import (
	"strings"

	"github.com/aristath/fxrisk/internal/domain"
)

// csvColumns is the fixed export column order the treasury reviewers expect.
var csvColumns = []string{
	"Instrument Type",
	"Currency Pair",
	"Amount",
	"Budget Rate",
	"Current Rate",
	"P&L",
	"Status",
	"Hedge %",
	"Description",
}

// csvMissing marks absent numeric fields. Rendering them as empty or "0"
// would collapse the missing/zero distinction reviewers rely on.
const csvMissing = "N/A"

// ToCSV renders exposures as CSV text with LF-joined rows, first row the
// header. Every field is rendered through the formatter and wrapped in
// double quotes, interior quotes doubled. Each input record produces
// exactly one data row, including records missing optional fields.
func ToCSV(exposures []domain.Exposure, th Thresholds, f Format) string {
	rows := make([]string, 0, len(exposures)+1)
	rows = append(rows, csvRow(csvColumns))

	for _, e := range exposures {
		amount := csvMissing
		if e.Amount != nil {
			amount = f.Currency(*e.Amount, false) + " " + e.FromCurrency
		}
		budget := csvMissing
		if e.BudgetRate != nil {
			budget = f.Rate(*e.BudgetRate)
		}
		current := csvMissing
		if e.CurrentRate != nil {
			current = f.Rate(*e.CurrentRate)
		}
		pnl := csvMissing
		if e.CurrentPnl != nil {
			pnl = f.Currency(*e.CurrentPnl, true)
		}

		rows = append(rows, csvRow([]string{
			string(e.InstrumentType),
			e.Pair(),
			amount,
			budget,
			current,
			pnl,
			string(Classify(e, th)),
			f.Percent(e.HedgeRatio()*100, false),
			e.Description,
		}))
	}

	return strings.Join(rows, "\n")
}

// csvRow quotes every field unconditionally, doubling interior quotes per
// RFC 4180.
func csvRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
