package exposures

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/fxrisk/internal/domain"
	"github.com/aristath/fxrisk/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ImportResult reports the outcome of one CSV import run.
type ImportResult struct {
	BatchID  string   `json:"batch_id"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// PairChecker reports whether a currency pair is on the approved list.
// Implemented by the rates module. Unapproved pairs import with a warning.
type PairChecker interface {
	IsApproved(pair string) (bool, error)
}

// Importer parses exposure CSV uploads into the repository. Exports from
// treasury systems disagree on header names, separators and amount
// formatting, so matching is deliberately loose.
type Importer struct {
	repo  *Repository
	pairs PairChecker
	log   zerolog.Logger
}

// NewImporter creates a new CSV importer. pairs may be nil, which disables
// the unapproved-pair warning.
func NewImporter(repo *Repository, pairs PairChecker, log zerolog.Logger) *Importer {
	return &Importer{
		repo:  repo,
		pairs: pairs,
		log:   log.With().Str("component", "exposure_import").Logger(),
	}
}

// columnAliases maps each canonical column to the header spellings seen in
// customer exports. Headers are lowercased and trimmed before matching.
var columnAliases = map[string][]string{
	"reference":    {"reference", "ref", "reference_number", "ref_no", "transaction_id", "name"},
	"pair":         {"currency", "ccy", "currency_pair", "pair", "fx_pair"},
	"from":         {"from_currency", "from", "base_currency"},
	"to":           {"to_currency", "to", "quote_currency"},
	"amount":       {"amount", "notional", "exposure", "value", "qty", "quantity"},
	"budget_rate":  {"budget_rate", "initial_rate", "rate", "contract_rate"},
	"start_date":   {"start_date", "start", "from_date", "begin_date", "value_date"},
	"end_date":     {"end_date", "end", "to_date", "maturity_date", "settlement_date"},
	"description":  {"description", "notes", "comment"},
	"counterparty": {"counterparty", "cpty", "client"},
	"instrument":   {"instrument_type", "instrument", "product"},
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006/01/02"}

// Import parses a CSV upload and stores every valid row as an exposure.
// Rows that fail validation are skipped and reported; a missing required
// column fails the whole file. The run is recorded as an import batch.
func (i *Importer) Import(r io.Reader, filename string) (ImportResult, error) {
	result := ImportResult{
		BatchID:  uuid.New().String(),
		Errors:   []string{},
		Warnings: []string{},
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Excel exports often use semicolons. The header was already consumed,
	// so detect and re-split it along with every following record.
	if len(header) == 1 && strings.Contains(header[0], ";") {
		reader.Comma = ';'
		header = strings.Split(header[0], ";")
	}

	cols := mapColumns(header)
	if err := requireColumns(cols); err != nil {
		return result, err
	}

	rowNum := 1 // header
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			result.Skipped++
			continue
		}

		exp, rowWarnings, err := i.buildExposure(record, cols)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			result.Skipped++
			continue
		}
		for _, w := range rowWarnings {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %s", rowNum, w))
		}

		if err := i.repo.Create(exp); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			result.Skipped++
			continue
		}
		result.Imported++
	}

	if err := i.repo.CreateImportBatch(ImportBatch{
		ID:       result.BatchID,
		Filename: filename,
		Imported: result.Imported,
		Skipped:  result.Skipped,
		Warnings: result.Warnings,
	}); err != nil {
		i.log.Error().Err(err).Str("batch_id", result.BatchID).Msg("Failed to record import batch")
	}

	i.log.Info().
		Str("batch_id", result.BatchID).
		Str("filename", filename).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("CSV import completed")

	return result, nil
}

// buildExposure converts one CSV record into an exposure, reporting
// row-level warnings for recoverable oddities.
func (i *Importer) buildExposure(record []string, cols map[string]int) (domain.Exposure, []string, error) {
	var warnings []string

	exp := domain.Exposure{
		ID:             uuid.New().String(),
		InstrumentType: domain.InstrumentSpot,
	}

	from, to, err := i.parsePair(record, cols)
	if err != nil {
		return exp, nil, err
	}
	exp.FromCurrency = from
	exp.ToCurrency = to

	amountText := field(record, cols, "amount")
	if amountText == "" {
		return exp, nil, fmt.Errorf("missing amount")
	}
	amount, err := parseAmount(amountText)
	if err != nil {
		return exp, nil, fmt.Errorf("invalid amount %q", amountText)
	}
	if amount == 0 {
		warnings = append(warnings, "zero amount")
	}
	exp.Amount = &amount

	exp.Reference = field(record, cols, "reference")
	if exp.Reference == "" {
		warnings = append(warnings, "missing reference")
	}
	exp.Description = field(record, cols, "description")
	exp.Counterparty = field(record, cols, "counterparty")

	if text := field(record, cols, "budget_rate"); text != "" {
		rate, err := parseAmount(text)
		if err != nil || rate <= 0 {
			warnings = append(warnings, fmt.Sprintf("ignoring invalid budget rate %q", text))
		} else {
			exp.BudgetRate = &rate
		}
	}

	startDate, warn, err := parseDateField(record, cols, "start_date")
	if err != nil {
		return exp, nil, err
	}
	if warn != "" {
		warnings = append(warnings, warn)
	}
	exp.StartDate = startDate

	endDate, warn, err := parseDateField(record, cols, "end_date")
	if err != nil {
		return exp, nil, err
	}
	if warn != "" {
		warnings = append(warnings, warn)
	}
	exp.EndDate = endDate

	if startDate != nil && endDate != nil {
		if !startDate.Before(*endDate) {
			return exp, nil, fmt.Errorf("start date %s is not before end date %s",
				startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
		}
		days := int(endDate.Sub(*startDate).Hours() / 24)
		exp.SettlementPeriodDays = &days
	}

	if text := strings.ToLower(field(record, cols, "instrument")); text != "" {
		switch domain.InstrumentType(text) {
		case domain.InstrumentSpot, domain.InstrumentForward, domain.InstrumentOption,
			domain.InstrumentNDF, domain.InstrumentSwap:
			exp.InstrumentType = domain.InstrumentType(text)
		default:
			warnings = append(warnings, fmt.Sprintf("unknown instrument type %q, defaulting to spot", text))
		}
	}

	if i.pairs != nil {
		approved, err := i.pairs.IsApproved(exp.Pair())
		if err == nil && !approved {
			warnings = append(warnings, fmt.Sprintf("pair %s is not on the approved list", exp.Pair()))
		}
	}

	return exp, warnings, nil
}

// parsePair resolves the currency pair from either a single pair column
// ("EURUSD", "EUR/USD", "EUR-USD") or separate from/to columns.
func (i *Importer) parsePair(record []string, cols map[string]int) (string, string, error) {
	if text := field(record, cols, "pair"); text != "" {
		return utils.SplitPair(text)
	}

	from := strings.ToUpper(field(record, cols, "from"))
	to := strings.ToUpper(field(record, cols, "to"))
	if from == "" || to == "" {
		return "", "", fmt.Errorf("missing currency pair")
	}
	return utils.SplitPair(from + "/" + to)
}

// mapColumns matches header cells against the alias table and returns
// canonical name -> column index. Unknown headers are ignored.
func mapColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for idx, cell := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		for canonical, aliases := range columnAliases {
			if _, taken := cols[canonical]; taken {
				continue
			}
			for _, alias := range aliases {
				if name == alias {
					cols[canonical] = idx
					break
				}
			}
		}
	}
	return cols
}

func requireColumns(cols map[string]int) error {
	var missing []string

	_, hasPair := cols["pair"]
	_, hasFrom := cols["from"]
	_, hasTo := cols["to"]
	if !hasPair && !(hasFrom && hasTo) {
		missing = append(missing, "currency_pair (or from_currency + to_currency)")
	}
	if _, ok := cols["amount"]; !ok {
		missing = append(missing, "amount")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseAmount accepts treasury-export number formats: "$1,234,567.89",
// "1 250 000", plain floats, and signed values for receivables.
func parseAmount(text string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(text)
	return strconv.ParseFloat(cleaned, 64)
}

// parseDateField parses an optional date column. Empty is fine; a present
// but unparseable value fails the row. Implausible years only warn.
func parseDateField(record []string, cols map[string]int, name string) (*time.Time, string, error) {
	text := field(record, cols, name)
	if text == "" {
		return nil, "", nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			var warn string
			if t.Year() < 2000 || t.Year() > 2100 {
				warn = fmt.Sprintf("%s %s looks implausible", name, text)
			}
			return &t, warn, nil
		}
	}

	return nil, "", fmt.Errorf("invalid %s %q", name, text)
}
