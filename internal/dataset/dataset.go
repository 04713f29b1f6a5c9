// Package dataset parses raw transaction lines into typed, immutable
// datasets and derives the entity relationship graph from them.
package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/graph"
)

// fieldCount is the exact number of comma-separated fields per line.
const fieldCount = 4

const dateLayout = "2006-01-02"

// Dataset is an ordered, homogeneous collection of transaction records
// with parallel timestamp/amount series. It is built once and never
// mutated; accessors return copies so callers cannot alias internal state.
type Dataset struct {
	dtype      domain.DatasetType
	records    []domain.TransactionRecord
	timestamps []float64
	amounts    []float64
}

// Build parses raw lines into a Dataset of the declared type. Blank lines
// are skipped. A line with the wrong field count, a non-numeric amount or
// timestamp, or an invalid claim date fails the whole build with a
// *domain.ParseError; no partial dataset is returned.
func Build(lines []string, dtype domain.DatasetType) (*Dataset, error) {
	if !dtype.Valid() {
		return nil, domain.NewConfigurationError("dataset.type", "unsupported dataset type: %q", dtype)
	}

	ds := &Dataset{dtype: dtype}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) != fieldCount {
			return nil, &domain.ParseError{
				Line:    i + 1,
				Content: line,
				Reason:  "expected " + strconv.Itoa(fieldCount) + " comma-separated fields, got " + strconv.Itoa(len(parts)),
			}
		}
		for j, p := range parts {
			parts[j] = strings.TrimSpace(p)
		}

		switch dtype {
		case domain.DatasetCreditCard:
			ts, err := strconv.ParseFloat(parts[0], 64)
			if err != nil {
				return nil, &domain.ParseError{Line: i + 1, Content: line, Reason: "invalid timestamp", Err: err}
			}
			amount, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return nil, &domain.ParseError{Line: i + 1, Content: line, Reason: "invalid amount", Err: err}
			}
			ds.append(domain.TransactionRecord{CreditCard: &domain.CreditCardRecord{
				Timestamp: ts,
				Amount:    amount,
				Merchant:  parts[2],
				CardID:    parts[3],
			}}, ts, amount)

		case domain.DatasetInsurance:
			date, err := time.Parse(dateLayout, parts[0])
			if err != nil {
				return nil, &domain.ParseError{Line: i + 1, Content: line, Reason: "invalid claim date, want YYYY-MM-DD", Err: err}
			}
			amount, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return nil, &domain.ParseError{Line: i + 1, Content: line, Reason: "invalid claim amount", Err: err}
			}
			// UTC midnight of the claim date
			ts := float64(date.UTC().Unix())
			ds.append(domain.TransactionRecord{Insurance: &domain.InsuranceClaimRecord{
				ClaimDate:   parts[0],
				ClaimAmount: amount,
				PolicyID:    parts[2],
				ClaimType:   parts[3],
				Timestamp:   ts,
			}}, ts, amount)
		}
	}

	return ds, nil
}

func (d *Dataset) append(rec domain.TransactionRecord, ts, amount float64) {
	d.records = append(d.records, rec)
	d.timestamps = append(d.timestamps, ts)
	d.amounts = append(d.amounts, amount)
}

// Type returns the declared dataset type.
func (d *Dataset) Type() domain.DatasetType { return d.dtype }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// TimeSeries returns copies of the index-aligned timestamp and amount
// series, in insertion order.
func (d *Dataset) TimeSeries() (timestamps, amounts []float64) {
	timestamps = make([]float64, len(d.timestamps))
	copy(timestamps, d.timestamps)
	amounts = make([]float64, len(d.amounts))
	copy(amounts, d.amounts)
	return timestamps, amounts
}

// Amounts returns a copy of the amount series.
func (d *Dataset) Amounts() []float64 {
	out := make([]float64, len(d.amounts))
	copy(out, d.amounts)
	return out
}

// Records returns a copy of the record sequence.
func (d *Dataset) Records() []domain.TransactionRecord {
	out := make([]domain.TransactionRecord, len(d.records))
	copy(out, d.records)
	return out
}

// BuildGraph derives the relationship graph: one directed edge per
// transaction from the card/policy to the merchant/claim type, weighted
// by amount. The graph is rebuilt from scratch on every call; callers
// that need it repeatedly should hold on to the result.
func (d *Dataset) BuildGraph() *graph.Graph {
	g := graph.New()
	for i, rec := range d.records {
		g.AddEdge(rec.SourceEntity(), rec.TargetEntity(), d.amounts[i], d.timestamps[i])
	}
	return g
}
