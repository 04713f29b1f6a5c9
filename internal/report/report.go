// Package report renders human-readable run summaries for external
// consumers. The output destination is injected; the engine itself never
// owns a file path.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Reporter writes analysis summaries to a sink.
type Reporter struct {
	w io.Writer
}

// New creates a reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Write renders the summary for one analysis: transaction count, dataset
// type, strategy names, and the per-variant anomaly or path count.
func (r *Reporter) Write(a *domain.Analysis) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Loaded %d transactions of type %s\n", a.TransactionCount, a.DatasetType)
	if a.ProcessorName != "" {
		fmt.Fprintf(&b, "Processed signal using %s\n", a.ProcessorName)
	}

	switch a.Result.Kind {
	case domain.KindGraph:
		fmt.Fprintf(&b, "Detected %d suspicious transaction paths using %s\n",
			len(a.Result.Graph.SuspiciousPaths), a.DetectorName)
		for i, sp := range a.Result.Graph.SuspiciousPaths {
			fmt.Fprintf(&b, "%d. Path: %s\n   Total amount: %.2f\n",
				i+1, strings.Join(sp.Path, " -> "), sp.TotalAmount)
		}
	case domain.KindThreshold:
		fmt.Fprintf(&b, "Detected %d potential fraud cases using %s\n",
			len(a.Result.Threshold.Indices), a.DetectorName)
	}

	if _, err := io.WriteString(r.w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
