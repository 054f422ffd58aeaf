package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entregaops-platform/api/internal/order"
)

const (
	skipReasonInvalidFormat = "invalid_format"
	skipReasonInvalidDate   = "invalid_date"
)

// CandidateStatus tags a candidate as a pending create or a pending
// update of an existing order.
type CandidateStatus string

const (
	StatusNew    CandidateStatus = "new"
	StatusUpdate CandidateStatus = "update"
)

var ErrUnknownType = fmt.Errorf("unknown order type")

// Candidate is a parsed, not-yet-committed order record. ExistingID is
// set only for updates and names the stored order the candidate
// supersedes.
type Candidate struct {
	Status       CandidateStatus `json:"status"`
	ExistingID   *uuid.UUID      `json:"existingId,omitempty"`
	OrderNumber  string          `json:"orderNumber"`
	CustomerName string          `json:"customerName"`
	Type         order.Type      `json:"type"`
	Color        string          `json:"color"`
	DeliveryDate time.Time       `json:"deliveryDate"`
	SourceFile   string          `json:"sourceFile,omitempty"`
	Line         int             `json:"line"`
}

// SkippedLine records a discarded input line for the preview report.
// Skips never abort the batch.
type SkippedLine struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Raw    string `json:"raw"`
}

// Result is the reviewable change-set produced by one reconciliation
// pass. Candidates preserve source line order.
type Result struct {
	Candidates []Candidate   `json:"candidates"`
	Skipped    []SkippedLine `json:"skipped"`
	LinesTotal int           `json:"linesTotal"`
}

// Reconcile parses text into candidate records and merges them against
// the existing order snapshot. Lines that fail both field layouts or
// whose date token is invalid are recorded as skips and the batch
// continues. A candidate matching an existing order number becomes an
// update only when the batch type strictly supersedes the stored type;
// otherwise the stored record wins and the line produces nothing.
//
// The existing snapshot is immutable for the whole pass: duplicate
// order numbers within one batch are each evaluated against the
// original snapshot, not against earlier lines of the same batch.
func Reconcile(text string, batchType order.Type, existing []order.Order, sourceFile string) (Result, error) {
	if !batchType.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownType, batchType)
	}

	byNumber := make(map[string]order.Order, len(existing))
	for _, o := range existing {
		if _, ok := byNumber[o.OrderNumber]; !ok {
			byNumber[o.OrderNumber] = o
		}
	}

	var result Result
	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		if strings.TrimSpace(raw) == "" {
			continue
		}
		result.LinesTotal++

		line, ok := ParseLine(raw)
		if !ok {
			if !isHeaderLine(raw) {
				result.Skipped = append(result.Skipped, SkippedLine{Line: lineNo, Reason: skipReasonInvalidFormat, Raw: raw})
			}
			continue
		}

		deliveryDate, err := ParseDeliveryDate(line.DateToken)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedLine{Line: lineNo, Reason: skipReasonInvalidDate, Raw: raw})
			continue
		}

		candidate := Candidate{
			Status:       StatusNew,
			OrderNumber:  line.OrderNumber,
			CustomerName: line.CustomerName,
			Type:         batchType,
			Color:        batchType.Color(),
			DeliveryDate: deliveryDate,
			SourceFile:   sourceFile,
			Line:         lineNo,
		}

		if known, ok := byNumber[line.OrderNumber]; ok {
			if !batchType.Supersedes(known.Type) {
				continue
			}
			id := known.ID
			candidate.Status = StatusUpdate
			candidate.ExistingID = &id
		}
		result.Candidates = append(result.Candidates, candidate)
	}
	return result, nil
}

func isHeaderLine(raw string) bool {
	return strings.Contains(strings.ToLower(raw), headerMarker)
}
