package importer

import (
	"context"
	"errors"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/entregaops-platform/api/internal/order"
)

// commitConcurrency bounds the number of store operations in flight
// during one change-set commit.
const commitConcurrency = 8

var (
	ErrPartialCommit = errors.New("some change-set operations failed")
	ErrCommitFailed  = errors.New("all change-set operations failed")
)

// CommitFailure records one failed create/update within a batch.
type CommitFailure struct {
	Line        int    `json:"line"`
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
	Error       string `json:"error"`
}

// CommitResult summarizes one change-set commit. There is no rollback:
// a partial failure leaves the succeeded operations in place.
type CommitResult struct {
	Created  int             `json:"created"`
	Updated  int             `json:"updated"`
	Failures []CommitFailure `json:"failures,omitempty"`
}

// Commit applies a reviewed candidate list against the store. Every
// candidate is attempted: operations are issued concurrently and
// awaited as a group, and one failure does not stop the rest. The
// returned error is ErrCommitFailed when nothing succeeded,
// ErrPartialCommit when only some operations did, and nil on total
// success; the result carries the per-operation failures either way.
// Commit order between individual operations is not guaranteed.
func Commit(ctx context.Context, store order.Store, candidates []Candidate) (CommitResult, error) {
	var (
		mu     sync.Mutex
		result CommitResult
	)

	g := new(errgroup.Group)
	g.SetLimit(commitConcurrency)
	for _, candidate := range candidates {
		candidate := candidate
		g.Go(func() error {
			err := commitOne(ctx, store, candidate)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failures = append(result.Failures, CommitFailure{
					Line:        candidate.Line,
					OrderNumber: candidate.OrderNumber,
					Status:      string(candidate.Status),
					Error:       err.Error(),
				})
			case candidate.Status == StatusUpdate:
				result.Updated++
			default:
				result.Created++
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Line < result.Failures[j].Line
	})

	switch {
	case len(result.Failures) == 0:
		return result, nil
	case result.Created+result.Updated == 0:
		return result, ErrCommitFailed
	default:
		return result, ErrPartialCommit
	}
}

func commitOne(ctx context.Context, store order.Store, candidate Candidate) error {
	deliveryDate := order.StartOfDay(candidate.DeliveryDate)

	if candidate.Status == StatusUpdate && candidate.ExistingID != nil {
		params := order.UpdateParams{
			CustomerName: &candidate.CustomerName,
			Type:         &candidate.Type,
			DeliveryDate: &deliveryDate,
		}
		if candidate.SourceFile != "" {
			params.SourceFile = &candidate.SourceFile
		}
		_, err := store.Update(ctx, *candidate.ExistingID, params)
		return err
	}

	params := order.CreateParams{
		OrderNumber:  candidate.OrderNumber,
		CustomerName: candidate.CustomerName,
		Type:         candidate.Type,
		DeliveryDate: &deliveryDate,
	}
	if candidate.SourceFile != "" {
		params.SourceFile = &candidate.SourceFile
	}
	_, err := store.Create(ctx, params)
	return err
}
