// Package idempotency remembers which order a checkout Idempotency-Key
// produced, so a retried request returns the original order instead of
// placing a second one.
package idempotency

import (
	"context"
	"errors"
)

// ErrInProgress is returned by Begin while another request holding the same
// key has not finished.
var ErrInProgress = errors.New("request with this idempotency key is in progress")

type Store interface {
	// Begin claims key. started is true when the caller now owns the key and
	// must call Complete or Abort. Otherwise orderID is the order produced by
	// the earlier request.
	Begin(ctx context.Context, key string) (orderID string, started bool, err error)
	Complete(ctx context.Context, key, orderID string) error
	Abort(ctx context.Context, key string) error
}

const pendingMarker = "pending"

func scopedKey(key string) string {
	return "storefront:checkout:idempotency:" + key
}
