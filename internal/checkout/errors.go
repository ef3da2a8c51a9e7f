package checkout

import "fmt"

const (
	StepProfile  = "profile"
	StepSnapshot = "snapshot"
	StepReserve  = "reserve"
	StepPersist  = "persist"
)

// StepError reports the checkout step that failed and, for per-product steps,
// the product involved. It unwraps to the underlying domain error.
type StepError struct {
	Step      string
	ProductID string
	Err       error
}

func (e *StepError) Error() string {
	if e.ProductID != "" {
		return fmt.Sprintf("checkout %s %s: %v", e.Step, e.ProductID, e.Err)
	}
	return fmt.Sprintf("checkout %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
