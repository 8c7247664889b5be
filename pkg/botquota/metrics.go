package botquota

import "time"

// Metrics defines the interface for tracking quota decisions and store health.
type Metrics interface {
	// RecordDecision records the verdict of a policy evaluation.
	RecordDecision(verdict string)

	// RecordNearCap records an allow that carried the near-cap warning.
	RecordNearCap()

	// RecordStoreOperation records the duration and status of a store operation.
	RecordStoreOperation(operation string, duration time.Duration, err error)

	// RecordStoreDegraded records a store operation that failed and was
	// resolved by the fail-open policy.
	RecordStoreDegraded(operation string)
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordDecision(verdict string)                                        {}
func (n *NoopMetrics) RecordNearCap()                                                       {}
func (n *NoopMetrics) RecordStoreOperation(operation string, duration time.Duration, err error) {}
func (n *NoopMetrics) RecordStoreDegraded(operation string)                                 {}
