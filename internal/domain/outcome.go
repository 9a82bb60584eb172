package domain

// FailReason tags why an acquisition attempt did not buy.
type FailReason string

const (
	// FailSecurityRejected means the risk gate issued an insecure verdict.
	// A deliberate decision, not an error.
	FailSecurityRejected FailReason = "SECURITY_REJECTED"
	// FailInsufficientFunds means wallet balance was below the spend limit.
	FailInsufficientFunds FailReason = "INSUFFICIENT_FUNDS"
	// FailCapacityQueued means concurrency was exhausted and the asset was
	// appended to the overflow queue. A backpressure signal, not a promise
	// of future execution.
	FailCapacityQueued FailReason = "CAPACITY_QUEUED"
	// FailExecutionError means the attempt failed at some stage of execution.
	FailExecutionError FailReason = "EXECUTION_ERROR"
)

// AcquisitionOutcome records the result of one acquisition attempt.
// Immutable once produced.
type AcquisitionOutcome struct {
	OutcomeID     string     // deterministic hash, see idhash
	Mint          string     // asset id
	Success       bool       // true iff units were acquired
	SpentSOL      float64    // amount spent (0 on failure)
	UnitsReceived float64    // token units received (0 on failure)
	Reference     string     // transaction reference from the executor
	Reason        FailReason // failure tag, empty on success
	Error         string     // human description of the failure
	Timestamp     int64      // Unix timestamp in milliseconds
}
