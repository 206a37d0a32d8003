package match

// Outcome tags how a raw batch crossed the trust boundary.
type Outcome string

const (
	// OutcomeComplete means the whole batch satisfied the contract.
	OutcomeComplete Outcome = "complete"
	// OutcomePartial means the batch failed as a whole and some elements were salvaged.
	OutcomePartial Outcome = "partial"
	// OutcomeEmpty means nothing usable survived (including non-array input).
	OutcomeEmpty Outcome = "empty"
)

// Reconciliation is the tagged result of reconciling one raw batch.
type Reconciliation struct {
	Outcome  Outcome
	Results  []Result
	Received int
	Dropped  int
}
