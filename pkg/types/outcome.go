package types

// OutcomeStatus classifies how a provisioning stage (or one step inside
// it) finished.
type OutcomeStatus string

const (
	// StatusOK means the stage converged to its desired state, including
	// the "already in desired state" case.
	StatusOK OutcomeStatus = "ok"

	// StatusDegraded means the stage completed but a best-effort step
	// failed; the install remains valid with reduced functionality.
	StatusDegraded OutcomeStatus = "degraded"

	// StatusFailed means the stage hit a fatal error and the run stops.
	StatusFailed OutcomeStatus = "failed"

	// StatusSkipped means the stage did not apply to this configuration.
	StatusSkipped OutcomeStatus = "skipped"
)

// Outcome is the explicit record of how a stage finished. Best-effort
// failures are carried here as degraded outcomes instead of being
// swallowed, so the caller can aggregate them into the final report.
type Outcome struct {
	// Stage names the provisioning stage, e.g. "filesystem" or "service".
	Stage string

	// Status classifies the result.
	Status OutcomeStatus

	// Detail is a one-line human-readable summary.
	Detail string

	// Warnings lists the best-effort failures tolerated during the stage.
	Warnings []string

	// Err is set when Status is StatusFailed.
	Err error
}

// OK builds a successful outcome.
func OK(stage, detail string) Outcome {
	return Outcome{Stage: stage, Status: StatusOK, Detail: detail}
}

// Degraded builds an outcome that succeeded with warnings.
func Degraded(stage, detail string, warnings []string) Outcome {
	return Outcome{Stage: stage, Status: StatusDegraded, Detail: detail, Warnings: warnings}
}

// Skipped builds an outcome for a stage that did not apply.
func Skipped(stage, detail string) Outcome {
	return Outcome{Stage: stage, Status: StatusSkipped, Detail: detail}
}

// Failed builds a fatal outcome.
func Failed(stage string, err error) Outcome {
	return Outcome{Stage: stage, Status: StatusFailed, Detail: err.Error(), Err: err}
}

// Degraded reports whether the outcome carries warnings.
func (o Outcome) IsDegraded() bool {
	return o.Status == StatusDegraded || len(o.Warnings) > 0
}
