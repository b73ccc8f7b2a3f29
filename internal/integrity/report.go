package integrity

// HealthStatus is the severity of a check outcome. Values are ordered:
// a larger value is strictly worse, so aggregation is a plain max.
type HealthStatus int

const (
	StatusOK HealthStatus = iota
	StatusWarning
	StatusError
)

// String returns the lowercase name used in reports and logs.
func (s HealthStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Worse returns the more severe of two statuses.
func Worse(a, b HealthStatus) HealthStatus {
	if b > a {
		return b
	}
	return a
}

// CheckResult is the outcome of a single integrity check.
type CheckResult struct {
	Success bool
	Status  HealthStatus
	Message string
	// Details lists individual anomalies (corruption messages, FK
	// violations, missing tables) in human-readable form.
	Details []string
}

// ok builds a passing result.
func ok(message string) CheckResult {
	return CheckResult{Success: true, Status: StatusOK, Message: message}
}

// warn builds a warning result; the check still counts as run.
func warn(message string, details ...string) CheckResult {
	return CheckResult{Success: true, Status: StatusWarning, Message: message, Details: details}
}

// fail builds an error result.
func fail(message string, details ...string) CheckResult {
	return CheckResult{Success: false, Status: StatusError, Message: message, Details: details}
}

// HealthReport aggregates the four checks run by FullDatabaseCheck.
// It is computed fresh on every invocation and never persisted.
type HealthReport struct {
	Integrity  CheckResult
	ForeignKey CheckResult
	WAL        CheckResult
	Table      CheckResult

	// Overall is the worst status among the four checks.
	Overall HealthStatus
	// Suggestions are human-actionable next steps derived from the
	// individual results.
	Suggestions []string
}
