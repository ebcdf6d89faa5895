package domain

// ResultStatus represents the outcome of a single executed test.
type ResultStatus string

// Result status values reported on the result stream.
const (
	// ResultStatusPassed indicates a test that ran and completed without failure.
	ResultStatusPassed ResultStatus = "passed"
	// ResultStatusFailed indicates a test with an assertion failure or an error.
	ResultStatusFailed ResultStatus = "failed"
	// ResultStatusSkipped indicates a test excluded from execution (@Ignore, @Disabled,
	// enabled=false, failed assumptions).
	ResultStatusSkipped ResultStatus = "skipped"
)
