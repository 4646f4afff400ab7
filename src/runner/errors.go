package runner

import "errors"

// Every operation failure is classified by one of these sentinels and then
// folded into a failed Result at the operation boundary; nothing escapes to
// the dispatcher as a raw error.
var (
	ErrValidation    = errors.New("validation failed")
	ErrTimeout       = errors.New("operation timed out")
	ErrProcess       = errors.New("process failed")
	ErrReportMissing = errors.New("report file missing")
	ErrParse         = errors.New("report not parseable")
)
