package fill

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meibo/pkg/errors"
)

// Issue is one degraded substitution.
type Issue struct {
	Code    errors.Code
	Field   string // logical field or roster reference
	Record  int    // 1-based record index, 0 when not tied to a record
	Message string
}

// Error renders the issue as a structured error.
func (i Issue) Error() string {
	return errors.New(i.Code, "%s", i.Message).Error()
}

// Report collects the issues of one or more fills. It is safe for
// concurrent use; a nil *Report discards everything.
type Report struct {
	// Logger, when set, receives each issue as a warning (resource and
	// reference errors) or a debug message (missing data).
	Logger *log.Logger

	mu     sync.Mutex
	issues []Issue
}

// NewReport returns a report that logs to logger.
func NewReport(logger *log.Logger) *Report {
	return &Report{Logger: logger}
}

func (r *Report) add(code errors.Code, field string, record int, format string, args ...any) {
	if r == nil {
		return
	}
	is := Issue{Code: code, Field: field, Record: record, Message: fmt.Sprintf(format, args...)}
	r.mu.Lock()
	r.issues = append(r.issues, is)
	r.mu.Unlock()

	if r.Logger == nil {
		return
	}
	if code == errors.ErrCodeData {
		r.Logger.Debug(is.Message, "code", code, "field", field, "record", record)
		return
	}
	r.Logger.Warn(is.Message, "code", code, "field", field, "record", record)
}

// Issues returns a copy of the collected issues in arrival order.
func (r *Report) Issues() []Issue {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Issue(nil), r.issues...)
}

// Count returns the number of issues with code.
func (r *Report) Count(code errors.Code) int {
	n := 0
	for _, is := range r.Issues() {
		if is.Code == code {
			n++
		}
	}
	return n
}

// Len returns the number of collected issues.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.issues)
}
