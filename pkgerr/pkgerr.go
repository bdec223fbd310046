// Package pkgerr defines the typed error kinds used by the check
// pipeline's error handling design (spec §7).
package pkgerr

import "fmt"

// ConfigurationError is a bad pattern, unknown repo, or unknown scope.
// It is surfaced to the user and aborts startup.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ReporterInitError means the reporter's output destination could not
// be opened. It aborts startup.
type ReporterInitError struct {
	Destination string
	Err         error
}

func (e *ReporterInitError) Error() string {
	return fmt.Sprintf("reporter init error: cannot open %q: %v", e.Destination, e.Err)
}

func (e *ReporterInitError) Unwrap() error { return e.Err }

// MetadataError means a recipe's metadata could not be parsed or
// evaluated. The runner converts it into a MetadataError Result,
// deduplicated by (PackageIdentity, Identity).
type MetadataError struct {
	Category string
	Package  string
	Version  string
	Attr     string
	Err      error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata error: %s/%s-%s[%s]: %v", e.Category, e.Package, e.Version, e.Attr, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// PackageIdentity is the "pkg" half of the runner's dedup key.
func (e *MetadataError) PackageIdentity() string {
	return fmt.Sprintf("%s/%s-%s", e.Category, e.Package, e.Version)
}

// Identity is the "underlying_error" half of the runner's dedup key.
func (e *MetadataError) Identity() string {
	return fmt.Sprintf("%s:%v", e.Attr, e.Err)
}

// InvariantViolation is a fatal, unrecoverable internal error: the
// planner produced an impossible plan, or a sink emitted a result
// kind outside its declared known_results. It is raised via panic,
// never returned, matching spec §7's "fatal assertion".
type InvariantViolation struct {
	Message string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Message)
}

// Raise panics with an InvariantViolation built from a formatted
// message.
func Raise(format string, args ...any) {
	panic(&InvariantViolation{Message: fmt.Sprintf(format, args...)})
}
