package pipeline

import "fmt"

// DataLoadError is the single error kind surfaced to the user when a workbook
// cannot be turned into rows. No row reaches the classifier when it is returned.
type DataLoadError struct {
	Source string
	Reason string
	Err    error
}

func (e *DataLoadError) Error() string {
	msg := fmt.Sprintf("no se pudo cargar %q: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataLoadError) Unwrap() error { return e.Err }

func loadErr(source, reason string, err error) *DataLoadError {
	return &DataLoadError{Source: source, Reason: reason, Err: err}
}
