package errors

import (
	"fmt"
	"strings"
)

// MultiErrors collects field-level validation failures so a request can
// report every problem at once. Fields keep their insertion order.
type MultiErrors struct {
	fields []fieldErrors
}

type fieldErrors struct {
	field  string
	errors []ErrorInfo
}

type ErrorInfo struct {
	Message  string
	RawError error
}

func NewMultiErrors() *MultiErrors {
	return &MultiErrors{}
}

func (e *MultiErrors) Add(field, message string, err error) {
	info := ErrorInfo{Message: message, RawError: err}
	for i := range e.fields {
		if e.fields[i].field == field {
			e.fields[i].errors = append(e.fields[i].errors, info)
			return
		}
	}
	e.fields = append(e.fields, fieldErrors{field: field, errors: []ErrorInfo{info}})
}

func (e *MultiErrors) HasErrors() bool {
	return len(e.fields) > 0
}

func (e *MultiErrors) Error() string {
	var parts []string
	for _, f := range e.fields {
		for _, info := range f.errors {
			parts = append(parts, fmt.Sprintf("%s: %s", f.field, info.Message))
		}
	}
	return strings.Join(parts, " | ")
}
