package tco

import "fmt"

const (
	CodeInvalidEnum    = "invalid_enum"
	CodeDivisionByZero = "division_by_zero"
	CodeOutOfRange     = "out_of_range"
)

// Error is returned for every input or arithmetic failure in the engine.
type Error struct {
	Code    string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}

func newInvalidEnum(field string, value any) *Error {
	return &Error{Code: CodeInvalidEnum, Field: field, Message: fmt.Sprintf("unrecognized value %v", value)}
}

func newOutOfRange(field string, value any, bounds string) *Error {
	return &Error{Code: CodeOutOfRange, Field: field, Message: fmt.Sprintf("%v outside %s", value, bounds)}
}

func newDivisionByZero(field string) *Error {
	return &Error{Code: CodeDivisionByZero, Field: field, Message: "denominator is zero"}
}
