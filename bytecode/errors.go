package bytecode

import "fmt"

// InternalError reports a bug in an earlier pass: an unresolved label, a
// double close, a malformed graph or an AST node the compiler does not
// handle. It is raised with panic and never absorbed silently.
type InternalError struct {
	Message string
	Value   any
}

func (e *InternalError) Error() string {
	if e.Value == nil {
		return "internal error: " + e.Message
	}
	return fmt.Sprintf("internal error: %s (%v)", e.Message, e.Value)
}

// Fault panics with an *InternalError carrying value.
func Fault(value any, format string, args ...any) {
	panic(&InternalError{Message: fmt.Sprintf(format, args...), Value: value})
}

// RecoverInternal converts a panicking *InternalError into *errp. Any other
// panic is re-raised. Use it in a deferred call at a public entry point.
func RecoverInternal(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if ie, ok := r.(*InternalError); ok {
		*errp = ie
		return
	}
	panic(r)
}
