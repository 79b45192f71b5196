package errgroup

import (
	"fmt"
	"runtime"
	"strings"
)

const pcFrames = 64

// PanicError is a recovered panic value plus the stack of the goroutine that panicked.
type PanicError struct {
	recovered any
	pcs       []uintptr
}

// NewPanicError wraps a recovered panic value, capturing the caller's stack.
func NewPanicError(recovered any) *PanicError {
	pcs := make([]uintptr, pcFrames)
	pcs = pcs[:runtime.Callers(2, pcs)]
	return &PanicError{recovered: recovered, pcs: pcs}
}

// Recovered returns the original panic value.
func (e *PanicError) Recovered() any {
	return e.recovered
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.recovered)
}

// Unwrap returns the recovered value if it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.recovered.(error); ok {
		return err
	}
	return nil
}

// Format supports %+v, which appends the stack trace.
func (e *PanicError) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		_, _ = fmt.Fprintf(s, "%s\n%s", e.Error(), e.StackTrace())
	case verb == 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = fmt.Fprint(s, e.Error())
	}
}

// StackTrace returns one "function\n\tfile:line" entry per captured frame.
func (e *PanicError) StackTrace() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.pcs)
	for {
		f, more := frames.Next()
		fmt.Fprintf(&sb, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}
	return sb.String()
}
