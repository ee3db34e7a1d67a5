// Package errors wraps github.com/pkg/errors with the helpers used across the repo.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// New returns an error with the message and a stack trace.
func New(msg string) error {
	return pkgerrors.New(msg)
}

// Errorf formats an error with a stack trace.
func Errorf(format string, args ...interface{}) error {
	return pkgerrors.Errorf(format, args...)
}

// Trace attaches a stack trace at the point of the call. It returns nil for a nil error.
func Trace(err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.WithStack(err)
}

// Wrap adds a message prefix and a stack trace.
func Wrap(err error, msg string) error {
	return pkgerrors.Wrap(err, msg)
}

// Wrapf adds a formatted message prefix and a stack trace.
func Wrapf(err error, format string, args ...interface{}) error {
	return pkgerrors.Wrapf(err, format, args...)
}

// Cause returns the innermost error, unwrapping traces and annotations.
func Cause(err error) error {
	for err != nil {
		switch e := err.(type) {
		case aerr:
			err = e.err
		case interface{ Cause() error }:
			c := e.Cause()
			if c == nil {
				return err
			}
			err = c
		default:
			return err
		}
	}
	return nil
}

// Annotate attaches msg to err for debugging without changing its cause. It returns nil for
// a nil error.
func Annotate(err error, msg string) error {
	if err == nil {
		return nil
	}
	return annotate(err, msg)
}

// Annotatef is Annotate with a formatted message.
func Annotatef(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return annotate(err, fmt.Sprintf(format, args...))
}

// Annotations returns the messages attached to err by Annotate in order.
func Annotations(err error) []string {
	if e, ok := err.(aerr); ok {
		return e.annotations
	}
	return nil
}

func annotate(err error, msg string) aerr {
	e := wrap(err)
	e.annotations = append(e.annotations, msg)
	return e
}

// aerr is an error carrying annotations.
type aerr struct {
	err         error
	annotations []string
}

func wrap(err error) aerr {
	if e, ok := err.(aerr); ok {
		return aerr{err: e.err, annotations: append([]string(nil), e.annotations...)}
	}
	return aerr{err: err}
}

func (e aerr) Error() string {
	if len(e.annotations) == 0 {
		return e.err.Error()
	}
	s := e.err.Error() + " ("
	for i, a := range e.annotations {
		if i != 0 {
			s += ", "
		}
		s += a
	}
	return s + ")"
}

func (e aerr) Unwrap() error {
	return e.err
}

func (e aerr) Format(s fmt.State, verb rune) {
	if f, ok := e.err.(fmt.Formatter); ok && verb == 'v' && s.Flag('+') {
		f.Format(s, verb)
		fmt.Fprintf(s, "\nannotations: %v", e.annotations)
		return
	}
	fmt.Fprint(s, e.Error())
}
