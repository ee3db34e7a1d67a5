// Package test provides the assertion helpers used across the repo's tests.
package test

import (
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

// Assert fails the test if the condition is false.
func Assert(tb testing.TB, condition bool, msg string, v ...interface{}) {
	tb.Helper()
	if !condition {
		tb.Fatalf("%s: "+msg, append([]interface{}{caller()}, v...)...)
	}
}

// OK fails the test if err is not nil.
func OK(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Fatalf("%s: unexpected error: %s", caller(), err.Error())
	}
}

// Equals fails the test if exp is not deeply equal to act.
func Equals(tb testing.TB, exp, act interface{}) {
	tb.Helper()
	if !reflect.DeepEqual(exp, act) {
		tb.Fatalf("%s:\n\n\texp: %#v\n\n\tgot: %#v", caller(), exp, act)
	}
}

// AssertNil fails the test if v is not nil.
func AssertNil(tb testing.TB, v interface{}) {
	tb.Helper()
	if !isNil(v) {
		tb.Fatalf("%s: expected nil, got %#v", caller(), v)
	}
}

// AssertNotNil fails the test if v is nil.
func AssertNotNil(tb testing.TB, v interface{}) {
	tb.Helper()
	if isNil(v) {
		tb.Fatalf("%s: expected non-nil value", caller())
	}
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "???"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
