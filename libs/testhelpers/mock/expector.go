package mock

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// Expectation is a call a mock is expected to receive.
type Expectation struct {
	fName   string
	params  []interface{}
	returns []interface{}
}

// NewExpectation returns an expectation of a call to f (a method value of the mock) with params.
func NewExpectation(f interface{}, params ...interface{}) *Expectation {
	return &Expectation{
		fName:  shortFuncName(runtime.FuncForPC(reflect.ValueOf(f).Pointer()).Name()),
		params: params,
	}
}

// WithReturns sets the values returned to the mock when the call is recorded.
func (e *Expectation) WithReturns(rets ...interface{}) *Expectation {
	e.returns = rets
	return e
}

func (e *Expectation) String() string {
	return fmt.Sprintf("%s(%#v)", e.fName, e.params)
}

// Finisher is implemented by mocks that can verify all expectations were met.
type Finisher interface {
	Finish()
}

// FinishAll calls Finish on every mock.
func FinishAll(fs ...Finisher) {
	for _, f := range fs {
		f.Finish()
	}
}

// Expector records calls on a mock and checks them against the ordered expectations.
type Expector struct {
	T     testing.TB
	Debug bool

	mu       sync.Mutex
	expected []*Expectation
}

// Expect adds expectations in the order the calls should happen.
func (e *Expector) Expect(exps ...*Expectation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expected = append(e.expected, exps...)
}

// Record checks the call of the calling method against the next expectation and returns the
// staged return values.
func (e *Expector) Record(params ...interface{}) []interface{} {
	pc, _, _, _ := runtime.Caller(1)
	name := shortFuncName(runtime.FuncForPC(pc).Name())

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Debug && e.T != nil {
		e.T.Logf("mock: call %s(%#v)", name, params)
	}
	if len(e.expected) == 0 {
		e.fatalf("mock: unexpected call %s(%#v)", name, params)
		return nil
	}
	exp := e.expected[0]
	e.expected = e.expected[1:]
	if exp.fName != name {
		e.fatalf("mock: expected call %s got %s(%#v)", exp, name, params)
		return nil
	}
	if len(exp.params) != len(params) {
		e.fatalf("mock: expected %d params for %s got %d", len(exp.params), name, len(params))
		return nil
	}
	for i, p := range params {
		if !reflect.DeepEqual(exp.params[i], p) {
			e.fatalf("mock: param %d of %s\nexp: %#v\ngot: %#v", i, name, exp.params[i], p)
			return nil
		}
	}
	return exp.returns
}

// Finish fails the test if expected calls were never made.
func (e *Expector) Finish() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.expected) != 0 {
		e.fatalf("mock: %d expected calls not made, next: %s", len(e.expected), e.expected[0])
	}
}

func (e *Expector) fatalf(format string, args ...interface{}) {
	if e.T == nil {
		panic(fmt.Sprintf(format, args...))
	}
	e.T.Helper()
	e.T.Fatalf(format, args...)
}

// SafeError returns the value as an error or nil when it's nil.
func SafeError(v interface{}) error {
	if v == nil {
		return nil
	}
	return v.(error)
}

// shortFuncName turns pkg.(*T).Method-fm and pkg.(*T).Method into Method.
func shortFuncName(name string) string {
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
