package worker

import (
	"testing"

	"github.com/samuel/go-metrics/metrics"
	"github.com/sprucehealth/mediaindexer/libs/test"
)

func TestOutcomeCounters(t *testing.T) {
	reg := metrics.NewRegistry()
	c := NewOutcomeCounters(reg.Scope("progress"))
	c.Record(Ack)
	c.Record(RetryLater)
	c.Record(RetryLater)
	c.Record(Escalate)
	c.Record(Outcome(42))
	test.Equals(t, uint64(1), c.Count(Ack))
	test.Equals(t, uint64(2), c.Count(RetryLater))
	test.Equals(t, uint64(1), c.Count(Escalate))

	counts := make(map[string]uint64)
	test.OK(t, reg.Do(func(name string, metric interface{}) error {
		counts[name] = metric.(*metrics.Counter).Count()
		return nil
	}))
	test.Equals(t, map[string]uint64{
		"progress/ack":             1,
		"progress/retry_later":     2,
		"progress/escalate":        1,
		"progress/unknown_outcome": 1,
	}, counts)
}

func TestOutcomeCountersNil(t *testing.T) {
	var c *OutcomeCounters
	c.Record(Ack)
	test.Equals(t, uint64(0), c.Count(Ack))
}
