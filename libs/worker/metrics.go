package worker

import (
	"github.com/samuel/go-metrics/metrics"
)

// OutcomeCounters counts handler outcomes for one queue. Workers consuming the same queue
// share one set so the counts aggregate.
type OutcomeCounters struct {
	statAck        *metrics.Counter
	statRetryLater *metrics.Counter
	statEscalate   *metrics.Counter
	statUnknown    *metrics.Counter
}

// NewOutcomeCounters registers the counters in metricsRegistry. A nil registry leaves them unreported.
func NewOutcomeCounters(metricsRegistry metrics.Registry) *OutcomeCounters {
	c := &OutcomeCounters{
		statAck:        metrics.NewCounter(),
		statRetryLater: metrics.NewCounter(),
		statEscalate:   metrics.NewCounter(),
		statUnknown:    metrics.NewCounter(),
	}
	if metricsRegistry != nil {
		metricsRegistry.Add("ack", c.statAck)
		metricsRegistry.Add("retry_later", c.statRetryLater)
		metricsRegistry.Add("escalate", c.statEscalate)
		metricsRegistry.Add("unknown_outcome", c.statUnknown)
	}
	return c
}

// Record counts one delivery. It's a no-op on a nil receiver.
func (c *OutcomeCounters) Record(o Outcome) {
	if c == nil {
		return
	}
	c.counter(o).Inc(1)
}

// Count returns how many deliveries ended with o.
func (c *OutcomeCounters) Count(o Outcome) uint64 {
	if c == nil {
		return 0
	}
	return c.counter(o).Count()
}

func (c *OutcomeCounters) counter(o Outcome) *metrics.Counter {
	switch o {
	case Ack:
		return c.statAck
	case RetryLater:
		return c.statRetryLater
	case Escalate:
		return c.statEscalate
	}
	return c.statUnknown
}
