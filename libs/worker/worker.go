package worker

import (
	"time"
)

// Worker represents the interface that long running background consumers should conform to
type Worker interface {
	Start()
	Stop(wait time.Duration)
	Started() bool
}

// Outcome is what a message handler decided about a delivery. The transport maps it onto its
// own acknowledgement primitive.
type Outcome int

const (
	// Ack means processing reached a terminal decision and the message must be removed.
	Ack Outcome = iota
	// RetryLater means the message must stay on the queue and be redelivered after a backoff.
	RetryLater
	// Escalate means the message can never be processed. It is removed from the queue and
	// routed to a dead-letter destination when one exists.
	Escalate
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ACK"
	case RetryLater:
		return "RETRY_LATER"
	case Escalate:
		return "ESCALATE"
	}
	return "UNKNOWN"
}
