// Package queue carries progress events between the pipeline stages. Consumers hand each
// delivery to a Handler and map its worker.Outcome onto the transport's acknowledgement.
package queue

import (
	"context"

	"github.com/sprucehealth/mediaindexer/cmd/svc/mediaindexer/internal/progress"
	"github.com/sprucehealth/mediaindexer/libs/worker"
)

// Publisher publishes progress events.
type Publisher interface {
	Publish(ctx context.Context, ev *progress.Event) error
}

// Handler processes one delivered message body.
type Handler func(ctx context.Context, body string) worker.Outcome
