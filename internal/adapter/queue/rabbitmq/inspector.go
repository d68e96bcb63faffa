package rabbitmq

import (
	"context"
	"fmt"
)

// Inspector reports queue depths via passive declares.
type Inspector struct {
	ch Channel
}

func NewInspector(ch Channel) *Inspector {
	return &Inspector{ch: ch}
}

// Depth returns the number of ready messages in a queue. Errors if the
// queue does not exist.
func (i *Inspector) Depth(ctx context.Context, queue string) (int, error) {
	q, err := i.ch.QueueDeclarePassive(queue, true, false, false, false, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue %s: %w", queue, err)
	}
	return q.Messages, nil
}
