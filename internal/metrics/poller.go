package metrics

import (
	"context"
	"time"

	"payflow/internal/core/ports"

	"github.com/rs/zerolog"
)

const defaultPollInterval = 5 * time.Second

// QueueDepthPoller samples queue depths into the queue_depth gauge.
type QueueDepthPoller struct {
	inspector ports.QueueInspector
	metrics   *Metrics
	queues    []string
	interval  time.Duration
	log       zerolog.Logger
}

func NewQueueDepthPoller(inspector ports.QueueInspector, m *Metrics, queues []string, interval time.Duration, log zerolog.Logger) *QueueDepthPoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &QueueDepthPoller{
		inspector: inspector,
		metrics:   m,
		queues:    queues,
		interval:  interval,
		log:       log,
	}
}

// Run samples until ctx is cancelled. An unreachable queue logs and keeps
// the previous gauge value.
func (p *QueueDepthPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.sample(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sample(ctx)
		}
	}
}

func (p *QueueDepthPoller) sample(ctx context.Context) {
	for _, queue := range p.queues {
		depth, err := p.inspector.Depth(ctx, queue)
		if err != nil {
			p.log.Warn().Err(err).Str("queue", queue).Msg("failed to sample queue depth")
			continue
		}
		p.metrics.SetQueueDepth(queue, depth)
	}
}
