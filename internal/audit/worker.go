package audit

import (
	"context"
	"time"
)

// writeTimeout bounds a single background write.
const writeTimeout = 10 * time.Second

// run drains the queue until Close closes it.
func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := p.write(ctx, event); err != nil {
			p.metrics.failed()
			p.logger.Error("failed to write audit event",
				"verification_id", event.VerificationID,
				"error", err,
			)
		}
		cancel()
	}
}
