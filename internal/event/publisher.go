package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/filmdb/auth-service/internal/logger"
	"github.com/filmdb/auth-service/internal/model"
)

// Handler consumes a delivered registration event, e.g. by sending the
// confirmation mail.
type Handler func(ctx context.Context, event model.UserRegistered) error

var _ model.EventSink = (*Publisher)(nil)

// Publisher implements model.EventSink with an in-process queue. A single
// worker drains the queue and delivers each event to the handler with
// exponential backoff, giving at-least-once delivery while the process is
// up. The engine only enqueues; delivery failures never bounce back to it.
type Publisher struct {
	handler Handler
	queue   chan model.UserRegistered
	logger  *logger.Logger

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewPublisher creates a Publisher and starts its delivery worker.
func NewPublisher(handler Handler, queueSize int, logger *logger.Logger) *Publisher {
	p := &Publisher{
		handler: handler,
		queue:   make(chan model.UserRegistered, queueSize),
		logger:  logger,
		done:    make(chan struct{}),
	}

	p.wg.Add(1)
	go p.run()

	return p
}

// Publish enqueues the event without blocking. It fails only when the
// queue is full or the publisher is shutting down.
func (p *Publisher) Publish(ctx context.Context, event model.UserRegistered) error {
	select {
	case <-p.done:
		return fmt.Errorf("event publisher is closed")
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case p.queue <- event:
		return nil
	default:
		return fmt.Errorf("event queue is full")
	}
}

// Close stops accepting events, drains the queue and waits for in-flight
// deliveries to finish.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *Publisher) run() {
	defer p.wg.Done()

	for {
		select {
		case ev := <-p.queue:
			p.deliver(ev)
		case <-p.done:
			for {
				select {
				case ev := <-p.queue:
					p.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) deliver(ev model.UserRegistered) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := p.handler(ctx, ev); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		p.logger.Error("failed to deliver user registered event",
			"user_id", ev.UserID,
			"error", err.Error())
	}
}
