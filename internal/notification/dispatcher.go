package notification

import (
	"context"
	"log"
	"net/mail"
	"sync"
	"time"
)

type Options struct {
	Workers        int
	Buffer         int
	Attempts       int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Buffer <= 0 {
		o.Buffer = 256
	}
	if o.Attempts <= 0 {
		o.Attempts = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 200 * time.Millisecond
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 30 * time.Second
	}
	return o
}

// Dispatcher runs a fixed worker pool over a bounded queue. When the queue is
// full the message gets its own goroutine, so every accepted message is
// attempted at least once.
type Dispatcher struct {
	transport Transport
	opts      Options
	queue     chan Message

	mu       sync.RWMutex
	closed   bool
	workers  sync.WaitGroup
	overflow sync.WaitGroup
	sleep    func(context.Context, time.Duration) bool
}

var _ Notifier = (*Dispatcher)(nil)

func NewDispatcher(transport Transport, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		transport: transport,
		opts:      opts,
		queue:     make(chan Message, opts.Buffer),
		sleep:     sleepCtx,
	}
	for i := 0; i < opts.Workers; i++ {
		d.workers.Add(1)
		go d.work()
	}
	return d
}

func (d *Dispatcher) work() {
	defer d.workers.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) Notify(_ context.Context, msg Message) {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		log.Printf("[notify] dropping %s: invalid recipient %q", msg.Kind, msg.To)
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		log.Printf("[notify] dispatcher closed, dropping %s to %s", msg.Kind, msg.To)
		return
	}

	select {
	case d.queue <- msg:
	default:
		d.overflow.Add(1)
		go func() {
			defer d.overflow.Done()
			d.deliver(msg)
		}()
	}
}

// deliver retries transient failures with exponential backoff. Delivery runs on
// its own context: the request that triggered it may already be gone.
func (d *Dispatcher) deliver(msg Message) {
	delay := d.opts.BaseDelay
	for attempt := 1; attempt <= d.opts.Attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.opts.AttemptTimeout)
		err := d.transport.Send(ctx, msg)
		cancel()

		if err == nil {
			return
		}
		if IsPermanent(err) {
			log.Printf("[notify] %s to %s failed permanently: %v", msg.Kind, msg.To, err)
			return
		}
		if attempt == d.opts.Attempts {
			log.Printf("[notify] %s to %s failed after %d attempts: %v", msg.Kind, msg.To, attempt, err)
			return
		}

		log.Printf("[notify] %s to %s attempt %d failed, retrying in %s: %v", msg.Kind, msg.To, attempt, delay, err)
		d.sleep(context.Background(), delay)
		delay *= 2
	}
}

// Close stops accepting messages and waits for queued deliveries.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.workers.Wait()
		d.overflow.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
