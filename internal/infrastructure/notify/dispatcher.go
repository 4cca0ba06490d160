package notify

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

const (
	defaultWorkers = 2
	channelBuffer  = 64
	sendTimeout    = 30 * time.Second
)

// Dispatcher delivers notification emails on a fixed set of background workers.
// Messages to one recipient always go to the same worker, so they keep their order.
// Notify never blocks: when a worker's buffer is full the message is dropped.
type Dispatcher struct {
	workers []chan ports.Message
	mailer  ports.Mailer
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.Message, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Message, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Notify implements ports.Notifier.
func (d *Dispatcher) Notify(msg ports.Message) {
	select {
	case d.workers[d.shardIndex(msg.To)] <- msg:
	default:
		d.log.Warn().Str("to", msg.To).Str("subject", msg.Subject).Msg("notification queue full, message dropped")
	}
}

func (d *Dispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(to))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Message) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			if err := d.mailer.Send(sendCtx, msg); err != nil {
				d.log.Error().Err(err).
					Str("to", msg.To).
					Int("worker_id", id).
					Msg("notification delivery failed")
			}
			cancel()
		}
	}
}
