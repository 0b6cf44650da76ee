// Package notifications pushes committed order snapshots to subscribers.
//
// The Hub keeps one bounded queue and one delivery goroutine per subscriber, so a
// slow subscriber never delays the writer that committed the change nor any other
// subscriber. When a queue is full the oldest pending snapshot is dropped: a
// subscriber always ends up with the latest state, possibly without some of the
// intermediate ones. Nothing is replayed to subscribers that join later.
package notifications

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"carservice/internal/core/domain/model/order"
)

const DefaultBufferSize = 16

// Callback receives snapshots of one order in commit order. It runs on the
// subscriber's own goroutine.
type Callback func(order.Snapshot)

type Hub struct {
	mu         sync.Mutex
	subs       map[string]map[uint64]*Subscription
	nextID     uint64
	bufferSize int
	closed     bool
	wg         sync.WaitGroup
	logger     *slog.Logger
}

func NewHub(bufferSize int, logger *slog.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		subs:       make(map[string]map[uint64]*Subscription),
		bufferSize: bufferSize,
		logger:     logger.With("component", "notification_hub"),
	}
}

// Subscribe registers callback for updates of orderID. Subscribing to a closed hub
// returns an already cancelled subscription.
func (h *Hub) Subscribe(orderID string, callback Callback) *Subscription {
	sub := &Subscription{
		hub:      h,
		orderID:  orderID,
		callback: callback,
		capacity: h.bufferSize,
		signal:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.stop()
		return sub
	}
	h.nextID++
	sub.id = h.nextID
	if h.subs[orderID] == nil {
		h.subs[orderID] = make(map[uint64]*Subscription)
	}
	h.subs[orderID][sub.id] = sub

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		sub.run(h.logger)
	}()
	return sub
}

// Publish queues snapshot for every subscriber of its order. It never blocks on
// subscribers.
func (h *Hub) Publish(snapshot order.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs[snapshot.ID] {
		if sub.enqueue(snapshot.Clone()) {
			h.logger.Warn("Subscriber queue full, dropped oldest update",
				"order_id", snapshot.ID, "subscription", sub.id)
		}
	}
}

// Subscribers returns the number of active subscriptions for orderID.
func (h *Hub) Subscribers(orderID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[orderID])
}

// Close cancels every subscription and waits for in-flight callbacks to return.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*Subscription
	for _, byID := range h.subs {
		for _, sub := range byID {
			all = append(all, sub)
		}
	}
	h.subs = make(map[string]map[uint64]*Subscription)
	h.mu.Unlock()

	for _, sub := range all {
		sub.stop()
	}
	h.wg.Wait()
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	byID := h.subs[sub.orderID]
	delete(byID, sub.id)
	if len(byID) == 0 {
		delete(h.subs, sub.orderID)
	}
}

// Subscription is a registration returned by Hub.Subscribe.
type Subscription struct {
	hub      *Hub
	id       uint64
	orderID  string
	callback Callback

	mu       sync.Mutex
	queue    []order.Snapshot
	capacity int
	dropped  atomic.Int64

	signal   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Cancel stops delivery. Snapshots still queued are discarded; a callback already
// running is allowed to finish. Cancel may be called any number of times.
func (s *Subscription) Cancel() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.hub.remove(s)
	})
}

// Done is closed once the subscription is cancelled, directly or by Hub.Close.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Dropped returns how many snapshots were discarded because the queue was full.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Subscription) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// enqueue appends snapshot, dropping the oldest queued one when full. It reports
// whether something was dropped.
func (s *Subscription) enqueue(snapshot order.Snapshot) bool {
	s.mu.Lock()
	dropped := false
	if len(s.queue) >= s.capacity {
		s.queue = s.queue[1:]
		s.dropped.Add(1)
		dropped = true
	}
	s.queue = append(s.queue, snapshot)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
	return dropped
}

func (s *Subscription) next() (order.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return order.Snapshot{}, false
	}
	snapshot := s.queue[0]
	s.queue[0] = order.Snapshot{}
	s.queue = s.queue[1:]
	return snapshot, true
}

func (s *Subscription) run(logger *slog.Logger) {
	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
		}
		for {
			select {
			case <-s.done:
				return
			default:
			}
			snapshot, ok := s.next()
			if !ok {
				break
			}
			s.deliver(snapshot, logger)
		}
	}
}

func (s *Subscription) deliver(snapshot order.Snapshot, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Subscriber callback panicked", "order_id", s.orderID, "panic", r)
		}
	}()
	s.callback(snapshot)
}
