package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/intraverse/tx-indexer/logging"
	"github.com/intraverse/tx-indexer/utils"
)

const EventTxIndexed = "tx_indexed"

type Event struct {
	Type        string      `json:"type"`
	Hash        common.Hash `json:"hash"`
	Method      string      `json:"method"`
	BlockNumber uint        `json:"blockNumber"`
}

func NewTxIndexedEvent(hash common.Hash, method string, blockNumber uint) Event {
	return Event{
		Type:        EventTxIndexed,
		Hash:        hash,
		Method:      method,
		BlockNumber: blockNumber,
	}
}

type Subscriber struct {
	conn  Conn
	alive atomic.Bool
}

// MarkAlive is called when the subscriber answers a heartbeat ping.
func (s *Subscriber) MarkAlive() {
	s.alive.Store(true)
}

func (s *Subscriber) IsAlive() bool {
	return s.alive.Load()
}

// Broadcaster fans out events to registered subscribers. Delivery is best-effort:
// events are never queued or replayed.
type Broadcaster struct {
	logger            logging.Logger
	heartbeatInterval time.Duration

	mu          sync.RWMutex
	subscribers map[Conn]*Subscriber
}

func NewBroadcaster(logger logging.Logger, heartbeatInterval time.Duration) *Broadcaster {
	return &Broadcaster{
		logger:            logger,
		heartbeatInterval: heartbeatInterval,
		subscribers:       make(map[Conn]*Subscriber),
	}
}

func (b *Broadcaster) Register(conn Conn) *Subscriber {
	sub := &Subscriber{conn: conn}
	sub.alive.Store(true)

	b.mu.Lock()
	b.subscribers[conn] = sub
	n := len(b.subscribers)
	b.mu.Unlock()

	Subscribers.Set(float64(n))
	b.logger.WithField("subscribers", n).Debug("registered subscriber")
	return sub
}

func (b *Broadcaster) Deregister(conn Conn) {
	b.mu.Lock()
	_, ok := b.subscribers[conn]
	delete(b.subscribers, conn)
	n := len(b.subscribers)
	b.mu.Unlock()

	if ok {
		Subscribers.Set(float64(n))
		b.logger.WithField("subscribers", n).Debug("deregistered subscriber")
	}
}

func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Publish sends the event to every open subscriber and returns the number of successful sends.
func (b *Broadcaster) Publish(event Event) int {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.WithError(err).Error("can't encode broadcast event")
		return 0
	}

	b.mu.RLock()
	conns := make([]Conn, 0, len(b.subscribers))
	for conn := range b.subscribers {
		conns = append(conns, conn)
	}
	b.mu.RUnlock()

	sent := 0
	for _, conn := range conns {
		if !conn.IsOpen() {
			continue
		}
		if err = conn.Send(data); err != nil {
			SendFailures.Inc()
			b.logger.WithError(err).Debug("can't send event to subscriber")
			continue
		}
		sent++
	}
	MessagesSent.Add(float64(sent))

	if sent > 0 {
		b.logger.WithFields(logrus.Fields{
			"event":   event.Type,
			"tx_hash": event.Hash,
			"clients": sent,
		}).Debug("broadcast event")
	}
	return sent
}

// Heartbeat closes subscribers which did not answer the previous ping and pings the rest.
func (b *Broadcaster) Heartbeat() {
	b.mu.Lock()
	var dead []Conn
	alive := make([]*Subscriber, 0, len(b.subscribers))
	for conn, sub := range b.subscribers {
		if !sub.alive.Load() {
			dead = append(dead, conn)
			delete(b.subscribers, conn)
			continue
		}
		sub.alive.Store(false)
		alive = append(alive, sub)
	}
	n := len(b.subscribers)
	b.mu.Unlock()

	for _, conn := range dead {
		Terminations.Inc()
		if err := conn.Close(); err != nil {
			b.logger.WithError(err).Debug("can't close dead subscriber")
		}
	}
	for _, sub := range alive {
		if err := sub.conn.Ping(); err != nil {
			b.logger.WithError(err).Debug("can't ping subscriber")
		}
	}
	if len(dead) > 0 {
		Subscribers.Set(float64(n))
		b.logger.WithFields(logrus.Fields{
			"terminated":  len(dead),
			"subscribers": n,
		}).Info("terminated dead subscribers")
	}
}

// Start runs the heartbeat loop until ctx is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	b.logger.WithField("interval", b.heartbeatInterval).Info("starting broadcaster heartbeat")
	for {
		if utils.ContextSleep(ctx, b.heartbeatInterval) == nil {
			return
		}
		b.Heartbeat()
	}
}
