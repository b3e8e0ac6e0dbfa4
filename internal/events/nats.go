package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes door payloads to NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	return p.conn.Publish(subject, data)
}

// Flush waits until all published payloads have been processed by the server.
func (p *NATSPublisher) Flush() error {
	return p.conn.Flush()
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// subscribeBuffer is the per-subscription channel depth. Door traffic is
// small and snapshots supersede each other, so a shallow buffer suffices.
const subscribeBuffer = 64

// droppedLogEvery throttles the slow-consumer warning: the first drop is
// logged, then every Nth after that.
const droppedLogEvery = 100

// NATSSubscriber subscribes to door subjects on NATS.
type NATSSubscriber struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSSubscriber connects to NATS with automatic reconnection support,
// logging connection events through logger (slog.Default when nil). Extra
// nats.Option values can be appended.
func NewNATSSubscriber(url string, logger *slog.Logger, opts ...nats.Option) (*NATSSubscriber, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats: disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats: reconnected", "url", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSSubscriber{conn: nc, logger: logger}, nil
}

// Subscribe returns a channel that receives raw payloads for the given
// subject (supports NATS wildcards like "doors.>"). A consumer that falls
// behind sheds the newest payloads; drops are counted and logged. Call the
// returned cancel function to unsubscribe and close the channel.
func (s *NATSSubscriber) Subscribe(subject string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, subscribeBuffer)

	var (
		mu      sync.Mutex
		closed  bool
		once    sync.Once
		dropped atomic.Uint64
	)

	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- msg.Data:
		default:
			// Never block the NATS client on a stalled consumer. A door
			// snapshot is superseded by the next one anyway.
			if n := dropped.Add(1); n == 1 || n%droppedLogEvery == 0 {
				s.logger.Warn("nats: dropping payload for slow consumer",
					"subject", msg.Subject, "dropped", n)
			}
		}
	})
	if err != nil {
		close(ch)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	// Flush ensures the subscription is registered on the server before
	// returning, so that messages published on other connections are routed.
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		close(ch)
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}

	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			mu.Lock()
			closed = true
			mu.Unlock()
			if n := dropped.Load(); n > 0 {
				s.logger.Debug("nats: subscription closed with drops",
					"subject", subject, "dropped", n)
			}
			// Drain remaining messages so senders don't block, then close.
			for {
				select {
				case <-ch:
				default:
					close(ch)
					return
				}
			}
		})
	}

	return ch, cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
