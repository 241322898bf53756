package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/notify"
	"github.com/kbukum/vidscribe/pipeline"
)

// Close reasons returned by Session.Run.
var (
	ErrEvicted   = errors.New("live: subscriber evicted, queue full")
	ErrHubClosed = errors.New("live: hub closed")
)

// Transport writes to one connected client.
type Transport interface {
	// Kind names the transport in logs, e.g. "websocket".
	Kind() string
	// Send writes one message.
	Send(data []byte) error
	// Close releases the connection. It may be called more than once.
	Close() error
}

// Pinger is implemented by transports that need periodic keep-alive traffic.
type Pinger interface {
	Ping() error
}

// State is the lifecycle state of a Session.
type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one live connection registered on a hub topic.
type Session struct {
	hub       *notify.Hub
	sub       *notify.Subscriber
	transport Transport
	keepAlive time.Duration
	log       *logger.Logger

	state     atomic.Int32
	closeOnce sync.Once
}

// Open subscribes a new session and sends the connection acknowledgement.
// The subscription is in place before the acknowledgement is written, so no
// message published after Open returns is missed.
func Open(hub *notify.Hub, t Transport, cfg Config) (*Session, error) {
	s := &Session{
		hub:       hub,
		transport: t,
		keepAlive: cfg.KeepAlive,
	}
	s.state.Store(int32(StateConnecting))

	sub, err := hub.Subscribe(cfg.Topic)
	if err != nil {
		s.state.Store(int32(StateClosed))
		_ = t.Close()
		return nil, err
	}
	s.sub = sub
	s.log = logger.WithComponent("live").WithFields(logger.Fields(
		logger.FieldSubscriberID, sub.ID,
		logger.FieldTopic, sub.Topic,
		logger.FieldTransport, t.Kind(),
	))

	ack, err := pipeline.ConnectionMessage(cfg.ConnectedMessage).Encode()
	if err == nil {
		err = t.Send(ack)
	}
	if err != nil {
		s.Close()
		return nil, err
	}

	s.state.Store(int32(StateActive))
	s.log.Info("Session connected")
	return s, nil
}

// ID returns the subscriber ID of the session.
func (s *Session) ID() string { return s.sub.ID }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Run forwards published messages to the transport until ctx ends, the
// queue closes or a write fails. It always closes the session and returns
// the close reason; a nil error means the client went away normally.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()

	var tick <-chan time.Time
	pinger, canPing := s.transport.(Pinger)
	if canPing && s.keepAlive > 0 {
		t := time.NewTicker(s.keepAlive)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case data, ok := <-s.sub.Events():
			if !ok {
				if s.sub.Evicted() {
					return ErrEvicted
				}
				return ErrHubClosed
			}
			if err := s.transport.Send(data); err != nil {
				return err
			}

		case <-tick:
			if err := pinger.Ping(); err != nil {
				return err
			}
		}
	}
}

// Close unsubscribes and closes the transport. Only the first call has an
// effect.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		s.hub.Unsubscribe(s.sub.Topic, s.sub)
		_ = s.transport.Close()
		s.log.Info("Session closed")
	})
}

// logClose records why a session ended. Transport faults stay in the logs.
func logClose(log *logger.Logger, err error) {
	switch {
	case err == nil:
		log.Debug("Client disconnected")
	case errors.Is(err, ErrHubClosed):
		log.Debug("Session ended by shutdown")
	default:
		log.Warn("Session closed with error", logger.Fields(logger.FieldError, err.Error()))
	}
}
