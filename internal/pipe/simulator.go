package pipe

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Starter starts one execution of the target and returns once the start is
// acknowledged. It does not wait for the execution to finish.
type Starter interface {
	StartExecution(ctx context.Context, input json.RawMessage) error
}

// StarterFunc adapts a function to Starter.
type StarterFunc func(ctx context.Context, input json.RawMessage) error

// StartExecution implements Starter.
func (f StarterFunc) StartExecution(ctx context.Context, input json.RawMessage) error {
	return f(ctx, input)
}

// AlarmState is the dead-letter alarm state.
type AlarmState string

const (
	AlarmOK    AlarmState = "OK"
	AlarmAlarm AlarmState = "ALARM"
)

// Message is a queue record.
type Message struct {
	ID           string
	Body         json.RawMessage
	ReceiveCount int
	visibleAt    time.Time
}

// Simulator runs a pipe configuration in memory.
type Simulator struct {
	cfg     Config
	target  Starter
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics

	mu          sync.Mutex
	queue       []*Message
	deadLetters []*Message
	alarm       AlarmState
	alarmsFired int
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithClock sets the time source used for visibility timeouts.
func WithClock(now func() time.Time) SimulatorOption {
	return func(s *Simulator) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) SimulatorOption {
	return func(s *Simulator) { s.log = l }
}

// NewSimulator returns a simulator delivering to target. Metrics are
// registered with reg when it is non-nil.
func NewSimulator(cfg Config, target Starter, reg prometheus.Registerer, opts ...SimulatorOption) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := newMetrics(reg, cfg.PipeName)
	if err != nil {
		return nil, fmt.Errorf("registering pipe metrics: %w", err)
	}

	s := &Simulator{
		cfg:     cfg,
		target:  target,
		now:     time.Now,
		log:     zerolog.Nop(),
		metrics: m,
		alarm:   AlarmOK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send enqueues a message and returns its ID.
func (s *Simulator) Send(body json.RawMessage) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := &Message{ID: uuid.NewString(), Body: append(json.RawMessage(nil), body...), visibleAt: s.now()}
	s.queue = append(s.queue, msg)
	return msg.ID
}

// Poll receives at most one visible message and delivers it. It reports
// whether a message was received. A failed delivery leaves the message
// invisible until the visibility timeout elapses; a message received more
// than MaxReceiveCount times is moved to the dead-letter queue instead.
func (s *Simulator) Poll(ctx context.Context) (bool, error) {
	msg, ok := s.receive()
	if !ok {
		return false, nil
	}

	input, err := extractBody(msg.Body)
	if err == nil {
		err = s.target.StartExecution(ctx, input)
	}
	if err != nil {
		s.metrics.deliveries.WithLabelValues("failed").Inc()
		s.log.Warn().Err(err).Str("message", msg.ID).Int("receiveCount", msg.ReceiveCount).Msg("delivery failed")
		return true, nil
	}

	s.metrics.deliveries.WithLabelValues("started").Inc()
	s.delete(msg.ID)
	return true, nil
}

// Drain polls until no message is visible.
func (s *Simulator) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		got, err := s.Poll(ctx)
		if err != nil {
			return err
		}
		if !got {
			return nil
		}
	}
}

// receive marks the first visible message in flight and returns a copy of it.
func (s *Simulator) receive() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for i := 0; i < len(s.queue); {
		msg := s.queue[i]
		if msg.visibleAt.After(now) {
			i++
			continue
		}
		if msg.ReceiveCount >= s.cfg.MaxReceiveCount {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			s.deadLetterLocked(msg)
			continue
		}
		msg.ReceiveCount++
		msg.visibleAt = now.Add(s.cfg.VisibilityTimeout)
		return *msg, true
	}
	return Message{}, false
}

func (s *Simulator) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.queue {
		if m.ID == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

func (s *Simulator) deadLetterLocked(msg *Message) {
	s.deadLetters = append(s.deadLetters, msg)
	s.metrics.deadLettered.Inc()
	s.log.Error().Str("message", msg.ID).Int("receiveCount", msg.ReceiveCount).Msg("moved to dead-letter queue")
	s.evaluateAlarmLocked()
}

// The alarm is edge triggered: it fires on the OK to ALARM transition only.
func (s *Simulator) evaluateAlarmLocked() {
	depth := len(s.deadLetters)
	s.metrics.dlqDepth.Set(float64(depth))

	breaching := depth >= s.cfg.DeadLetterThreshold
	switch {
	case breaching && s.alarm == AlarmOK:
		s.alarm = AlarmAlarm
		s.alarmsFired++
		s.metrics.alarms.Inc()
		s.log.Error().Int("depth", depth).Str("topic", s.cfg.AlarmTopicName).Msg("dead-letter alarm")
	case !breaching && s.alarm == AlarmAlarm:
		s.alarm = AlarmOK
	}
}

// PurgeDeadLetters empties the dead-letter queue and returns the messages.
func (s *Simulator) PurgeDeadLetters() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, 0, len(s.deadLetters))
	for _, m := range s.deadLetters {
		out = append(out, *m)
	}
	s.deadLetters = nil
	s.evaluateAlarmLocked()
	return out
}

// Depth returns the number of messages in the queue and dead-letter queue.
func (s *Simulator) Depth() (queue, deadLetter int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue), len(s.deadLetters)
}

// Alarm returns the alarm state and how many times it has fired.
func (s *Simulator) Alarm() (AlarmState, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alarm, s.alarmsFired
}

// extractBody applies the pipe's input template: the record body is the
// target input. A body that is not JSON is passed on as a JSON string.
func extractBody(body json.RawMessage) (json.RawMessage, error) {
	if json.Valid(body) {
		return body, nil
	}
	return json.Marshal(string(body))
}
