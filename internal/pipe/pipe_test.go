package pipe

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/OrcaBus/service-bclconvert-manager/internal/config"
	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	inputs []json.RawMessage
	fail   bool
}

func (r *recorder) StartExecution(_ context.Context, input json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("ExecutionLimitExceeded")
	}
	r.inputs = append(r.inputs, input)
	return nil
}

func testPipeConfig() Config {
	cfg := config.Default(config.StageBeta)
	return FromStage(&cfg)
}

func newSim(t *testing.T, cfg Config, target Starter) (*Simulator, *fakeClock, *prometheus.Registry) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)}
	reg := prometheus.NewRegistry()
	sim, err := NewSimulator(cfg, target, reg, WithClock(clock.Now))
	require.NoError(t, err)
	return sim, clock, reg
}

func TestFromStage(t *testing.T) {
	cfg := testPipeConfig()
	assert.Equal(t, "BclConvertAnalysisSqsQueue-dlq", cfg.DeadLetterQueueName())
	assert.Equal(t, 1, cfg.BatchSize)
	assert.Equal(t, 300*time.Second, cfg.VisibilityTimeout)
	assert.Equal(t, "FIRE_AND_FORGET", cfg.InvocationType)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_BatchSizeFixed(t *testing.T) {
	cfg := testPipeConfig()
	cfg.BatchSize = 10
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfig))
	assert.Contains(t, err.Error(), "BatchSize")
}

func TestSimulator_DeliversBody(t *testing.T) {
	target := &recorder{}
	sim, _, reg := newSim(t, testPipeConfig(), target)

	sim.Send(json.RawMessage(`{"eventCode": "ICA_EXEC_028", "payload": {"id": "a1"}}`))
	require.NoError(t, sim.Drain(context.Background()))

	require.Len(t, target.inputs, 1)
	assert.JSONEq(t, `{"eventCode": "ICA_EXEC_028", "payload": {"id": "a1"}}`, string(target.inputs[0]))

	q, dlq := sim.Depth()
	assert.Equal(t, 0, q)
	assert.Equal(t, 0, dlq)

	n, err := testutil.GatherAndCount(reg, "bclconvert_pipe_deliveries_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSimulator_RedeliversAfterVisibilityTimeout(t *testing.T) {
	target := &recorder{fail: true}
	sim, clock, _ := newSim(t, testPipeConfig(), target)
	ctx := context.Background()

	sim.Send(json.RawMessage(`{}`))

	got, err := sim.Poll(ctx)
	require.NoError(t, err)
	assert.True(t, got)

	got, _ = sim.Poll(ctx)
	assert.False(t, got, "message stays invisible during the timeout")

	clock.Advance(299 * time.Second)
	got, _ = sim.Poll(ctx)
	assert.False(t, got)

	target.fail = false
	clock.Advance(2 * time.Second)
	got, _ = sim.Poll(ctx)
	assert.True(t, got)
	assert.Len(t, target.inputs, 1)
}

func TestSimulator_ConcurrentPollersReceiveEachMessageOnce(t *testing.T) {
	target := &recorder{fail: true}
	sim, _, _ := newSim(t, testPipeConfig(), target)
	ctx := context.Background()

	const messages = 50
	for i := 0; i < messages; i++ {
		sim.Send(json.RawMessage(`{}`))
	}

	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < 8; w++ {
		eg.Go(func() error { return sim.Drain(ctx) })
	}
	require.NoError(t, eg.Wait())

	assert.Equal(t, float64(messages), testutil.ToFloat64(sim.metrics.deliveries.WithLabelValues("failed")))
	assert.Equal(t, float64(0), testutil.ToFloat64(sim.metrics.deliveries.WithLabelValues("started")))

	sim.mu.Lock()
	defer sim.mu.Unlock()
	for _, msg := range sim.queue {
		assert.Equal(t, 1, msg.ReceiveCount, msg.ID)
	}
}

// Fails every delivery until the message is dead-lettered.
func deadLetter(t *testing.T, sim *Simulator, clock *fakeClock, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		sim.Send(json.RawMessage(`{}`))
	}
	for attempt := 0; attempt <= sim.cfg.MaxReceiveCount; attempt++ {
		require.NoError(t, sim.Drain(ctx))
		clock.Advance(sim.cfg.VisibilityTimeout + time.Second)
	}
	require.NoError(t, sim.Drain(ctx))
}

func TestSimulator_AlarmOncePerCrossing(t *testing.T) {
	cfg := testPipeConfig()
	cfg.DeadLetterThreshold = 3
	sim, clock, reg := newSim(t, cfg, &recorder{fail: true})

	deadLetter(t, sim, clock, 2)
	state, fired := sim.Alarm()
	assert.Equal(t, AlarmOK, state)
	assert.Equal(t, 0, fired)

	deadLetter(t, sim, clock, 1)
	state, fired = sim.Alarm()
	assert.Equal(t, AlarmAlarm, state)
	assert.Equal(t, 1, fired)

	deadLetter(t, sim, clock, 4)
	_, fired = sim.Alarm()
	assert.Equal(t, 1, fired, "further dead letters do not re-fire")
	_, dlq := sim.Depth()
	assert.Equal(t, 7, dlq)

	assert.Len(t, sim.PurgeDeadLetters(), 7)
	state, _ = sim.Alarm()
	assert.Equal(t, AlarmOK, state)

	deadLetter(t, sim, clock, 3)
	_, fired = sim.Alarm()
	assert.Equal(t, 2, fired)

	assert.Equal(t, float64(2), testutil.ToFloat64(sim.metrics.alarms))
	assert.Equal(t, float64(10), testutil.ToFloat64(sim.metrics.deadLettered))
	n, err := testutil.GatherAndCount(reg, "bclconvert_pipe_dlq_depth")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSimulator_DefaultThresholdFiresOnFirstDeadLetter(t *testing.T) {
	sim, clock, _ := newSim(t, testPipeConfig(), &recorder{fail: true})
	deadLetter(t, sim, clock, 1)
	_, fired := sim.Alarm()
	assert.Equal(t, 1, fired)
}

func TestSimulator_NonJSONBody(t *testing.T) {
	target := &recorder{}
	sim, _, _ := newSim(t, testPipeConfig(), target)
	sim.Send(json.RawMessage(`plain text`))
	require.NoError(t, sim.Drain(context.Background()))
	require.Len(t, target.inputs, 1)
	assert.Equal(t, `"plain text"`, string(target.inputs[0]))
}

func TestSynthesize(t *testing.T) {
	res, err := Synthesize(testPipeConfig())
	require.NoError(t, err)

	assert.Equal(t, "BclConvertAnalysisSqsQueue", res.Queue.QueueName)
	assert.Equal(t, 300, res.Queue.VisibilityTimeout)
	assert.Equal(t, 3, res.Queue.RedrivePolicy.MaxReceiveCount)
	assert.Equal(t, float64(1), res.Alarm.Threshold)
	assert.Equal(t, 1, res.Pipe.SourceParameters.SqsQueueParameters.BatchSize)
	assert.Equal(t, "<$.body>", res.Pipe.TargetParameters.InputTemplate)
	assert.Equal(t, "FIRE_AND_FORGET", res.Pipe.TargetParameters.StepFunctionStateMachineParameters.InvocationType)

	target, err := json.Marshal(res.Pipe.Target)
	require.NoError(t, err)
	assert.Contains(t, string(target), "stateMachine:orca-bclconvert--handleIcaEvent")

	data, err := json.Marshal(res.QueuePolicy)
	require.NoError(t, err)
	assert.Contains(t, string(data), "iam::079623148045:root")
	assert.Contains(t, string(data), "aws:SecureTransport")

	var actions []string
	for _, g := range res.Grants {
		actions = append(actions, g.Actions...)
	}
	assert.Contains(t, actions, "states:StartExecution")
	assert.NotContains(t, actions, "states:StartSyncExecution")
}

func TestDependsOn(t *testing.T) {
	deps := DependsOn()
	assert.Len(t, deps, 7)
	assert.Contains(t, deps[PipeLogicalID], RoleLogicalID)
}
