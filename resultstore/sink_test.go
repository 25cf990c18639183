package resultstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pslkit/psl-test-adapter/framework"
	"github.com/pslkit/psl-test-adapter/framework/lifecycle"
	o "github.com/pslkit/psl-test-adapter/framework/opt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{ MemoryStore }

func (f *failingStore) Put(context.Context, Record) error { return errors.New("store is down") }

func TestStoreSinkRecordsTerminalTestEvents(t *testing.T) {
	store := NewMemoryStore()
	sink := NewStoreSink(store, nil)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return now }

	sink.Handle(lifecycle.RunStarted("run-7", []string{"ZTestA"}))
	sink.Handle(lifecycle.SuiteState("ZTestA", lifecycle.StateRunning))
	sink.Handle(lifecycle.TestState("t1^ZTestA", lifecycle.StateRunning, ""))
	sink.Handle(lifecycle.TestState("t1^ZTestA", lifecycle.StateFailed, "bad value"))
	sink.Handle(lifecycle.TestState("t2^ZTestA", lifecycle.StateRunning, ""))
	sink.Handle(lifecycle.SuiteState("ZTestA", lifecycle.StateCompleted))
	sink.Handle(lifecycle.RunFinished("run-7"))

	r, err := store.Get(context.Background(), "t1^ZTestA")
	require.NoError(t, err)
	assert.Equal(t, o.Some(Record{ID: "t1^ZTestA", State: lifecycle.StateFailed, Message: "bad value",
		RunID: "run-7", Time: now}), r)

	r, err = store.Get(context.Background(), "t2^ZTestA")
	require.NoError(t, err)
	assert.False(t, r.IsDefined())

	r, err = store.Get(context.Background(), "ZTestA")
	require.NoError(t, err)
	assert.False(t, r.IsDefined())
}

func TestStoreSinkLogsPutErrors(t *testing.T) {
	logger := framework.NewCapturingLogger(nil)
	sink := NewStoreSink(&failingStore{}, logger)
	sink.Handle(lifecycle.TestState("t1^ZTestA", lifecycle.StatePassed, ""))
	out := logger.Output()
	require.Len(t, out, 1)
	assert.Equal(t, "Cannot store result of t1^ZTestA: store is down", out[0].Message)
}
