package resultstore

import (
	"context"
	"sync"
	"time"

	"github.com/pslkit/psl-test-adapter/framework"
	"github.com/pslkit/psl-test-adapter/framework/lifecycle"
)

// StoreSink writes every terminal test event to a Store.
type StoreSink struct {
	store  Store
	logger framework.Logger
	now    func() time.Time
	runID  string
	lock   sync.Mutex
}

func NewStoreSink(store Store, logger framework.Logger) *StoreSink {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &StoreSink{store: store, logger: logger, now: time.Now}
}

func (s *StoreSink) Handle(e lifecycle.Event) {
	if e.Kind == lifecycle.KindStarted && e.Scope == lifecycle.ScopeRun {
		s.lock.Lock()
		s.runID = e.RunID
		s.lock.Unlock()
		return
	}
	if !e.IsTerminal() {
		return
	}
	s.lock.Lock()
	runID := s.runID
	s.lock.Unlock()
	record := Record{ID: e.ID, State: e.State, Message: e.Message, RunID: runID, Time: s.now()}
	if err := s.store.Put(context.Background(), record); err != nil {
		s.logger.Printf("Cannot store result of %s: %s", e.ID, err)
	}
}
