// Package server exposes an Adapter over HTTP, so that an editor extension or any other client
// can load and run tests and follow their progress as server-sent events.
//
//	GET  /status               adapter status
//	POST /load                 discover tests
//	GET  /tree                 last loaded tree
//	POST /run                  {"tests": ["id", ...]}; runs in the background
//	POST /cancel               cancel the run in progress
//	PUT  /documents?path=FILE  register unsaved editor content for FILE
//	GET  /results/{id}         last stored result of a test
//	GET  /events/tests         load events; new subscribers first get the last one
//	GET  /events/states        run, suite and test events
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/pslkit/psl-test-adapter/adapter"
	"github.com/pslkit/psl-test-adapter/framework"
	"github.com/pslkit/psl-test-adapter/framework/lifecycle"
	"github.com/pslkit/psl-test-adapter/resultstore"

	"github.com/gorilla/mux"
	"github.com/launchdarkly/eventsource"
)

const (
	TestsChannel  = "tests"
	StatesChannel = "states"
)

// DocumentBuffer holds editor content that has not been written to disk yet.
type DocumentBuffer interface {
	Update(path string, content []byte)
}

type Server struct {
	adapter     *adapter.Adapter
	documents   DocumentBuffer
	results     resultstore.Store
	streams     *eventsource.Server
	router      *mux.Router
	logger      framework.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	runs        sync.WaitGroup
	unsubscribe []func()
	lastLoad    *lifecycle.Event
	lock        sync.RWMutex
}

type eventSourceDebugLogger struct {
	logger framework.Logger
}

func (l eventSourceDebugLogger) Println(args ...interface{}) {
	l.logger.Println(args...)
}

func (l eventSourceDebugLogger) Printf(fmt string, args ...interface{}) {
	l.logger.Printf(fmt, args...)
}

type streamEvent struct {
	name string
	data []byte
}

func (e streamEvent) Event() string { return e.name }
func (e streamEvent) Id() string    { return "" } //nolint:stylecheck
func (e streamEvent) Data() string  { return string(e.data) }

// NewServer creates a Server for a. documents and results may be nil, in which case the
// corresponding endpoints answer 404. Runs started over HTTP are bound to ctx.
func NewServer(
	ctx context.Context,
	a *adapter.Adapter,
	documents DocumentBuffer,
	results resultstore.Store,
	logger framework.Logger,
) *Server {
	if logger == nil {
		logger = framework.NullLogger()
	}
	streams := eventsource.NewServer()
	streams.ReplayAll = true
	streams.Logger = eventSourceDebugLogger{logger}

	s := &Server{
		adapter:   a,
		documents: documents,
		results:   results,
		streams:   streams,
		logger:    logger,
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	streams.Register(TestsChannel, s)
	s.unsubscribe = append(s.unsubscribe,
		a.Tests().Subscribe(s.publishLoadEvent),
		a.TestStates().Subscribe(func(e lifecycle.Event) { s.publish(StatesChannel, e) }),
	)

	router := mux.NewRouter()
	router.HandleFunc("/status", s.getStatus).Methods("GET")
	router.HandleFunc("/load", s.postLoad).Methods("POST")
	router.HandleFunc("/tree", s.getTree).Methods("GET")
	router.HandleFunc("/run", s.postRun).Methods("POST")
	router.HandleFunc("/cancel", s.postCancel).Methods("POST")
	router.HandleFunc("/documents", s.putDocument).Methods("PUT")
	router.HandleFunc("/results/{id}", s.getResult).Methods("GET")
	router.HandleFunc("/events/{channel}", s.getEvents).Methods("GET")
	s.router = router
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close cancels any run started over HTTP, waits for it to finish, and ends all event streams.
func (s *Server) Close() {
	s.cancel()
	s.runs.Wait()
	for _, unsubscribe := range s.unsubscribe {
		unsubscribe()
	}
	s.streams.Close()
}

// Replay implements eventsource.Repository for the tests channel.
func (s *Server) Replay(channel, id string) chan eventsource.Event {
	eventsCh := make(chan eventsource.Event, 1)
	s.lock.RLock()
	last := s.lastLoad
	s.lock.RUnlock()
	if channel == TestsChannel && last != nil {
		if e, err := toStreamEvent(*last); err == nil {
			eventsCh <- e
		}
	}
	close(eventsCh)
	return eventsCh
}

func (s *Server) publishLoadEvent(e lifecycle.Event) {
	if e.Kind == lifecycle.KindFinished {
		s.lock.Lock()
		s.lastLoad = &e
		s.lock.Unlock()
	}
	s.publish(TestsChannel, e)
}

func (s *Server) publish(channel string, e lifecycle.Event) {
	se, err := toStreamEvent(e)
	if err != nil {
		s.logger.Printf("Cannot serialize %s: %s", e, err)
		return
	}
	s.logger.Printf("sending %s event on %s: %s", se.name, channel, se.data)
	s.streams.Publish([]string{channel}, se)
}

func toStreamEvent(e lifecycle.Event) (streamEvent, error) {
	data, err := e.MarshalJSON()
	if err != nil {
		return streamEvent{}, err
	}
	return streamEvent{name: e.Kind.String(), data: data}, nil
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.adapter.Status())
}

func (s *Server) postLoad(w http.ResponseWriter, r *http.Request) {
	if err := s.adapter.Load(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.adapter.Status())
}

func (s *Server) getTree(w http.ResponseWriter, _ *http.Request) {
	tree := s.adapter.Tree()
	if tree == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	data, err := tree.MarshalJSON()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

type runRequest struct {
	Tests []string `json:"tests"`
}

func (s *Server) postRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	ids := req.Tests
	if len(ids) == 0 {
		if tree := s.adapter.Tree(); tree != nil {
			ids = []string{tree.ID}
		}
	}
	run, ok := s.adapter.BeginRun(s.ctx, ids)
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
		return
	}
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		run()
	}()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) postCancel(w http.ResponseWriter, _ *http.Request) {
	s.adapter.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if s.documents == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing path parameter"})
		return
	}
	content, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.documents.Update(path, content)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	record, err := s.results.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !record.IsDefined() {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, record.Value())
}

func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	channel := mux.Vars(r)["channel"]
	if channel != TestsChannel && channel != StatesChannel {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	s.streams.Handler(channel)(w, r)
	s.logger.Printf("End of %s stream request", channel)
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	data, _ := json.Marshal(value)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
