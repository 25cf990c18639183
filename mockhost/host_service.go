// Package mockhost is an in-process fake of a host test service, for testing code that runs tests
// through the servicedef protocol without a real host.
package mockhost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/pslkit/psl-test-adapter/framework"
	"github.com/pslkit/psl-test-adapter/servicedef"
	"github.com/pslkit/psl-test-adapter/serviceinfo"

	"github.com/gorilla/mux"
)

const sessionPathPrefix = "/sessions/"

// PassedOutput is what a runCustom command returns when nothing else has been configured for it.
const PassedOutput = `{"state":"passed"}`

// Responder computes the output of a runCustom command. Returning an error makes the command
// fail with HTTP 500.
type Responder func(ctx context.Context, params servicedef.RunCustomParams) (string, error)

// Call is one runCustom command received by the service.
type Call struct {
	SessionID string
	Session   servicedef.SessionParams
	Params    servicedef.RunCustomParams
}

// HostService implements the host side of the servicedef protocol.
type HostService struct {
	info           serviceinfo.HostServiceInfoBase
	outputs        map[string]string
	responder      Responder
	sessions       map[string]servicedef.SessionParams
	sessionsOpened int
	calls          []Call
	omitLocation   bool
	handler        http.Handler
	debugLogger    framework.Logger
	lock           sync.Mutex
}

func NewHostService(info serviceinfo.HostServiceInfoBase, debugLogger framework.Logger) *HostService {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	h := &HostService{
		info:        info,
		outputs:     make(map[string]string),
		sessions:    make(map[string]servicedef.SessionParams),
		debugLogger: debugLogger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/", h.serveStatus).Methods("GET")
	router.HandleFunc("/", h.serveOpenSession).Methods("POST")
	router.HandleFunc(sessionPathPrefix+"{id}", h.serveCommand).Methods("POST")
	router.HandleFunc(sessionPathPrefix+"{id}", h.serveCloseSession).Methods("DELETE")
	h.handler = router

	return h
}

func (h *HostService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// SetOutput sets the output of runCustom commands whose argument is arg.
func (h *HostService) SetOutput(arg, output string) {
	h.lock.Lock()
	h.outputs[arg] = output
	h.lock.Unlock()
}

// SetResponder sets a function that computes the output of every runCustom command whose
// argument has no output set with SetOutput.
func (h *HostService) SetResponder(responder Responder) {
	h.lock.Lock()
	h.responder = responder
	h.lock.Unlock()
}

// OmitLocation makes the service accept sessions without returning a Location header.
func (h *HostService) OmitLocation(omit bool) {
	h.lock.Lock()
	h.omitLocation = omit
	h.lock.Unlock()
}

// Calls returns the runCustom commands received so far, in order.
func (h *HostService) Calls() []Call {
	h.lock.Lock()
	defer h.lock.Unlock()
	return append([]Call(nil), h.calls...)
}

// SessionsOpened returns how many sessions have ever been opened.
func (h *HostService) SessionsOpened() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.sessionsOpened
}

// OpenSessions returns how many sessions are open now.
func (h *HostService) OpenSessions() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.sessions)
}

func (h *HostService) serveStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.info)
}

func (h *HostService) serveOpenSession(w http.ResponseWriter, r *http.Request) {
	var params servicedef.SessionParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.debugLogger.Printf("Malformed session request: %s", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.lock.Lock()
	h.sessionsOpened++
	id := strconv.Itoa(h.sessionsOpened)
	h.sessions[id] = params
	omitLocation := h.omitLocation
	h.lock.Unlock()

	h.debugLogger.Printf("Opened session %s for environment %s", id, params.Environment)
	if !omitLocation {
		w.Header().Set("Location", sessionPathPrefix+id)
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *HostService) serveCommand(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var params servicedef.CommandParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.debugLogger.Printf("Malformed command: %s", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.lock.Lock()
	session, ok := h.sessions[id]
	h.lock.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if params.Command != servicedef.CommandRunCustom || !params.RunCustom.IsDefined() {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	runParams := params.RunCustom.Value()

	h.lock.Lock()
	h.calls = append(h.calls, Call{SessionID: id, Session: session, Params: runParams})
	output, scripted := h.outputs[runParams.Arg]
	responder := h.responder
	h.lock.Unlock()

	if !scripted {
		output = PassedOutput
		if responder != nil {
			var err error
			output, err = responder(r.Context(), runParams)
			if err != nil {
				h.debugLogger.Printf("Command for %s failed: %s", runParams.Arg, err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
	}
	h.debugLogger.Printf("Command %s(%s) returned %s", runParams.RPC, runParams.Arg, output)
	writeJSON(w, http.StatusOK, servicedef.RunCustomResponse{Output: output})
}

func (h *HostService) serveCloseSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.lock.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	h.lock.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		http.Error(w, fmt.Sprintf("cannot encode response: %s", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
