// Package framework contains the low-level infrastructure shared by the test adapter: the
// Logger abstraction, and the subpackages lifecycle (event model and reporting sinks), remote
// (connections to a host test service), helpers and opt.
//
// The general model is:
//
// 1. Test procedures live in a workspace on disk. They are discovered locally, but they can
// only be executed by a host that runs PSL, which exposes a small JSON-over-HTTP test service.
//
// 2. For every test that is run, the adapter opens a session with the host service, asks it to
// run the dispatch procedure with the qualified test identifier, and closes the session.
//
// 3. Everything that happens during a load or a run is described by a stream of lifecycle
// events, which consumers receive in order through sinks or subscriptions.
package framework
