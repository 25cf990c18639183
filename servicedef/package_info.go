// Package servicedef contains definitions for the REST protocol that a host test service must
// implement for the adapter to run tests through it.
//
// The protocol has four requests:
//
//   - GET / returns the service status (see serviceinfo.HostServiceInfo).
//   - POST / with SessionParams opens a session on the host and returns 201 with a Location header.
//   - POST <session URL> with CommandParams runs a command in the session.
//   - DELETE <session URL> closes the session.
//
// The package can also be imported by any test service code that is Go-based.
package servicedef
