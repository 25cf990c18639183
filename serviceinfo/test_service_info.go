// Package serviceinfo provides a data model for information provided by a host test service.
package serviceinfo

import "github.com/pslkit/psl-test-adapter/framework"

// HostServiceInfo is status information returned by the host service from the initial status query.
type HostServiceInfo struct {
	HostServiceInfoBase

	// FullData is the entire response received from the host service, which might contain additional
	// properties beyond HostServiceInfoBase.
	FullData []byte
}

// HostServiceInfoBase is the basic set of properties that all host services must provide.
type HostServiceInfoBase struct {
	// Name is the name of the host system, such as "profile-dev".
	Name string `json:"name"`

	// Version is the host's own version string, if it reports one.
	Version string `json:"version,omitempty"`

	// Capabilities is a list of strings representing optional features of the host service.
	Capabilities framework.Capabilities `json:"capabilities"`
}
