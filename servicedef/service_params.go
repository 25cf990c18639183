package servicedef

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

const (
	// CapabilityRunCustom means the service can run the runCustom command.
	CapabilityRunCustom = "run-custom"

	// CapabilityCancel means the service aborts a command when its HTTP request is cancelled.
	CapabilityCancel = "cancel"
)

// SessionParams describes the host environment a session connects to.
type SessionParams struct {
	Environment string                   `json:"environment"`
	Host        string                   `json:"host,omitempty"`
	Port        int                      `json:"port,omitempty"`
	User        string                   `json:"user,omitempty"`
	Password    string                   `json:"password,omitempty"`
	Encoding    string                   `json:"encoding,omitempty"`
	Options     map[string]ldvalue.Value `json:"options,omitempty"`
}
