package servicedef

import (
	o "github.com/pslkit/psl-test-adapter/framework/opt"
)

const (
	CommandRunCustom = "runCustom"
)

type CommandParams struct {
	Command   string                   `json:"command"`
	RunCustom o.Maybe[RunCustomParams] `json:"runCustom,omitempty"`
}

// RunCustomParams asks the host to call a remote procedure. Path is the local source file the
// call relates to, RPC is the entry point, and Arg is passed to it unchanged.
type RunCustomParams struct {
	Path string `json:"path"`
	RPC  string `json:"rpc"`
	Arg  string `json:"arg"`
}

type RunCustomResponse struct {
	Output string `json:"output"`
}
