package framework

import "golang.org/x/exp/slices"

// Capabilities lists the optional features that a host test service reports in its status.
type Capabilities []string

func (cs Capabilities) Has(name string) bool {
	return slices.Contains(cs, name)
}
