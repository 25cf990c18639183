// Package environment maps a source file to the host environments it should run against.
//
// A workspace selects environments by name in .vscode/environment.json:
//
//	{"environments": ["dev"]}
//
// The names refer to definitions in a global environments file, written in JSON or YAML:
//
//	environments:
//	  - name: dev
//	    host: 10.0.0.12
//	    port: 19200
//	    user: "1"
//	    password: xxx
//	    encoding: UTF8
package environment

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/pslkit/psl-test-adapter/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Config is one host environment definition.
type Config struct {
	Name     string                   `json:"name"`
	Host     string                   `json:"host"`
	Port     int                      `json:"port"`
	User     string                   `json:"user,omitempty"`
	Password string                   `json:"password,omitempty"`
	Encoding string                   `json:"encoding,omitempty"`
	Options  map[string]ldvalue.Value `json:"options,omitempty"`
}

// BaseURL is the URL of the host test service. A host that already includes a scheme is used
// as-is, apart from a trailing slash.
func (c Config) BaseURL() string {
	if strings.Contains(c.Host, "://") {
		return strings.TrimSuffix(c.Host, "/")
	}
	if c.Port == 0 {
		return "http://" + c.Host
	}
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SessionParams converts the definition into the parameters of a host session.
func (c Config) SessionParams() servicedef.SessionParams {
	return servicedef.SessionParams{
		Environment: c.Name,
		Host:        c.Host,
		Port:        c.Port,
		User:        c.User,
		Password:    c.Password,
		Encoding:    c.Encoding,
		Options:     c.Options,
	}
}

func (c Config) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.BaseURL())
}
