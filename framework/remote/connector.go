// Package remote talks to a host test service over its REST protocol (see servicedef). Each test
// opens its own session, runs one command in it, and closes it.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pslkit/psl-test-adapter/environment"
	"github.com/pslkit/psl-test-adapter/framework"
	"github.com/pslkit/psl-test-adapter/framework/helpers"
	"github.com/pslkit/psl-test-adapter/servicedef"
	"github.com/pslkit/psl-test-adapter/serviceinfo"
)

const (
	defaultStatusTimeout = 10 * time.Second
	statusRetryInterval  = 100 * time.Millisecond
)

// ErrNoLocation means the host service accepted a session request without saying where the
// session lives.
var ErrNoLocation = errors.New("host service did not return a Location header with a session URL")

// Connection is an open session on a host.
type Connection interface {
	// RunCustom calls a remote procedure and returns its textual output.
	RunCustom(ctx context.Context, path, rpc, arg string) (string, error)
	// Close ends the session.
	Close() error
}

// Connector opens sessions on host test services. The status of each host is queried once and
// then remembered.
type Connector struct {
	client        *http.Client
	statusTimeout time.Duration
	logger        framework.Logger
	statuses      map[string]serviceinfo.HostServiceInfo
	lock          sync.Mutex
}

type ConnectorOption helpers.ConfigOption[Connector]

type connectorOptionStatusTimeout struct {
	timeout time.Duration
}

func (o connectorOptionStatusTimeout) Configure(c *Connector) error {
	if o.timeout <= 0 {
		return fmt.Errorf("status timeout must be positive, got %s", o.timeout)
	}
	c.statusTimeout = o.timeout
	return nil
}

// ConnectorStatusTimeout sets how long Connect keeps retrying the status query of a host that is
// not answering yet.
func ConnectorStatusTimeout(timeout time.Duration) ConnectorOption {
	return connectorOptionStatusTimeout{timeout}
}

type connectorOptionHTTPClient struct {
	client *http.Client
}

func (o connectorOptionHTTPClient) Configure(c *Connector) error {
	if o.client != nil {
		c.client = o.client
	}
	return nil
}

func ConnectorHTTPClient(client *http.Client) ConnectorOption {
	return connectorOptionHTTPClient{client}
}

type connectorOptionLogger struct {
	logger framework.Logger
}

func (o connectorOptionLogger) Configure(c *Connector) error {
	if o.logger != nil {
		c.logger = o.logger
	}
	return nil
}

func ConnectorLogger(logger framework.Logger) ConnectorOption {
	return connectorOptionLogger{logger}
}

// NewConnector creates a Connector.
func NewConnector(options ...ConnectorOption) (*Connector, error) {
	c := &Connector{
		client:        http.DefaultClient,
		statusTimeout: defaultStatusTimeout,
		logger:        framework.NullLogger(),
		statuses:      make(map[string]serviceinfo.HostServiceInfo),
	}
	if err := helpers.ApplyOptions(c, options...); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect opens a session on the host described by env.
func (c *Connector) Connect(ctx context.Context, env environment.Config) (Connection, error) {
	baseURL := env.BaseURL()
	info, err := c.status(ctx, baseURL)
	if err != nil {
		return nil, err
	}
	if len(info.Capabilities) != 0 && !info.Capabilities.Has(servicedef.CapabilityRunCustom) {
		return nil, fmt.Errorf("host service %q at %s does not support %s", info.Name, baseURL,
			servicedef.CapabilityRunCustom)
	}

	data, err := json.Marshal(env.SessionParams())
	if err != nil {
		return nil, err
	}
	c.logger.Printf("Opening session on %s", env)
	_, headers, err := doRequest(ctx, c.client, http.MethodPost, baseURL, data)
	if err != nil {
		return nil, err
	}
	location := headers.Get("Location")
	if location == "" {
		return nil, ErrNoLocation
	}
	sessionURL, err := resolveLocation(baseURL, location)
	if err != nil {
		return nil, err
	}
	return &session{
		url:    sessionURL,
		client: c.client,
		logger: c.logger,
	}, nil
}

// Status returns the status of a host, querying it if it has not been queried before.
func (c *Connector) Status(ctx context.Context, env environment.Config) (serviceinfo.HostServiceInfo, error) {
	return c.status(ctx, env.BaseURL())
}

func (c *Connector) status(ctx context.Context, baseURL string) (serviceinfo.HostServiceInfo, error) {
	c.lock.Lock()
	info, ok := c.statuses[baseURL]
	c.lock.Unlock()
	if ok {
		return info, nil
	}
	info, err := queryHostServiceInfo(ctx, c.client, baseURL, c.statusTimeout, c.logger)
	if err != nil {
		return info, err
	}
	c.lock.Lock()
	c.statuses[baseURL] = info
	c.lock.Unlock()
	return info, nil
}

func queryHostServiceInfo(
	ctx context.Context,
	client *http.Client,
	url string,
	timeout time.Duration,
	logger framework.Logger,
) (serviceinfo.HostServiceInfo, error) {
	logger.Printf("Connecting to host service at %s", url)

	deadline := time.Now().Add(timeout)
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return serviceinfo.HostServiceInfo{}, err
		}
		resp, err := client.Do(req)
		if err == nil {
			respData, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return serviceinfo.HostServiceInfo{}, fmt.Errorf("host service returned status code %d", resp.StatusCode)
			}
			if readErr != nil {
				return serviceinfo.HostServiceInfo{}, readErr
			}
			if len(respData) == 0 {
				logger.Printf("Status query successful, but service provided no metadata")
				return serviceinfo.HostServiceInfo{}, nil
			}
			logger.Printf("Status query returned metadata: %s", string(respData))
			var base serviceinfo.HostServiceInfoBase
			if err := json.Unmarshal(respData, &base); err != nil {
				return serviceinfo.HostServiceInfo{}, fmt.Errorf("malformed status response from host service: %s", string(respData))
			}
			return serviceinfo.HostServiceInfo{HostServiceInfoBase: base, FullData: respData}, nil
		}
		if ctx.Err() != nil {
			return serviceinfo.HostServiceInfo{}, ctx.Err()
		}
		if !time.Now().Before(deadline) {
			return serviceinfo.HostServiceInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		select {
		case <-ctx.Done():
			return serviceinfo.HostServiceInfo{}, ctx.Err()
		case <-time.After(statusRetryInterval):
		}
	}
}
