package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/pslkit/psl-test-adapter/framework"
	o "github.com/pslkit/psl-test-adapter/framework/opt"
	"github.com/pslkit/psl-test-adapter/servicedef"
)

type session struct {
	url    string
	client *http.Client
	logger framework.Logger
	closed bool
	lock   sync.Mutex
}

func (s *session) RunCustom(ctx context.Context, path, rpc, arg string) (string, error) {
	params := servicedef.CommandParams{
		Command:   servicedef.CommandRunCustom,
		RunCustom: o.Some(servicedef.RunCustomParams{Path: path, RPC: rpc, Arg: arg}),
	}
	var resp servicedef.RunCustomResponse
	if err := s.sendCommand(ctx, params, &resp); err != nil {
		return "", err
	}
	return resp.Output, nil
}

func (s *session) sendCommand(ctx context.Context, params servicedef.CommandParams, responseOut interface{}) error {
	s.lock.Lock()
	closed := s.closed
	s.lock.Unlock()
	if closed {
		return errors.New("session is closed")
	}

	data, _ := json.Marshal(params)
	s.logger.Printf("Sending command: %s", string(data))
	body, _, err := doRequest(ctx, s.client, http.MethodPost, s.url, data)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("expected a response body but got none")
	}
	if err := json.Unmarshal(body, responseOut); err != nil {
		return fmt.Errorf("malformed command response from host service: %w", err)
	}
	s.logger.Printf("Response: %s", string(body))
	return nil
}

// Close tells the host service to end the session. Closing twice does nothing.
func (s *session) Close() error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return nil
	}
	s.closed = true
	s.lock.Unlock()

	s.logger.Printf("Closing %s", s.url)
	// The session must be released even if the command's context was cancelled.
	_, _, err := doRequest(context.Background(), s.client, http.MethodDelete, s.url, nil)
	if err != nil {
		s.logger.Printf("DELETE request to host service failed: %s", err)
	}
	return err
}

func doRequest(ctx context.Context, client *http.Client, method, url string, body []byte) ([]byte, http.Header, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewBuffer(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	var respBody []byte
	if resp.Body != nil {
		respBody, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := ""
		if len(respBody) != 0 {
			message = " (" + string(respBody) + ")"
		}
		err = fmt.Errorf("host service returned error %d for %s %s%s", resp.StatusCode, method, url, message)
	}
	return respBody, resp.Header, err
}

func resolveLocation(baseURL, location string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	loc, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid Location header %q: %w", location, err)
	}
	return base.ResolveReference(loc).String(), nil
}
