// Package homework talks to the homework review status API: it fetches the
// latest submissions, validates the payload shape and turns a submission into
// a human-readable status message.
package homework

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	logx "hwbot/pkg/logx"
)

const maxResponseBodySize = 1 << 20 // 1MB

// Config locates the status API and carries the OAuth token sent with
// every request.
type Config struct {
	Endpoint string
	Token    string
	// Timeout bounds one request; 0 means 30s.
	Timeout time.Duration
}

// Client issues authenticated status requests. It holds no state between
// calls apart from the HTTP connection pool.
type Client struct {
	cfg        Config
	endpoint   *url.URL
	httpClient *http.Client
	log        logx.Logger
}

// NewClient checks the token and endpoint up front; it does no I/O.
func NewClient(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("status api token is empty")
	}
	u, err := url.Parse(strings.TrimSpace(cfg.Endpoint))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("status api endpoint %q is not a valid url", cfg.Endpoint)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:      cfg,
		endpoint: u,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				MaxIdleConns:    2,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		log: log,
	}, nil
}

// FetchLatest requests submissions updated at or after from (unix seconds)
// and returns the raw JSON body. Transport failures and non-200 answers are
// reported as *AnswerError.
func (c *Client) FetchLatest(ctx context.Context, from int64) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("from_date", strconv.FormatInt(from, 10))

	u := *c.endpoint
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	endpoint := c.endpoint.String()

	c.log.Debug("requesting homework statuses", logx.String("url", endpoint), logx.String("params", params.Encode()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &AnswerError{URL: endpoint, Params: params, Err: err}
	}
	req.Header.Set("Authorization", "OAuth "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AnswerError{URL: endpoint, Params: params, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if resp.StatusCode != http.StatusOK {
		return nil, &AnswerError{URL: endpoint, Params: params, StatusCode: resp.StatusCode}
	}
	if err != nil {
		return nil, &AnswerError{URL: endpoint, Params: params, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// Close releases idle connections. The client stays usable.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}
