package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vasilii314/batcher/config"
	"github.com/vasilii314/batcher/job"
	"github.com/vasilii314/batcher/node"
	"github.com/vasilii314/batcher/utils"
)

// Client is a Runtime backed by a remote bridge Api.
type Client struct {
	// Address of the bridge, e.g. http://localhost:5555
	Address    string
	Retries    int
	RetryDelay time.Duration
	HTTP       *http.Client
}

func NewClient(cfg config.Bridge) *Client {
	return &Client{
		Address:    strings.TrimRight(cfg.Address, "/"),
		Retries:    cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		HTTP:       &http.Client{Timeout: cfg.Timeout},
	}
}

// do sends a request and decodes a successful JSON body into out.
// Only idempotent requests are retried on transport errors.
func (c *Client) do(ctx context.Context, method, path string, body any, retry bool, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}
	send := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.Address+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return c.HTTP.Do(req)
	}

	var (
		resp *http.Response
		err  error
	)
	if retry {
		resp, err = utils.HTTPWithRetry(ctx, c.Retries, c.RetryDelay, send)
	} else {
		resp, err = send()
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp, path)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeError turns an ErrResponse back into the matching sentinel.
// A 400 only means an invalid job when it answers a spawn.
func decodeError(resp *http.Response, path string) error {
	e := ErrResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		log.Printf("[bridge.Client] [decodeError] Error decoding response: %v\n", err)
		e.Message = http.StatusText(resp.StatusCode)
	}
	var sentinel error
	switch resp.StatusCode {
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusForbidden:
		sentinel = ErrNoAdmin
	case http.StatusConflict:
		sentinel = ErrInsufficientRam
	case http.StatusBadRequest:
		sentinel = ErrBadRequest
		if path == "/jobs" {
			sentinel = ErrInvalidJob
		}
	default:
		return fmt.Errorf("bridge responded %d: %s", resp.StatusCode, e.Message)
	}
	return fmt.Errorf("%w: %s", sentinel, e.Message)
}

func hostPath(host string) string {
	return "/hosts/" + url.PathEscape(host)
}

func (c *Client) Neighbors(ctx context.Context, host string) ([]string, error) {
	var res NeighborsResponse
	if err := c.do(ctx, http.MethodGet, hostPath(host)+"/neighbors", nil, true, &res); err != nil {
		return nil, err
	}
	return res.Neighbors, nil
}

func (c *Client) Server(ctx context.Context, host string) (node.Node, error) {
	var n node.Node
	err := c.do(ctx, http.MethodGet, hostPath(host), nil, true, &n)
	return n, err
}

func (c *Client) PlayerSkill(ctx context.Context) (int, error) {
	var res PlayerResponse
	err := c.do(ctx, http.MethodGet, "/player", nil, true, &res)
	return res.Skill, err
}

func (c *Client) CostPerThread(ctx context.Context) (float64, error) {
	var res CostResponse
	err := c.do(ctx, http.MethodGet, "/cost", nil, true, &res)
	return res.CostPerThread, err
}

func (c *Client) GrowthThreads(ctx context.Context, host string, multiplier float64) (float64, error) {
	var res GrowthResponse
	path := hostPath(host) + "/growth?multiplier=" + strconv.FormatFloat(multiplier, 'g', -1, 64)
	err := c.do(ctx, http.MethodGet, path, nil, true, &res)
	return res.Threads, err
}

// Spawn is never retried.
func (c *Client) Spawn(ctx context.Context, j job.Job) error {
	return c.do(ctx, http.MethodPost, "/jobs", j, false, nil)
}

func (c *Client) KillAll(ctx context.Context, host string) error {
	return c.do(ctx, http.MethodDelete, hostPath(host)+"/jobs", nil, true, nil)
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.do(ctx, http.MethodGet, "/stats", nil, true, &s)
	return s, err
}
