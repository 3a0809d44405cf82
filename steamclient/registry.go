package steamclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Endpoint identifies one Steam CM server.
type Endpoint struct {
	Addr string // "host:port", as listed by the directory for both types
	Type string // "websockets" or "netfilter"
}

const defaultCMListURL = "https://api.steampowered.com/ISteamDirectory/GetCMListForConnect/v1/?cellid=0"

const (
	defaultConnectionTimeout = 5 * time.Second
	defaultMaxConnections    = 100
)

type rankedEndpoint struct {
	endpoint Endpoint
	latency  time.Duration
}

// Registry discovers and ranks CM server endpoints. It is the Go home for
// the server-selection behavior of original_source's CMClient: fetching the
// directory, latency-probing candidates, and caching the fastest known
// endpoint across calls.
//
// Registry is not safe for concurrent Fetch/Probe/FindFastest calls — the
// orchestrator is the only caller and drives them sequentially from
// Connect. The mutex here only protects the cached-fastest field against
// concurrent reads by callers/tests.
type Registry struct {
	httpClient        *http.Client
	cmListURL         string
	connectionTimeout time.Duration
	maxConnections    int64

	mu        sync.Mutex
	endpoints []Endpoint
	fastest   *rankedEndpoint
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryHTTPClient overrides the http.Client used to fetch the server list.
func WithRegistryHTTPClient(c *http.Client) RegistryOption {
	return func(r *Registry) { r.httpClient = c }
}

// WithCMListURL overrides the Steam directory endpoint.
func WithCMListURL(url string) RegistryOption {
	return func(r *Registry) { r.cmListURL = url }
}

// WithConnectionTimeout overrides the per-endpoint latency probe timeout.
func WithConnectionTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.connectionTimeout = d }
}

// WithMaxConnections bounds how many latency probes FindFastest runs concurrently.
func WithMaxConnections(n int) RegistryOption {
	return func(r *Registry) { r.maxConnections = int64(n) }
}

// NewRegistry builds a Registry with Steam's default directory URL and
// probing limits, as overridden by opts.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		httpClient:        http.DefaultClient,
		cmListURL:         defaultCMListURL,
		connectionTimeout: defaultConnectionTimeout,
		maxConnections:    defaultMaxConnections,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type cmListResponse struct {
	Response struct {
		ServerList []struct {
			Endpoint string `json:"endpoint"`
			Type     string `json:"type"`
		} `json:"serverlist"`
	} `json:"response"`
}

// Fetch retrieves the current CM server list from the Steam directory.
// Per the spec's caching invariant, a cached fastest endpoint is only
// trustworthy if it appeared in the most recent fetch — Fetch clears it
// otherwise, forcing FindFastest to re-probe against the fresh list.
func (r *Registry) Fetch(ctx context.Context) ([]Endpoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cmListURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	endpoints, err := parseCMList(body)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.endpoints = endpoints
	if r.fastest != nil && !containsEndpoint(endpoints, r.fastest.endpoint) {
		r.fastest = nil
	}
	r.mu.Unlock()

	return endpoints, nil
}

func containsEndpoint(endpoints []Endpoint, e Endpoint) bool {
	for _, candidate := range endpoints {
		if candidate == e {
			return true
		}
	}
	return false
}

func parseCMList(data []byte) ([]Endpoint, error) {
	var resp cmListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	endpoints := make([]Endpoint, 0, len(resp.Response.ServerList))
	for _, s := range resp.Response.ServerList {
		endpoints = append(endpoints, Endpoint{
			Addr: s.Endpoint,
			Type: s.Type,
		})
	}

	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no servers in response")
	}

	return endpoints, nil
}

// Probe measures TCP connect latency to one endpoint, returning an
// infinite duration (rather than an error) on failure so callers can rank
// candidates uniformly without special-casing unreachable ones.
func (r *Registry) Probe(ctx context.Context, addr string) time.Duration {
	ctx, cancel := context.WithTimeout(ctx, r.connectionTimeout)
	defer cancel()

	start := time.Now()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return time.Duration(1<<63 - 1)
	}
	latency := time.Since(start)
	conn.Close()
	return latency
}

// FindFastest latency-probes every known endpoint, bounded to
// maxConnections concurrent dials, and caches the winner. Call Fetch first
// if the endpoint list is empty.
func (r *Registry) FindFastest(ctx context.Context) (Endpoint, error) {
	r.mu.Lock()
	endpoints := append([]Endpoint(nil), r.endpoints...)
	r.mu.Unlock()

	if len(endpoints) == 0 {
		return Endpoint{}, fmt.Errorf("%w: no endpoints to probe, call Fetch first", ErrConnectFailed)
	}

	sem := semaphore.NewWeighted(r.maxConnections)
	g, gctx := errgroup.WithContext(ctx)
	latencies := make([]time.Duration, len(endpoints))

	for i, ep := range endpoints {
		i, ep := i, ep
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			latencies[i] = r.Probe(gctx, ep.Addr)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Endpoint{}, fmt.Errorf("probe endpoints: %w", err)
	}

	best := -1
	for i, latency := range latencies {
		if best == -1 || latency < latencies[best] {
			best = i
		}
	}
	if best == -1 || latencies[best] == time.Duration(1<<63-1) {
		return Endpoint{}, fmt.Errorf("%w: every endpoint unreachable", ErrConnectFailed)
	}

	winner := endpoints[best]
	r.mu.Lock()
	r.fastest = &rankedEndpoint{endpoint: winner, latency: latencies[best]}
	r.mu.Unlock()

	return winner, nil
}

// SelectServer implements the spec's server-selection order:
//  1. If an endpoint list hasn't been fetched yet, Fetch one.
//  2. If useFastest is set, or a cached fastest endpoint exists, use it —
//     probing and ranking (FindFastest) only happens when there is no
//     cache yet; a cache hit is returned directly.
//  3. Otherwise probe the list in order and return the first reachable
//     endpoint (first-pass, no ranking).
//  4. If nothing answered, Fetch once more and repeat the single pass.
//  5. If still nothing, report failure.
func (r *Registry) SelectServer(ctx context.Context, useFastest bool) (Endpoint, error) {
	r.mu.Lock()
	haveEndpoints := len(r.endpoints) > 0
	r.mu.Unlock()

	if !haveEndpoints {
		if _, err := r.Fetch(ctx); err != nil {
			return Endpoint{}, err
		}
	}

	r.mu.Lock()
	cached := r.fastest
	r.mu.Unlock()

	if cached != nil {
		return cached.endpoint, nil
	}
	if useFastest {
		return r.FindFastest(ctx)
	}

	if ep, ok := r.firstReachable(ctx); ok {
		return ep, nil
	}

	if _, err := r.Fetch(ctx); err != nil {
		return Endpoint{}, err
	}
	if ep, ok := r.firstReachable(ctx); ok {
		return ep, nil
	}

	return Endpoint{}, ErrConnectFailed
}

func (r *Registry) firstReachable(ctx context.Context) (Endpoint, bool) {
	r.mu.Lock()
	endpoints := append([]Endpoint(nil), r.endpoints...)
	r.mu.Unlock()

	for _, ep := range endpoints {
		if r.Probe(ctx, ep.Addr) < time.Duration(1<<63-1) {
			return ep, true
		}
	}
	return Endpoint{}, false
}
