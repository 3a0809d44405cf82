package steamclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseCMList(t *testing.T) {
	fixture := `{
		"response": {
			"serverlist": [
				{"endpoint": "ext1-ord1.steamserver.net:27017", "type": "netfilter"},
				{"endpoint": "ext1-ord1.steamserver.net:443", "type": "websockets"},
				{"endpoint": "ext2-iad1.steamserver.net:27017", "type": "netfilter"},
				{"endpoint": "ext2-iad1.steamserver.net:443", "type": "websockets"}
			],
			"success": true,
			"message": ""
		}
	}`

	endpoints, err := parseCMList([]byte(fixture))
	if err != nil {
		t.Fatalf("parseCMList: %v", err)
	}

	if len(endpoints) != 4 {
		t.Fatalf("expected 4 endpoints, got %d", len(endpoints))
	}

	wsCount, tcpCount := 0, 0
	for _, e := range endpoints {
		switch e.Type {
		case "websockets":
			wsCount++
		case "netfilter":
			tcpCount++
		}
	}
	if wsCount != 2 {
		t.Errorf("expected 2 websocket endpoints, got %d", wsCount)
	}
	if tcpCount != 2 {
		t.Errorf("expected 2 netfilter endpoints, got %d", tcpCount)
	}
}

func TestParseCMListEmpty(t *testing.T) {
	_, err := parseCMList([]byte(`{"response": {"serverlist": []}}`))
	if err == nil {
		t.Error("expected error for empty server list")
	}
}

func TestParseCMListInvalidJSON(t *testing.T) {
	_, err := parseCMList([]byte("not json"))
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

// listeningAddr starts a TCP listener that accepts and immediately closes
// connections, standing in for a reachable CM server in latency probes.
func listeningAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	return ln.Addr().String()
}

func TestRegistryProbeReachable(t *testing.T) {
	r := NewRegistry(WithConnectionTimeout(time.Second))
	latency := r.Probe(context.Background(), listeningAddr(t))
	if latency >= time.Duration(1<<63-1) {
		t.Error("expected finite latency for reachable endpoint")
	}
}

func TestRegistryProbeUnreachable(t *testing.T) {
	r := NewRegistry(WithConnectionTimeout(100 * time.Millisecond))
	latency := r.Probe(context.Background(), "127.0.0.1:1")
	if latency < time.Duration(1<<63-1) {
		t.Error("expected infinite latency for unreachable endpoint")
	}
}

func TestRegistryFindFastestPicksReachable(t *testing.T) {
	good := listeningAddr(t)

	r := NewRegistry(WithConnectionTimeout(200 * time.Millisecond))
	r.endpoints = []Endpoint{
		{Addr: "127.0.0.1:1", Type: "netfilter"},
		{Addr: good, Type: "netfilter"},
	}

	winner, err := r.FindFastest(context.Background())
	if err != nil {
		t.Fatalf("FindFastest: %v", err)
	}
	if winner.Addr != good {
		t.Errorf("winner: got %s, want %s", winner.Addr, good)
	}
}

func TestRegistryFindFastestAllUnreachable(t *testing.T) {
	r := NewRegistry(WithConnectionTimeout(100 * time.Millisecond))
	r.endpoints = []Endpoint{{Addr: "127.0.0.1:1", Type: "netfilter"}}

	if _, err := r.FindFastest(context.Background()); err == nil {
		t.Error("expected error when all endpoints are unreachable")
	}
}

func TestRegistryFetchClearsStaleFastest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"response":{"serverlist":[{"endpoint":"new.example.com:27017","type":"netfilter"}]}}`))
	}))
	defer srv.Close()

	r := NewRegistry(WithCMListURL(srv.URL), WithRegistryHTTPClient(srv.Client()))
	r.fastest = &rankedEndpoint{endpoint: Endpoint{Addr: "stale.example.com:27017", Type: "netfilter"}}

	if _, err := r.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	r.mu.Lock()
	fastest := r.fastest
	r.mu.Unlock()
	if fastest != nil {
		t.Error("expected stale cached fastest to be cleared after refetch")
	}
}

func TestRegistrySelectServerReturnsCachedWithoutReprobe(t *testing.T) {
	r := NewRegistry(WithConnectionTimeout(100 * time.Millisecond))
	cached := Endpoint{Addr: "cached.example.com:27017", Type: "netfilter"}
	r.endpoints = []Endpoint{{Addr: "127.0.0.1:1", Type: "netfilter"}}
	r.fastest = &rankedEndpoint{endpoint: cached, latency: time.Millisecond}

	got, err := r.SelectServer(context.Background(), false)
	if err != nil {
		t.Fatalf("SelectServer: %v", err)
	}
	if got != cached {
		t.Errorf("expected cached endpoint %+v without reprobe, got %+v", cached, got)
	}
}

func TestRegistryFetchKeepsFastestStillPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"response":{"serverlist":[{"endpoint":"kept.example.com:27017","type":"netfilter"}]}}`))
	}))
	defer srv.Close()

	r := NewRegistry(WithCMListURL(srv.URL), WithRegistryHTTPClient(srv.Client()))
	r.fastest = &rankedEndpoint{endpoint: Endpoint{Addr: "kept.example.com:27017", Type: "netfilter"}}

	if _, err := r.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	r.mu.Lock()
	fastest := r.fastest
	r.mu.Unlock()
	if fastest == nil {
		t.Error("expected cached fastest still present in refetched list to survive")
	}
}
