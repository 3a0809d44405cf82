package steamclient

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/k64z/steamcm/protocol"
	"github.com/k64z/steamcm/steamid"
)

// TransportType selects the CM transport layer.
type TransportType int

const (
	TransportWebSocket TransportType = iota
	TransportTCP
)

// DisconnectEvent describes why a Client's connection ended.
type DisconnectEvent struct {
	// ServerInitiated is true when the server sent ClientLoggedOff rather
	// than the connection simply dropping.
	ServerInitiated bool
	// EResult carries the server's reported reason when ServerInitiated.
	EResult int32
	// Err carries the transport-level error on an unexpected drop.
	Err error
}

// Client manages a session with a Steam CM server: connecting, the
// encryption handshake, logon, heartbeating, and dispatch of incoming
// packets to subscribers. Unlike a single mutable OnPacket callback, any
// number of independent subscribers can listen for a given EMsg via On,
// or block for one with WaitFor — logon, heartbeat, and PICS each own
// their slice of the wire protocol without stepping on each other.
type Client struct {
	registry  *Registry
	transport TransportType

	conn      Connection
	steamID   steamid.SteamID
	sessionID int32

	httpClient *http.Client
	logger     *slog.Logger
	bus        *eventBus

	// machineID is 16 random bytes generated once at construction and sent
	// with every ClientLogon, matching original_source's per-install
	// machine identifier.
	machineID [16]byte

	// OnDisconnect, if set, is called once when the connection ends, either
	// because the server closed it or because of a transport error.
	OnDisconnect func(*DisconnectEvent)

	nextJobID atomic.Uint64

	mu             sync.Mutex
	done           chan struct{}
	wg             sync.WaitGroup
	loggedIn       bool
	closeOnce      sync.Once
	disconnectOnce sync.Once
}

type config struct {
	registry     *Registry
	transport    TransportType
	httpClient   *http.Client
	logger       *slog.Logger
	onDisconnect func(*DisconnectEvent)
}

// Option configures a Client.
type Option func(*config)

// WithTransport sets the transport type (WebSocket or TCP).
func WithTransport(t TransportType) Option {
	return func(c *config) { c.transport = t }
}

// WithHTTPClient sets the HTTP client used for server discovery.
func WithHTTPClient(h *http.Client) Option {
	return func(c *config) { c.httpClient = h }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRegistry overrides the server Registry, e.g. to reuse one already
// warmed up by a previous Client.
func WithRegistry(r *Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithDisconnectHandler sets a callback fired once when the session ends.
func WithDisconnectHandler(fn func(*DisconnectEvent)) Option {
	return func(c *config) { c.onDisconnect = fn }
}

// New creates a new Steam CM client.
func New(opts ...Option) *Client {
	cfg := config{
		transport:  TransportWebSocket,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = NewRegistry(WithRegistryHTTPClient(cfg.httpClient))
	}

	c := &Client{
		registry:     cfg.registry,
		transport:    cfg.transport,
		httpClient:   cfg.httpClient,
		logger:       cfg.logger,
		bus:          newEventBus(cfg.logger),
		OnDisconnect: cfg.onDisconnect,
	}
	if _, err := rand.Read(c.machineID[:]); err != nil {
		// crypto/rand.Read only fails if the OS source is broken beyond
		// recovery; the machine id degrades to zeros rather than panicking.
		cfg.logger.Error("generate machine id", "err", err)
	}
	return c
}

// On registers fn for every decoded packet matching topic. See eventBus.On.
func (c *Client) On(topic EMsg, fn func(*Packet), async bool) uint64 {
	return c.bus.On(topic, fn, async)
}

// Off removes a subscriber previously registered with On.
func (c *Client) Off(topic EMsg, id uint64) {
	c.bus.Off(topic, id)
}

// WaitFor blocks for the next packet matching topic and predicate. Call it
// before sending the request that triggers the response, to avoid a race
// with readLoop delivering the response before the subscriber exists.
func (c *Client) WaitFor(ctx context.Context, topic EMsg, predicate func(*Packet) bool) (*Packet, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil, ErrNotConnected
	}
	return c.bus.WaitFor(ctx, topic, predicate, done)
}

// Connect selects a CM server endpoint via the Registry and dials it. For
// TCP this includes the encryption handshake; WebSocket negotiates TLS
// framing only, matching Steam's own split (CMClient only runs the
// encryption handshake itself over raw TCP). Per the orchestrator's state
// machine, a handshake failure either loops back to server selection (when
// retry is set) or returns ErrConnectFailed; the loop only stops retrying
// when ctx is cancelled.
func (c *Client) Connect(ctx context.Context, retry, useFastest bool) error {
	for {
		err := c.connectOnce(ctx, useFastest)
		if err == nil {
			return nil
		}
		if !retry || ctx.Err() != nil {
			return err
		}
		c.logger.Warn("connect attempt failed, retrying", "err", err)
	}
}

func (c *Client) connectOnce(ctx context.Context, useFastest bool) error {
	endpoint, err := c.registry.SelectServer(ctx, useFastest)
	if err != nil {
		return fmt.Errorf("select CM server: %w", err)
	}

	c.logger.Info("connecting to CM server", "addr", endpoint.Addr, "type", endpoint.Type)

	switch c.transport {
	case TransportWebSocket:
		ws, err := dialWebSocket(ctx, endpoint.Addr)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConnectFailed, err)
		}
		c.conn = ws

	case TransportTCP:
		tcp, err := dialTCP(ctx, endpoint.Addr)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConnectFailed, err)
		}
		if err := newHandshake(tcp).run(ctx); err != nil {
			tcp.Close()
			return fmt.Errorf("encryption handshake: %w: %w", ErrConnectFailed, err)
		}
		c.conn = tcp
	}

	c.mu.Lock()
	c.done = make(chan struct{})
	c.closeOnce = sync.Once{}
	c.disconnectOnce = sync.Once{}
	c.mu.Unlock()

	c.wg.Add(1)
	go c.readLoop()

	c.logger.Info("connected", "addr", c.conn.RemoteAddr())
	return nil
}

// Connected reports whether the read loop is live and the socket is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	done := c.done
	conn := c.conn
	c.mu.Unlock()

	if done == nil || conn == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Disconnect cleanly disconnects from the CM server, sending ClientLogOff
// first when logged in.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	wasLoggedIn := c.loggedIn
	c.loggedIn = false
	c.mu.Unlock()

	if wasLoggedIn {
		_ = c.sendClientLogOff(context.Background())
	}

	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		c.closeOnce.Do(func() { close(done) })
	}

	if c.conn != nil {
		c.conn.Close()
	}
	c.wg.Wait()

	c.logger.Info("disconnected")
	return nil
}

// sendPacket encodes and writes a proto-carried packet, stamping the
// session's steamid/session id onto the header once logged in.
func (c *Client) sendPacket(ctx context.Context, emsg EMsg, hdr *protocol.ProtoHeader, body []byte) error {
	c.mu.Lock()
	conn := c.conn
	loggedIn := c.loggedIn
	if hdr == nil {
		hdr = &protocol.ProtoHeader{}
	}
	if loggedIn {
		sid := c.steamID.ToSteamID64()
		hdr.Steamid = &sid
		hdr.ClientSessionId = &c.sessionID
	}
	c.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	data, err := encodePacket(&Packet{EMsg: emsg, IsProto: true, Header: hdr, Body: body})
	if err != nil {
		return fmt.Errorf("encode %s: %w", emsg, err)
	}
	return conn.Write(ctx, data)
}

func (c *Client) readLoop() {
	defer c.wg.Done()

	for {
		data, err := c.conn.Read(context.Background())
		if err != nil {
			c.mu.Lock()
			done := c.done
			c.mu.Unlock()
			select {
			case <-done:
				return // expected disconnect
			default:
				c.logger.Error("read error", "err", err)
				c.fireDisconnect(&DisconnectEvent{Err: err})
				c.closeOnce.Do(func() { close(done) })
				c.conn.Close()
				return
			}
		}

		pkt, err := decodePacket(data)
		if err != nil {
			c.logger.Error("decode error", "err", err)
			continue
		}

		c.handlePacket(pkt)
	}
}

func (c *Client) handlePacket(pkt *Packet) {
	if pkt.EMsg == EMsgMulti {
		multi := &protocol.Multi{}
		if err := multi.Unmarshal(pkt.Body); err != nil {
			c.logger.Error("unmarshal Multi", "err", err)
			return
		}
		packets, err := unpackMulti(multi)
		if err != nil {
			c.logger.Error("decode Multi", "err", err)
			return
		}
		for _, sub := range packets {
			c.handlePacket(sub)
		}
		return
	}

	if pkt.EMsg == EMsgClientLoggedOff {
		var logoff protocol.ClientLoggedOff
		eresult := int32(2)
		if err := logoff.Unmarshal(pkt.Body); err == nil {
			eresult = logoff.GetEresult()
		}
		c.logger.Warn("logged off by server", "eresult", eresult)
		c.fireDisconnect(&DisconnectEvent{ServerInitiated: true, EResult: eresult})
		c.mu.Lock()
		done := c.done
		c.mu.Unlock()
		if done != nil {
			c.closeOnce.Do(func() { close(done) })
		}
		if c.conn != nil {
			c.conn.Close()
		}
	}

	c.bus.Emit(pkt)
}

func (c *Client) fireDisconnect(ev *DisconnectEvent) {
	c.disconnectOnce.Do(func() {
		if c.OnDisconnect != nil {
			c.OnDisconnect(ev)
		}
	})
}

// nextJobSource allocates a monotonically increasing client-local job id
// for correlating service method calls with their responses.
func (c *Client) nextJobSource() uint64 {
	return c.nextJobID.Add(1)
}
