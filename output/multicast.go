package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/nicwaller/mcastlog"
	"github.com/nicwaller/mcastlog/codec"
	"github.com/nicwaller/mcastlog/internal/charset"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/text/encoding"
)

const (
	// DefaultMulticastPort is where MulticastReceiver-style listeners expect datagrams.
	DefaultMulticastPort = 9991

	// ApplicationEnv names the application when set; it is appended to a configured name.
	ApplicationEnv = "MCASTLOG_APPLICATION"

	maxTimeToLive = 255
)

// Only ErrConfiguration is ever returned. The others reach the diagnostic
// logger wrapped around the underlying network error.
var (
	ErrConfiguration     = errors.New("invalid multicast output configuration")
	ErrAddressResolution = errors.New("could not resolve multicast destination")
	ErrConnect           = errors.New("could not open multicast socket")
	ErrTransmission      = errors.New("multicast transmission failed")
	ErrClose             = errors.New("could not close multicast socket")
)

type MulticastOptions struct {
	Name         string
	RemoteHost   string
	Port         int
	TimeToLive   int // 0 keeps the platform default
	Encoding     string
	LocationInfo bool
	Application  string
	Layout       mcastlog.CodecPlugin // defaults to codec.XML()
	Announcer    Announcer
	Logger       *slog.Logger
}

// Multicast sends every event as one best-effort UDP datagram.
//
// A failed send discards the socket and later sends are dropped
// until Open is called again. Nothing is buffered or retried.
type Multicast struct {
	opts        MulticastOptions
	log         *slog.Logger
	hostname    string
	application string
	encoding    encoding.Encoding
	address     *net.UDPAddr

	mu     sync.Mutex
	conn   packetConn
	closed bool

	dial func(dest *net.UDPAddr, ttl int) (packetConn, error)
}

type packetConn interface {
	WriteTo([]byte, net.Addr) (int, error)
	Close() error
}

type resolveFunc func(network string, address string) (*net.UDPAddr, error)

// NewMulticast validates and applies opts. The destination is resolved now;
// if that fails the output stays usable but never connects.
func NewMulticast(opts MulticastOptions) (*Multicast, error) {
	return newMulticast(opts, net.ResolveUDPAddr, dialMulticast)
}

func newMulticast(opts MulticastOptions, resolve resolveFunc, dial func(*net.UDPAddr, int) (packetConn, error)) (*Multicast, error) {
	opts.Name = mcastlog.CoalesceStr(opts.Name, "mcastlog")
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("pluginType", "output[multicast]", "pluginName", opts.Name)

	opts.RemoteHost = strings.TrimSpace(opts.RemoteHost)
	if opts.RemoteHost == "" {
		err := fmt.Errorf("%w: the remote host is required for multicast output %s", ErrConfiguration, opts.Name)
		log.Error(err.Error())
		return nil, err
	}
	if opts.Port == 0 {
		opts.Port = DefaultMulticastPort
	}
	if opts.Port < 0 || opts.Port > 65535 {
		err := fmt.Errorf("%w: port %d is out of range", ErrConfiguration, opts.Port)
		log.Error(err.Error())
		return nil, err
	}
	if opts.TimeToLive > maxTimeToLive {
		log.Warn("time to live is too large; clamping", "ttl", opts.TimeToLive, "max", maxTimeToLive)
		opts.TimeToLive = maxTimeToLive
	}
	if opts.Layout == nil {
		opts.Layout = codec.XML()
	}

	m := &Multicast{
		opts:        opts,
		log:         log,
		hostname:    localHostname(),
		application: applicationName(opts.Application, os.Getenv(ApplicationEnv)),
		dial:        dial,
	}

	enc, err := charset.Lookup(opts.Encoding)
	if err != nil {
		log.Error("falling back to UTF-8", "error", err)
		enc = charset.Default
	}
	m.encoding = enc

	hostPort := net.JoinHostPort(opts.RemoteHost, strconv.Itoa(opts.Port))
	addr, err := resolve("udp", hostPort)
	if err != nil {
		log.Error("multicast output will not send", "error", fmt.Errorf("%w [%s]: %w", ErrAddressResolution, opts.RemoteHost, err))
	} else {
		m.address = addr
	}

	return m, nil
}

// Activate advertises the output, when an announcer is configured, and opens the socket.
func (m *Multicast) Activate() {
	if m.opts.Announcer != nil {
		if err := m.opts.Announcer.Advertise(); err != nil {
			m.log.Warn("failed to advertise multicast output", "error", err)
		}
	}
	m.Open()
}

// Open replaces any previous socket with a fresh one.
// Failures are logged and leave the output disconnected.
func (m *Multicast) Open() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		m.log.Warn("refusing to open a closed multicast output")
		return
	}
	if m.address == nil {
		return
	}

	m.cleanUp()
	conn, err := m.dial(m.address, m.opts.TimeToLive)
	if err != nil {
		m.log.Error("multicast output is disconnected", "error", fmt.Errorf("%w: %w", ErrConnect, err))
		return
	}
	m.conn = conn
	m.log.Debug("opened multicast socket", "destination", m.address.String(), "ttl", m.opts.TimeToLive)
}

// Send transmits one datagram for evt. It never reports failure to the caller.
func (m *Multicast) Send(evt *mcastlog.Event) {
	if evt == nil {
		return
	}
	if !m.Connected() {
		return
	}

	payload, err := m.encode(evt)
	if err != nil {
		// the connection is fine, only this event is lost
		m.log.Warn("dropped event that could not be formatted", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return
	}
	if _, err := m.conn.WriteTo(payload, m.address); err != nil {
		_ = m.conn.Close()
		m.conn = nil
		m.log.Warn("detected problem with multicast connection", "error", fmt.Errorf("%w: %w", ErrTransmission, err))
	}
}

// Run lets the pipeline drive the output. Transmission problems are only logged.
func (m *Multicast) Run(_ context.Context, event mcastlog.Event) error {
	m.Send(&event)
	return nil
}

// Close is idempotent. Errors are logged, never returned.
func (m *Multicast) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	if m.opts.Announcer != nil {
		if err := m.opts.Announcer.Unadvertise(); err != nil {
			m.log.Warn("failed to withdraw multicast advertisement", "error", err)
		}
	}
	m.cleanUp()
}

// callers hold m.mu
func (m *Multicast) cleanUp() {
	if m.conn == nil {
		return
	}
	if err := m.conn.Close(); err != nil {
		m.log.Error("could not close socket", "error", fmt.Errorf("%w: %w", ErrClose, err))
	}
	m.conn = nil
}

func (m *Multicast) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Destination is nil when the remote host did not resolve.
func (m *Multicast) Destination() *net.UDPAddr {
	if m.address == nil {
		return nil
	}
	addr := *m.address
	return &addr
}

func (m *Multicast) Options() MulticastOptions {
	return m.opts
}

func (m *Multicast) Hostname() string {
	return m.hostname
}

func (m *Multicast) Application() string {
	return m.application
}

func (m *Multicast) encode(evt *mcastlog.Event) ([]byte, error) {
	outgoing := evt.Copy()
	outgoing.SetLabel("hostname", m.hostname)
	if m.application != "" {
		outgoing.SetLabel("application", m.application)
	}
	if !m.opts.LocationInfo {
		outgoing.Field(mcastlog.PathOrigin...).Delete()
	}

	text, err := m.opts.Layout.Encode(outgoing)
	if err != nil {
		return nil, fmt.Errorf("layout failed: %w", err)
	}
	return charset.Encode(m.encoding, text)
}

func dialMulticast(dest *net.UDPAddr, ttl int) (packetConn, error) {
	if dest.IP.To4() != nil {
		conn, err := net.ListenPacket("udp4", ":0")
		if err != nil {
			return nil, err
		}
		pc := ipv4.NewPacketConn(conn)
		if err := pc.SetMulticastLoopback(true); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set multicast loopback: %w", err)
		}
		if ttl > 0 {
			if err := pc.SetMulticastTTL(ttl); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("set multicast ttl: %w", err)
			}
		}
		return conn, nil
	}

	conn, err := net.ListenPacket("udp6", "[::]:0")
	if err != nil {
		return nil, err
	}
	pc := ipv6.NewPacketConn(conn)
	if err := pc.SetMulticastLoopback(true); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set multicast loopback: %w", err)
	}
	if ttl > 0 {
		if err := pc.SetMulticastHopLimit(ttl); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("set multicast hop limit: %w", err)
		}
	}
	return conn, nil
}

func localHostname() string {
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() {
				return ipNet.IP.String()
			}
		}
	}
	return "unknown"
}

// the environment wins when nothing is configured, and is appended otherwise
func applicationName(configured string, fromEnv string) string {
	if configured == "" {
		return fromEnv
	}
	if fromEnv != "" {
		return configured + "-" + fromEnv
	}
	return configured
}
