package input

import (
	"context"
	"fmt"
	"net"

	"github.com/nicwaller/mcastlog"
	"github.com/nicwaller/mcastlog/codec"
)

// large enough for any UDP payload
const maxDatagramSize = 65535

// MulticastListener joins group and turns every datagram into one event.
// It is the receiving end of output.Multicast.
func MulticastListener(group string, port int, opts UdpListenerOptions) mcastlog.InputPlugin {
	opts.Group = group
	return UdpListener(port, opts)
}

// test with echo -n test | nc -u -w0 localhost 9999
func UdpListener(port int, opts UdpListenerOptions) mcastlog.InputPlugin {
	if opts.Codec == nil {
		opts.Codec = codec.XML()
	}
	return &udpListener{
		port: port,
		opts: opts,
	}
}

type udpListener struct {
	opts UdpListenerOptions
	port int
}

type UdpListenerOptions struct {
	// Group is a multicast address to join; empty means plain unicast
	Group string
	// Interface names the NIC to join the group on; empty lets the OS choose
	Interface string
	// Address to bind when not joining a group; empty means all addresses
	Address string
	Codec   mcastlog.CodecPlugin
	Schema  mcastlog.SchemaModel
}

func (p *udpListener) Run(ctx context.Context, send mcastlog.BatchSender) error {
	log := mcastlog.ContextLogger(ctx).With("server.port", p.port)

	conn, err := p.listen()
	if err != nil {
		log.Error("failed to listen", "error", err)
		return err
	}
	log.Debug("listening", "group", p.opts.Group)

	// closing the socket is the only way to interrupt ReadFromUDP
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
		}
		_ = conn.Close()
	}()

	schema := mcastlog.ResolveSchema(ctx, p.opts.Schema)
	buf := make([]byte, maxDatagramSize)
	for {
		// UDP is not stream based, so we read each individual datagram
		rlen, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("udp listener failed: %w", err)
		}
		log.Debug(fmt.Sprintf("got UDP datagram of %d bytes", rlen))

		evt, err := p.opts.Codec.Decode(buf[:rlen])
		if err != nil {
			log.Warn("dropped undecodable datagram", "error", err, "client.address", addr.String())
			continue
		}
		p.enrich(&evt, addr, schema)
		send(evt)
	}
}

func (p *udpListener) listen() (*net.UDPConn, error) {
	if p.opts.Group == "" {
		addr := &net.UDPAddr{Port: p.port}
		if p.opts.Address != "" {
			addr.IP = net.ParseIP(p.opts.Address)
			if addr.IP == nil {
				return nil, fmt.Errorf("invalid listen address %q", p.opts.Address)
			}
		}
		return net.ListenUDP("udp", addr)
	}

	group := net.ParseIP(p.opts.Group)
	if group == nil || !group.IsMulticast() {
		return nil, fmt.Errorf("%q is not a multicast group address", p.opts.Group)
	}
	var ifi *net.Interface
	if p.opts.Interface != "" {
		var err error
		ifi, err = net.InterfaceByName(p.opts.Interface)
		if err != nil {
			return nil, fmt.Errorf("unknown interface %q: %w", p.opts.Interface, err)
		}
	}
	conn, err := net.ListenMulticastUDP("udp", ifi, &net.UDPAddr{IP: group, Port: p.port})
	if err != nil {
		return nil, err
	}
	if err := conn.SetReadBuffer(1024 * 1024); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func (p *udpListener) enrich(evt *mcastlog.Event, addr *net.UDPAddr, schema mcastlog.SchemaModel) {
	switch schema {
	case mcastlog.SchemaNone:
		// don't enrich with any automatic fields
	case mcastlog.SchemaFlat:
		evt.Field("remote_addr").Default(addr.String())
		evt.Field("client.ip").Default(addr.IP.String())
		evt.Field("client.port").Default(addr.Port)
		evt.Field("server.port").Default(p.port)
		evt.Field("transport").Default("udp")
	default:
		evt.Field("client", "address").Default(addr.String())
		evt.Field("client", "ip").Default(addr.IP.String())
		evt.Field("client", "port").Default(addr.Port)
		evt.Field("server", "port").Default(p.port)
		evt.Field("network", "transport").Default("udp")
	}
}
