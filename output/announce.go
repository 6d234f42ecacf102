package output

import (
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/hashicorp/mdns"
)

// MulticastZone is the zeroconf service type receivers browse for.
const MulticastZone = "_log4j_xml_mcast_appender.local."

// Announcer makes an output discoverable while it is active.
type Announcer interface {
	Advertise() error
	Unadvertise() error
}

type MDNSAnnouncer struct {
	service *mdns.MDNSService

	mu     sync.Mutex
	server *mdns.Server
}

// NewMDNSAnnouncer describes the output as instance on port, with a TXT
// record carrying the multicast group. ips defaults to the host's non-loopback addresses.
func NewMDNSAnnouncer(instance string, port int, remoteHost string, ips []net.IP) (*MDNSAnnouncer, error) {
	service, domain := splitZone(MulticastZone)
	if len(ips) == 0 {
		ips = localIPs()
	}
	txt := []string{"multicastAddress=" + remoteHost}
	svc, err := mdns.NewMDNSService(instance, service, domain, "", port, ips, txt)
	if err != nil {
		return nil, fmt.Errorf("failed to describe mdns service: %w", err)
	}
	return &MDNSAnnouncer{service: svc}, nil
}

func (a *MDNSAnnouncer) Advertise() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		return nil
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: a.service})
	if err != nil {
		return fmt.Errorf("failed to start mdns responder: %w", err)
	}
	a.server = server
	return nil
}

func (a *MDNSAnnouncer) Unadvertise() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return nil
	}
	err := a.server.Shutdown()
	a.server = nil
	if err != nil {
		return fmt.Errorf("failed to stop mdns responder: %w", err)
	}
	return nil
}

// "_svc.local." becomes "_svc" and "local."
func splitZone(zone string) (string, string) {
	service, domain, found := strings.Cut(zone, ".")
	if !found || domain == "" {
		return zone, "local."
	}
	return service, domain
}

func localIPs() []net.IP {
	var ips []net.IP
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ips
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() {
			ips = append(ips, ipNet.IP)
		}
	}
	if len(ips) == 0 {
		ips = append(ips, net.IPv4(127, 0, 0, 1))
	}
	return ips
}
