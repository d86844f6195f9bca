// Package address negotiates a bindable host/port pair for the local dev
// server. Negotiated mappings are cached for the lifetime of one resolver,
// so identical requests across rebuilds never re-probe.
package address

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/leapstack-labs/leapforge/pkg/core"
)

// maxProbes bounds the upward port search from the requested port.
const maxProbes = 100

// Request is a requested host/port pair.
type Request struct {
	Host string
	Port int
}

// Binding is a negotiated result: the request plus the pair that actually
// bound.
type Binding struct {
	Requested Request
	Host      string
	Port      int
}

// Resolver negotiates dev-server addresses. All cached state is owned by the
// resolver instance; nothing is held in package globals.
type Resolver struct {
	log        *slog.Logger
	externalIP func() (string, error)
	listen     func(network, addr string) (net.Listener, error)

	mu    sync.Mutex
	cache map[Request]Binding
	last  *Binding
}

// NewResolver creates a resolver. The external-IP query is expensive and its
// answer does not change during a session, so it runs at most once.
func NewResolver(log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		log:        log,
		externalIP: sync.OnceValues(externalAddress),
		listen:     net.Listen,
		cache:      make(map[Request]Binding),
	}
}

// Negotiate resolves a requested pair to a bindable one. Device platforms
// with a loopback or any-interface host get the host rewritten to the
// machine's externally reachable address first, then the closest open port
// at or above the requested one is probed.
//
// If the host cannot be bound at all and a previous negotiation succeeded
// this session, the previous binding is returned unchanged; this keeps a
// stale binding even when the new request names a different pair, matching
// the established watch-mode behavior.
func (r *Resolver) Negotiate(ctx *core.Context, req Request) (Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.cache[req]; ok {
		return b, nil
	}

	host := req.Host
	if ctx != nil && ctx.DeviceTarget() && isLoopbackOrAny(host) {
		ip, err := r.externalIP()
		if err != nil {
			r.log.Warn("external address lookup failed, keeping requested host",
				"host", host, "error", err)
		} else {
			host = ip
		}
	}

	// Probe the host on an ephemeral port first to separate "host cannot
	// bind at all" from "every searched port is taken".
	probe, err := r.listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		if r.last != nil {
			r.log.Warn("host cannot be bound, retaining previous binding",
				"host", host, "previous", r.last.Host, "previous_port", r.last.Port,
				"error", err)
			return *r.last, nil
		}
		return Binding{}, &core.NetworkError{
			Host:   host,
			Port:   req.Port,
			Reason: core.NetworkHostUnbindable,
			Err:    err,
		}
	}
	_ = probe.Close()

	for port := req.Port; port < req.Port+maxProbes && port <= 65535; port++ {
		ln, err := r.listen("tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
		if err != nil {
			continue
		}
		_ = ln.Close()

		b := Binding{Requested: req, Host: host, Port: port}
		r.cache[req] = b
		r.last = &b
		if port != req.Port {
			r.log.Info("requested port taken, using next open port",
				"requested", req.Port, "bound", port)
		}
		return b, nil
	}

	return Binding{}, &core.NetworkError{
		Host:   host,
		Port:   req.Port,
		Reason: core.NetworkPortExhausted,
	}
}

// isLoopbackOrAny reports whether host names the local machine without being
// reachable from another device.
func isLoopbackOrAny(host string) bool {
	switch host {
	case "", "localhost", "0.0.0.0", "::", "::1", "127.0.0.1":
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsUnspecified()
	}
	return false
}

// externalAddress returns the first non-loopback unicast IPv4 address of the
// machine.
func externalAddress() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", fmt.Errorf("failed to list interface addresses: %w", err)
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}
	return "", fmt.Errorf("no externally reachable IPv4 address found")
}
