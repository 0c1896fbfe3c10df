package util

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// NormalizeAddr validates a host:port address.  A bare host (or bare
// IPv6 literal) gets defaultPort appended; an empty host means all
// interfaces.
func NormalizeAddr(addr string, defaultPort int) (string, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// No port: treat the whole string as a host.
		if ip := net.ParseIP(addr); ip != nil || !strings.Contains(addr, ":") {
			return FormatAddr(addr, defaultPort), nil
		}
		return "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return "", fmt.Errorf("invalid port %q in address %q", portStr, addr)
	}
	return FormatAddr(host, port), nil
}

// FindFreePort returns an available TCP port on 127.0.0.1.
func FindFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
