package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrPrivateAddress is returned when a destination resolves to a private or reserved range.
var ErrPrivateAddress = errors.New("destination resolves to private/reserved address")

var privateNetworks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"100.64.0.0/10",
	"0.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR %q: %v", cidr, err))
		}
		nets = append(nets, network)
	}
	return nets
}

// IsPrivateIP returns true if the IP is in a private, loopback, link-local or reserved range
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// CheckHost resolves host and fails with ErrPrivateAddress when any address is
// private. Loopback is allowed when allowLoopback is set so httptest servers work.
func CheckHost(ctx context.Context, host string, allowLoopback bool) error {
	if host == "" {
		return fmt.Errorf("empty host")
	}
	var addrs []net.IP
	if ip := net.ParseIP(host); ip != nil {
		addrs = []net.IP{ip}
	} else {
		resolved, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", host, err)
		}
		for _, a := range resolved {
			addrs = append(addrs, a.IP)
		}
	}
	for _, ip := range addrs {
		if allowLoopback && ip.IsLoopback() {
			continue
		}
		if IsPrivateIP(ip) {
			return ErrPrivateAddress
		}
	}
	return nil
}
