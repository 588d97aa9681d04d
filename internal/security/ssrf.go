// Package security implements the two mandatory security boundaries that
// sit between untrusted input and the rest of the system: URL validation
// (SSRF protection) and error-string sanitization.
package security

import (
	"fmt"
	"net"
	"net/url"

	"golang.org/x/net/idna"
)

// ValidateURL enforces the web content source's SSRF protections. It is
// called twice by callers: once at submission time and once immediately
// before the HTTP request is issued (DNS can change between the two).
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("Only HTTP(S) URLs are allowed: %q", rawURL)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("URL %q has no hostname", rawURL)
	}

	normalized, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return fmt.Errorf("URL %q has a malformed hostname: %w", rawURL, err)
	}

	ips, err := net.LookupIP(normalized)
	if err != nil {
		// Loopback names resolve locally without DNS; handle explicitly
		// so "http://localhost" still produces the IP-bearing error the
		// spec's scenario 5 expects.
		if normalized == "localhost" {
			ips = []net.IP{net.ParseIP("127.0.0.1")}
		} else {
			return fmt.Errorf("could not resolve host for %q: %w", rawURL, err)
		}
	}

	for _, ip := range ips {
		if isBlockedIP(ip) {
			return fmt.Errorf("URL %q resolves to disallowed address %s", rawURL, ip.String())
		}
	}

	return nil
}

var privateBlocks []*net.IPNet

func init() {
	for _, cidr := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"fe80::/10",
		"fec0::/10",
		"::1/128",
	} {
		_, block, err := net.ParseCIDR(cidr)
		if err == nil {
			privateBlocks = append(privateBlocks, block)
		}
	}
}

func isBlockedIP(ip net.IP) bool {
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}
