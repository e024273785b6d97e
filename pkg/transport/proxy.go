package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	goproxy "golang.org/x/net/proxy"
)

// Proxy URL schemes understood by NewProxiedClient.
const (
	ProxySOCKS5 = "socks5"
	ProxyHTTP   = "http"
	ProxyHTTPS  = "https"
)

// ParseProxy validates a proxy URL such as socks5://127.0.0.1:9050.
func ParseProxy(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}
	switch u.Scheme {
	case ProxySOCKS5, ProxyHTTP, ProxyHTTPS:
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("proxy url %q has no host", raw)
	}
	return u, nil
}

// NewProxiedClient returns an *http.Client that routes requests through the
// proxy at raw. SOCKS5 proxies are bypassed for loopback, private and
// link-local targets.
func NewProxiedClient(raw string) (*http.Client, error) {
	u, err := ParseProxy(raw)
	if err != nil {
		return nil, err
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	if u.Scheme != ProxySOCKS5 {
		tr.Proxy = http.ProxyURL(u)
		return &http.Client{Transport: tr}, nil
	}

	var auth *goproxy.Auth
	if u.User != nil {
		pass, _ := u.User.Password()
		auth = &goproxy.Auth{User: u.User.Username(), Password: pass}
	}
	tr.Proxy = nil
	tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if isLocal(addr) {
			d := &net.Dialer{}
			return d.DialContext(ctx, network, addr)
		}
		return dialSOCKS5(ctx, u.Host, auth, network, addr)
	}
	return &http.Client{Transport: tr}, nil
}

func dialSOCKS5(ctx context.Context, proxyAddr string, auth *goproxy.Auth, network, addr string) (net.Conn, error) {
	var timeout time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	base := &net.Dialer{Timeout: timeout}
	dialer, err := goproxy.SOCKS5("tcp", proxyAddr, auth, base)
	if err != nil {
		return nil, err
	}
	if cd, ok := dialer.(goproxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, addr)
	}
	return dialer.Dial(network, addr)
}

func isLocal(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && (ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast())
}
