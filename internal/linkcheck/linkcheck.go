// Package linkcheck reports whether a product link still resolves.
package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// ErrInvalidURL is returned for anything that is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid url")

// ErrBlockedAddress is the dial error for loopback, private and link-local targets.
var ErrBlockedAddress = errors.New("address not allowed")

type Result struct {
	Valid      bool   `json:"valid"`
	StatusCode *int   `json:"statusCode"`
	Message    string `json:"message"`
	FinalURL   string `json:"finalUrl"`
}

type Checker struct {
	httpClient   *http.Client
	allowPrivate bool
}

type Option func(*Checker)

// WithHTTPClient replaces the default client, including its address filter.
func WithHTTPClient(c *http.Client) Option {
	return func(ch *Checker) {
		ch.httpClient = c
	}
}

// AllowPrivateNetworks lets the default client reach loopback and private addresses.
func AllowPrivateNetworks() Option {
	return func(ch *Checker) {
		ch.allowPrivate = true
	}
}

func New(opts ...Option) *Checker {
	c := &Checker{}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = defaultClient(c.allowPrivate)
	}
	return c
}

// defaultClient dials directly, never through an environment proxy, so the
// address filter sees every connection including redirect hops.
func defaultClient(allowPrivate bool) *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	if !allowPrivate {
		dialer.Control = refusePrivate
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
	}
	return &http.Client{Timeout: 10 * time.Second, Transport: transport}
}

// refusePrivate runs after DNS resolution, so hostnames that resolve to
// internal addresses are caught as well as literal IPs.
func refusePrivate(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	if blocked(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ap.Addr())
	}
	return nil
}

func blocked(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified() ||
		sharedAddressSpace.Contains(ip)
}

// 100.64.0.0/10, carrier-grade NAT.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// Check issues a HEAD request, retrying with GET when the server refuses HEAD.
// Redirects are followed; only a final 2xx counts as valid.
func (c *Checker) Check(ctx context.Context, rawURL string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}

	resp, err := c.do(ctx, http.MethodHead, u.String())
	if err == nil && resp.StatusCode == http.StatusMethodNotAllowed {
		resp, err = c.do(ctx, http.MethodGet, u.String())
	}
	if err != nil {
		return failure(rawURL, err), nil
	}

	code := resp.StatusCode
	res := &Result{StatusCode: &code, FinalURL: resp.Request.URL.String()}
	if code >= 200 && code < 300 {
		res.Valid = true
		res.Message = "Link is valid and accessible"
	} else {
		res.Message = fmt.Sprintf("Link returned status code %d", code)
	}
	return res, nil
}

func (c *Checker) do(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	return resp, nil
}

func failure(rawURL string, err error) *Result {
	msg := "Could not connect to the link"
	var ne net.Error
	if errors.Is(err, ErrBlockedAddress) {
		msg = "Link points to a private or local address"
	} else if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		msg = "Link verification timed out"
	}
	return &Result{Message: msg, FinalURL: rawURL}
}
