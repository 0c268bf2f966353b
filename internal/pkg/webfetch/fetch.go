// Package webfetch implements the safe web-to-pdf fetch subsystem:
// DNS-resolve, reject private address space, pin the TCP connection to
// the resolved public IP while keeping TLS SNI/Host at the original
// hostname, block redirects, and cap the response body. Using the
// resolved IP as the Host header alone is not sufficient for TLS
// correctness, since the certificate is validated against SNI, not the
// Host header — this is lower-level socket plumbing with no
// third-party substitute, so it is built directly on net/http's
// DialContext hook (stdlib, justified in DESIGN.md).
package webfetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"zenpdf-worker/internal/pkg/workererr"
)

// MaxWebBytes bounds the decoded response body size.
const MaxWebBytes = 2 * 1024 * 1024

const fetchTimeout = 20 * time.Second
const chunkSize = 64 * 1024

// HostnameSafetyCache is an optional TTL cache of hostname safety
// verdicts, wired to Redis in the container when ZENPDF_REDIS_ADDR is
// configured.
type HostnameSafetyCache interface {
	Get(ctx context.Context, hostname string) (safe bool, found bool)
	Set(ctx context.Context, hostname string, safe bool, ttl time.Duration)
}

// Fetcher fetches a URL under the safety policy described above.
type Fetcher struct {
	Logger            *zap.Logger
	Cache             HostnameSafetyCache
	CacheTTL          time.Duration
	AllowHostFallback bool // ZENPDF_WEB_ALLOW_HOSTNAME_FALLBACK

	limiter *limiter.Limiter
}

// New builds a Fetcher. cache may be nil to disable caching.
func New(logger *zap.Logger, cache HostnameSafetyCache, cacheTTL time.Duration) *Fetcher {
	return &Fetcher{
		Logger:            logger,
		Cache:             cache,
		CacheTTL:          cacheTTL,
		AllowHostFallback: os.Getenv("ZENPDF_WEB_ALLOW_HOSTNAME_FALLBACK") == "1",
	}
}

// WithRateLimit caps total fetches to ratePerMinute, shared across all
// callers of this Fetcher (in-memory token bucket).
func (f *Fetcher) WithRateLimit(ratePerMinute int) *Fetcher {
	if ratePerMinute <= 0 {
		return f
	}
	f.limiter = limiter.New(memory.NewStore(), limiter.Rate{
		Period: time.Minute,
		Limit:  int64(ratePerMinute),
	})
	return f
}

// Fetch retrieves url's body, decoded as text, bounded by MaxWebBytes.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "", workererr.Userf("invalid URL: %q", rawURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", workererr.Userf("unsupported URL scheme: %q", parsed.Scheme)
	}

	if f.limiter != nil {
		ctxLimit, limitErr := f.limiter.Get(ctx, "web-fetch")
		if limitErr != nil {
			return "", fmt.Errorf("rate limiter: %w", limitErr)
		}
		if ctxLimit.Reached {
			return "", workererr.User("web fetch rate limit exceeded, try again later")
		}
	}

	ip, err := f.resolvePublicIP(ctx, parsed.Hostname())
	if err != nil {
		return "", err
	}

	body, err := f.fetchPinned(ctx, parsed, ip)
	if err != nil {
		if isTLSHandshakeError(err) && f.AllowHostFallback && parsed.Scheme == "https" {
			// Re-validate before falling back — the fallback drops IP
			// pinning entirely, so the safety check must be repeated.
			if _, reErr := f.resolvePublicIP(ctx, parsed.Hostname()); reErr != nil {
				return "", reErr
			}
			return f.fetchDirect(ctx, rawURL)
		}
		return "", err
	}
	return body, nil
}

func (f *Fetcher) resolvePublicIP(ctx context.Context, hostname string) (net.IP, error) {
	if f.Cache != nil {
		if safe, found := f.Cache.Get(ctx, hostname); found {
			if !safe {
				return nil, workererr.Userf("host %q is not a public address", hostname)
			}
		}
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, hostname)
	if err != nil || len(addrs) == 0 {
		return nil, workererr.Userf("could not resolve host: %q", hostname)
	}

	var chosen net.IP
	anyPublic := false
	for _, a := range addrs {
		if !IsPublic(a.IP) {
			continue
		}
		anyPublic = true
		if a.IP.To4() != nil {
			chosen = a.IP
			break
		}
		if chosen == nil {
			chosen = a.IP
		}
	}
	if f.Cache != nil {
		f.Cache.Set(ctx, hostname, anyPublic, f.CacheTTL)
	}
	if !anyPublic || chosen == nil {
		return nil, workererr.Userf("host %q does not resolve to a public address", hostname)
	}
	return chosen, nil
}

// fetchPinned opens the TCP connection to ip while sending SNI/Host
// for the original hostname, so certificate validation still matches
// the hostname the caller asked for.
func (f *Fetcher) fetchPinned(ctx context.Context, parsed *url.URL, ip net.IP) (string, error) {
	hostname := parsed.Hostname()
	port := parsed.Port()
	if port == "" {
		if parsed.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}

	ipHost := ip.String()
	if ip.To4() == nil {
		ipHost = "[" + ipHost + "]"
	}
	hostHeader := hostname
	if net.ParseIP(hostname) != nil && net.ParseIP(hostname).To4() == nil {
		hostHeader = "[" + hostname + "]"
	}
	if port != "80" && port != "443" {
		hostHeader = hostHeader + ":" + port
	}

	dialAddr := net.JoinHostPort(ipHost, port)
	if ip.To4() == nil {
		dialAddr = net.JoinHostPort(ip.String(), port)
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			// addr is ignored: always dial the pinned IP, regardless of
			// what net/http thinks it resolved to.
			d := net.Dialer{Timeout: fetchTimeout}
			return d.DialContext(ctx, network, dialAddr)
		},
	}
	if parsed.Scheme == "https" {
		transport.TLSClientConfig = &tls.Config{ServerName: hostname}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   fetchTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	targetURL := *parsed
	targetURL.Host = dialAddr

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Host = hostHeader

	return doFetch(client, req)
}

// fetchDirect is the TLS-handshake-failure fallback: no pinning, no
// custom Host header, original URL as-is.
func (f *Fetcher) fetchDirect(ctx context.Context, rawURL string) (string, error) {
	client := &http.Client{
		Timeout: fetchTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	return doFetch(client, req)
}

func doFetch(client *http.Client, req *http.Request) (string, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return "", workererr.User("Redirects are not allowed")
	}

	buf := make([]byte, 0, chunkSize)
	total := 0
	chunk := make([]byte, chunkSize)
	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			total += n
			if total > MaxWebBytes {
				return "", workererr.User("Web response too large")
			}
			buf = append(buf, chunk[:n]...)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", readErr
		}
	}

	return decodeBody(buf, resp.Header.Get("Content-Type")), nil
}

func isTLSHandshakeError(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	var recordErr *tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	// net/http wraps handshake errors without a stable sentinel type
	// across Go versions; string-matching the handshake failure phrase
	// is the documented fallback used by net/http's own tests.
	msg := err.Error()
	for _, needle := range []string{"tls:", "x509:", "handshake failure", "certificate"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
