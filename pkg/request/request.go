// Package request builds the HTTP requests sent to the message bus. It knows
// the URL layout of every operation but performs no I/O.
package request

import (
	"net/url"
	"strings"
	"time"
)

// Operation names, used in errors and logs.
const (
	OpSubscribe = "subscribe"
	OpPublish   = "publish"
	OpSignal    = "signal"
	OpSetState  = "set_state"
	OpHereNow   = "here_now"
	OpHeartbeat = "heartbeat"
	OpLeave     = "leave"
)

// Request is a fully built, possibly signed, call to the bus.
type Request struct {
	Op      string
	Method  string
	Scheme  string
	Host    string
	Path    string // already escaped
	Query   url.Values
	Body    []byte
	Timeout time.Duration
}

// URL returns the absolute request URL.
func (r *Request) URL() string {
	var b strings.Builder
	b.WriteString(r.Scheme)
	b.WriteString("://")
	b.WriteString(r.Host)
	b.WriteString(r.Path)
	if len(r.Query) > 0 {
		b.WriteByte('?')
		b.WriteString(r.Query.Encode())
	}
	return b.String()
}

// Redacted returns URL with credentials masked, for logging.
func (r *Request) Redacted() string {
	if len(r.Query) == 0 {
		return r.URL()
	}
	q := cloneValues(r.Query)
	for _, k := range []string{"auth", "signature"} {
		if q.Has(k) {
			q.Set(k, "REDACTED")
		}
	}
	c := *r
	c.Query = q
	return c.URL()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// escapeList path-escapes each name and joins them with commas. An empty
// list becomes a single comma, the placeholder the bus expects.
func escapeList(names []string) string {
	if len(names) == 0 {
		return ","
	}
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = url.PathEscape(n)
	}
	return strings.Join(parts, ",")
}
