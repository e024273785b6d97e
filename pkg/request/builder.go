package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/DeBrosOfficial/pubsub-client/pkg/config"
	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
	"github.com/DeBrosOfficial/pubsub-client/pkg/timetoken"
	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

// Builder turns operations into Requests for one account.
// It is immutable after construction and safe for concurrent use.
type Builder struct {
	client config.ClientConfig
	timing config.SubscribeConfig
	userID string
	scheme string
	signer *Signer
}

// BuilderOption configures a Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	clock clock.Clock
}

// WithClock sets the clock used for signature timestamps.
func WithClock(clk clock.Clock) BuilderOption {
	return func(o *builderOptions) { o.clock = clk }
}

// NewBuilder validates the credentials and returns a Builder. A missing user
// id is replaced by a random UUID. Malformed signing credentials fail here
// with a SigningError.
func NewBuilder(cc config.ClientConfig, sc config.SubscribeConfig, opts ...BuilderOption) (*Builder, error) {
	var o builderOptions
	for _, opt := range opts {
		opt(&o)
	}

	if strings.TrimSpace(cc.SubscribeKey) == "" {
		return nil, errors.NewValidationError("subscribe_key", "must not be empty", nil)
	}
	if cc.Origin == "" {
		cc.Origin = config.DefaultOrigin
	}

	b := &Builder{
		client: cc,
		timing: sc,
		userID: cc.UserID,
		scheme: "http",
	}
	if cc.Secure {
		b.scheme = "https"
	}
	if b.userID == "" {
		b.userID = uuid.NewString()
	}
	if cc.SecretKey != "" {
		b.signer = NewSigner(cc.SubscribeKey, cc.PublishKey, cc.SecretKey, o.clock)
		if err := b.signer.Validate(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// UserID returns the presence identity sent with every request.
func (b *Builder) UserID() string { return b.userID }

// Signed reports whether requests carry a signature.
func (b *Builder) Signed() bool { return b.signer != nil }

// SubscribeParams selects what a long-poll asks for.
type SubscribeParams struct {
	Channels []string
	Groups   []string
	Cursor   timetoken.Timetoken
}

// Subscribe builds a long-poll request. A zero cursor makes it a handshake.
func (b *Builder) Subscribe(p SubscribeParams) (*Request, error) {
	if len(p.Channels) == 0 && len(p.Groups) == 0 {
		return nil, errors.NewValidationError("channels", "no channels or groups to subscribe", nil)
	}

	channels, groups := p.Channels, p.Groups
	if b.client.Presence {
		channels = withPresence(channels)
		groups = withPresence(groups)
	}

	q := b.baseQuery()
	q.Set("tt", p.Cursor.ValueString())
	if !p.Cursor.IsZero() {
		q.Set("tr", p.Cursor.RegionString())
	}
	if len(groups) > 0 {
		q.Set("channel-group", strings.Join(groups, ","))
	}
	if b.client.FilterExpression != "" {
		q.Set("filter-expr", b.client.FilterExpression)
	}
	if secs := seconds(b.timing.PresenceTimeout); secs > 0 {
		q.Set("heartbeat", strconv.Itoa(secs))
	}

	path := fmt.Sprintf("/v2/subscribe/%s/%s/0",
		url.PathEscape(b.client.SubscribeKey), escapeList(channels))
	return b.finish(OpSubscribe, path, q, b.timing.LongPollTimeout)
}

// PublishParams are the options of a publish call.
type PublishParams struct {
	Channel string
	Message any
	Meta    any
	Store   *bool
	TTL     int // hours; 0 keeps the account default
}

// Publish builds a publish request.
func (b *Builder) Publish(p PublishParams) (*Request, error) {
	return b.publishLike(OpPublish, "publish", p)
}

// Signal builds a signal request. Signals carry no metadata or storage options.
func (b *Builder) Signal(channel string, message any) (*Request, error) {
	return b.publishLike(OpSignal, "signal", PublishParams{Channel: channel, Message: message})
}

func (b *Builder) publishLike(op, prefix string, p PublishParams) (*Request, error) {
	if b.client.PublishKey == "" {
		return nil, errors.NewValidationError("publish_key", "publishing requires a publish key", nil)
	}
	if err := checkChannel(p.Channel); err != nil {
		return nil, err
	}
	msg, err := encodeJSON("message", p.Message)
	if err != nil {
		return nil, err
	}

	q := b.baseQuery()
	if p.Meta != nil {
		meta, err := encodeJSON("meta", p.Meta)
		if err != nil {
			return nil, err
		}
		q.Set("meta", meta)
	}
	if p.Store != nil {
		q.Set("store", boolParam(*p.Store))
	}
	if p.TTL > 0 {
		q.Set("ttl", strconv.Itoa(p.TTL))
	}

	path := fmt.Sprintf("/%s/%s/%s/0/%s/0/%s", prefix,
		url.PathEscape(b.client.PublishKey), url.PathEscape(b.client.SubscribeKey),
		url.PathEscape(p.Channel), url.PathEscape(msg))
	return b.finish(op, path, q, b.timing.RequestTimeout)
}

// SetState builds a request attaching presence state to this user on channel.
func (b *Builder) SetState(channel string, state any) (*Request, error) {
	if err := checkChannel(channel); err != nil {
		return nil, err
	}
	encoded, err := encodeJSON("state", state)
	if err != nil {
		return nil, err
	}

	q := b.baseQuery()
	q.Set("state", encoded)
	path := fmt.Sprintf("/v2/presence/sub-key/%s/channel/%s/uuid/%s/data",
		url.PathEscape(b.client.SubscribeKey), url.PathEscape(channel), url.PathEscape(b.userID))
	return b.finish(OpSetState, path, q, b.timing.RequestTimeout)
}

// HereNow builds an occupancy request for one channel.
func (b *Builder) HereNow(channel string, includeState bool) (*Request, error) {
	if err := checkChannel(channel); err != nil {
		return nil, err
	}

	q := b.baseQuery()
	if includeState {
		q.Set("state", "1")
		q.Set("disable_uuids", "0")
	}
	path := fmt.Sprintf("/v2/presence/sub-key/%s/channel/%s",
		url.PathEscape(b.client.SubscribeKey), url.PathEscape(channel))
	return b.finish(OpHereNow, path, q, b.timing.RequestTimeout)
}

// Heartbeat builds a presence heartbeat for the given names.
func (b *Builder) Heartbeat(channels, groups []string) (*Request, error) {
	return b.presenceCall(OpHeartbeat, "heartbeat", channels, groups)
}

// Leave builds a presence leave for the given names.
func (b *Builder) Leave(channels, groups []string) (*Request, error) {
	return b.presenceCall(OpLeave, "leave", channels, groups)
}

func (b *Builder) presenceCall(op, suffix string, channels, groups []string) (*Request, error) {
	if len(channels) == 0 && len(groups) == 0 {
		return nil, errors.NewValidationError("channels", "no channels or groups", nil)
	}

	q := b.baseQuery()
	if len(groups) > 0 {
		q.Set("channel-group", strings.Join(groups, ","))
	}
	if op == OpHeartbeat {
		if secs := seconds(b.timing.PresenceTimeout); secs > 0 {
			q.Set("heartbeat", strconv.Itoa(secs))
		}
	}
	path := fmt.Sprintf("/v2/presence/sub-key/%s/channel/%s/%s",
		url.PathEscape(b.client.SubscribeKey), escapeList(channels), suffix)
	return b.finish(op, path, q, b.timing.RequestTimeout)
}

func (b *Builder) baseQuery() url.Values {
	q := url.Values{}
	q.Set("uuid", b.userID)
	if b.client.AuthKey != "" {
		q.Set("auth", b.client.AuthKey)
	}
	return q
}

func (b *Builder) finish(op, path string, q url.Values, timeout time.Duration) (*Request, error) {
	r := &Request{
		Op:      op,
		Method:  http.MethodGet,
		Scheme:  b.scheme,
		Host:    b.client.Origin,
		Path:    path,
		Query:   q,
		Timeout: timeout,
	}
	if b.signer != nil {
		if err := b.signer.Sign(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func withPresence(names []string) []string {
	if len(names) == 0 {
		return names
	}
	out := make([]string, 0, len(names)*2)
	for _, n := range names {
		out = append(out, n)
		if !wire.IsPresenceChannel(n) {
			out = append(out, wire.PresenceChannel(n))
		}
	}
	return out
}

func checkChannel(channel string) error {
	if strings.TrimSpace(channel) == "" {
		return errors.NewValidationError("channel", "must not be empty", channel)
	}
	return nil
}

func encodeJSON(field string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.NewValidationError(field, "not JSON encodable: "+err.Error(), nil)
	}
	return string(data), nil
}

func boolParam(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
