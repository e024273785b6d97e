package request

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
)

// Signer adds a timestamp and an HMAC-SHA256 signature to requests.
type Signer struct {
	subscribeKey string
	publishKey   string
	secretKey    string
	clock        clock.Clock
}

// NewSigner returns a signer for the given keys. clk may be nil.
func NewSigner(subscribeKey, publishKey, secretKey string, clk clock.Clock) *Signer {
	if clk == nil {
		clk = clock.New()
	}
	return &Signer{
		subscribeKey: subscribeKey,
		publishKey:   publishKey,
		secretKey:    secretKey,
		clock:        clk,
	}
}

// Validate reports credentials that can never produce a valid signature.
func (s *Signer) Validate() error {
	switch {
	case s.secretKey == "":
		return errors.NewSigningError("secret key is empty", nil)
	case strings.TrimSpace(s.secretKey) != s.secretKey || strings.ContainsAny(s.secretKey, " \t\r\n"):
		return errors.NewSigningError("secret key contains whitespace", nil)
	case s.publishKey == "":
		return errors.NewSigningError("signing requires a publish key", nil)
	}
	return nil
}

// Sign sets the timestamp and signature query parameters on r.
// The signed string is "sub\npub\npath\nquery" with the query sorted by key.
func (s *Signer) Sign(r *Request) error {
	if err := s.Validate(); err != nil {
		return err
	}

	q := cloneValues(r.Query)
	if q == nil {
		q = make(map[string][]string)
	}
	q.Del("signature")
	q.Set("timestamp", strconv.FormatInt(s.clock.Now().Unix(), 10))

	mac := hmac.New(sha256.New, []byte(s.secretKey))
	if _, err := mac.Write([]byte(s.canonical(r.Path, q.Encode()))); err != nil {
		return errors.NewSigningError("", err)
	}
	q.Set("signature", base64.URLEncoding.EncodeToString(mac.Sum(nil)))

	r.Query = q
	return nil
}

func (s *Signer) canonical(path, query string) string {
	return s.subscribeKey + "\n" + s.publishKey + "\n" + path + "\n" + query
}
