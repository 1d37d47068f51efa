// Package validate implements the receiver-side request-acceptance state
// machine: a linear pipeline of pre-condition checks that either hands the
// request to the next handler with a proof-of-validation artifact in its
// context, or writes a rejection status and stops.
//
// The stage order is fixed so cheap checks run before expensive ones:
// headers, then timestamp, then key resolution, then the bounded body read,
// then the signature itself. Nothing a client sends can make a stage panic
// or skip forward.
package validate

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sigilhq/sigil/internal/keys"
	"github.com/sigilhq/sigil/internal/signature"
)

// Default policy values. All three are configuration, not constants of the
// protocol; these defaults are the documented behavior.
const (
	DefaultTolerance   = 5 * time.Minute
	DefaultMaxBodySize = 256 * 1024
	DefaultMaxTags     = signature.DefaultMaxTags
)

// Options configures a Validator. Zero values take the defaults above.
type Options struct {
	// Ring resolves the verification key for each request. Required.
	Ring keys.Ring

	// Clock supplies "now" for the replay window. Defaults to the system
	// clock.
	Clock signature.Clock

	// Tolerance is the allowed skew between the sender's declared timestamp
	// and the receiver's clock, applied in both directions.
	Tolerance time.Duration

	// MaxBodySize is the hard ceiling on request body bytes.
	MaxBodySize int64

	// MaxTags caps the candidate tokens accepted in one signature header.
	MaxTags int

	// Logger receives warn-level rejection logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Validator authenticates inbound webhook deliveries. It holds no
// per-request state; one instance serves concurrent requests.
type Validator struct {
	ring      keys.Ring
	clock     signature.Clock
	tolerance time.Duration
	maxBody   int64
	maxTags   int
	logger    *slog.Logger
}

// New builds a Validator, applying defaults for unset options.
func New(opts Options) *Validator {
	v := &Validator{
		ring:      opts.Ring,
		clock:     opts.Clock,
		tolerance: opts.Tolerance,
		maxBody:   opts.MaxBodySize,
		maxTags:   opts.MaxTags,
		logger:    opts.Logger,
	}
	if v.clock == nil {
		v.clock = signature.SystemClock{}
	}
	if v.tolerance <= 0 {
		v.tolerance = DefaultTolerance
	}
	if v.maxBody <= 0 {
		v.maxBody = DefaultMaxBodySize
	}
	if v.maxTags <= 0 {
		v.maxTags = DefaultMaxTags
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v
}

// Middleware wraps next with delivery authentication. Rejected requests get
// their status written here and never reach next; accepted requests reach
// next with a re-readable body and the validated artifact in their context.
func (v *Validator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wh, body, reason, ok := v.Check(r)
		if !ok {
			v.reject(w, r, reason)
			return
		}
		replaceBody(r, body)
		next.ServeHTTP(w, r.WithContext(withWebhook(r.Context(), wh)))
	})
}

// Check runs the acceptance state machine against r. On success it returns
// the validated artifact and the consumed body bytes; the caller is
// responsible for re-presenting the body downstream. On failure it returns
// the rejection reason.
//
// Check never fails the process: every malformed input maps to a reason.
func (v *Validator) Check(r *http.Request) (Webhook, []byte, Reason, bool) {
	// Stage 1: headers present and bounded. Fails closed before any
	// cryptographic work.
	id := r.Header.Get(signature.HeaderID)
	if id == "" {
		return Webhook{}, nil, ReasonMissingHeader, false
	}
	if len(id) > signature.MaxMessageIDLength {
		return Webhook{}, nil, ReasonIdentifierTooLong, false
	}
	sigValue := r.Header.Get(signature.HeaderSignature)
	if sigValue == "" {
		return Webhook{}, nil, ReasonMissingHeader, false
	}

	hdr, err := signature.ParseHeader(sigValue, v.maxTags)
	if err != nil {
		return Webhook{}, nil, ReasonMalformedSignature, false
	}

	// Stage 2: timestamp parses and sits inside the replay window.
	var ts int64
	switch hdr.Variant {
	case signature.Combined:
		ts = hdr.Timestamp
	default:
		tsValue := r.Header.Get(signature.HeaderTimestamp)
		if tsValue == "" {
			return Webhook{}, nil, ReasonMissingHeader, false
		}
		ts, err = strconv.ParseInt(tsValue, 10, 64)
		if err != nil {
			return Webhook{}, nil, ReasonTimestampInvalid, false
		}
	}
	now := v.clock.Now().Unix()
	skew := now - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(v.tolerance/time.Second) {
		return Webhook{}, nil, ReasonTimestampInvalid, false
	}

	// Stage 3: resolve the key before touching the body, so requests with
	// no resolvable key are rejected cheaply.
	key, err := v.ring.Key(r.Context(), r)
	if err != nil || len(key) == 0 {
		return Webhook{}, nil, ReasonNoKey, false
	}

	// Stage 4: bounded, cancellable body read.
	body, reason, ok := readBounded(r, v.maxBody)
	if !ok {
		return Webhook{}, nil, reason, false
	}

	// Stage 5: candidate comparison against the independently computed tag.
	if !v.matchAny(key, id, ts, body, hdr.Tags) {
		return Webhook{}, nil, ReasonSignatureMismatch, false
	}

	return Webhook{ID: id, Timestamp: time.Unix(ts, 0).UTC()}, body, "", true
}

// matchAny compares each decodable candidate against the expected tag in
// constant time. Candidates that fail to decode or have the wrong length are
// skipped; a single good match accepts. All tag scratch is zeroed before
// returning, whatever the outcome.
func (v *Validator) matchAny(key []byte, id string, ts int64, body []byte, candidates []string) bool {
	expected := signature.ComputeTag(key, id, ts, body)
	defer signature.Wipe(expected)

	matched := false
	for _, candidate := range candidates {
		decoded, ok := signature.DecodeTag(candidate)
		if !ok {
			continue
		}
		if subtle.ConstantTimeCompare(expected, decoded) == 1 {
			matched = true
		}
		signature.Wipe(decoded)
		if matched {
			break
		}
	}
	return matched
}

// reject writes the mapped status with a generic JSON body and logs the
// reason. Neither the log line nor the response carries key material or
// candidate signature values.
func (v *Validator) reject(w http.ResponseWriter, r *http.Request, reason Reason) {
	v.logger.Warn("webhook rejected",
		"path", r.URL.Path,
		"reason", reason.String(),
	)

	status := reason.Status()
	text := http.StatusText(status)
	if text == "" {
		// 499 has no stdlib text.
		text = "Client Closed Request"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": text})
}
