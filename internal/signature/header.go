package signature

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HTTP header names used by the protocol. Matching is case-insensitive on
// the receiving side (net/http canonicalizes them).
const (
	HeaderID        = "Webhook-Id"
	HeaderTimestamp = "Webhook-Timestamp"
	HeaderSignature = "Webhook-Signature"
)

// DefaultMaxTags caps how many candidate tags a signature header may carry.
// The cap bounds CPU spent decoding attacker-inflated headers.
const DefaultMaxTags = 8

// Variant identifies which wire shape a signature header used.
type Variant int

const (
	// Split carries the timestamp in the Webhook-Timestamp header.
	Split Variant = iota
	// Combined embeds the timestamp as a t= token in the signature header.
	Combined
)

func (v Variant) String() string {
	if v == Combined {
		return "combined"
	}
	return "split"
}

// Header is the parsed form of a Webhook-Signature value.
type Header struct {
	Variant   Variant
	Timestamp int64    // set only for Combined
	KeyID     string   // advisory k=/kid= token, not used for key selection
	Tags      []string // encoded v1 candidates, in header order
}

var (
	// ErrEmptyHeader reports a blank signature header.
	ErrEmptyHeader = errors.New("signature header is empty")
	// ErrTooManyTags reports a header with more tokens than the cap allows.
	ErrTooManyTags = errors.New("signature header has too many candidates")
	// ErrNoTags reports a header that parsed but carried no v1 candidate.
	ErrNoTags = errors.New("signature header has no v1 candidate")
)

// ParseHeader parses a signature header value into its tagged form.
// Tokens are key=value pairs separated by commas or whitespace. Recognized
// keys are v1 (repeatable), t (combined variant timestamp) and k/kid;
// anything else is skipped for forward compatibility. maxTags <= 0 applies
// DefaultMaxTags.
//
// A header with more candidate tokens than the cap is rejected outright:
// none of its candidates are considered, not even well-formed ones.
func ParseHeader(value string, maxTags int) (Header, error) {
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}
	if strings.TrimSpace(value) == "" {
		return Header{}, ErrEmptyHeader
	}

	h := Header{Variant: Split}
	tokens := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	for _, token := range tokens {
		key, val, ok := strings.Cut(token, "=")
		if !ok {
			return Header{}, fmt.Errorf("malformed token %q", truncateForError(token))
		}
		switch key {
		case "v1":
			if len(h.Tags) == maxTags {
				return Header{}, ErrTooManyTags
			}
			h.Tags = append(h.Tags, val)
		case "t":
			ts, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return Header{}, fmt.Errorf("malformed t token: %w", err)
			}
			h.Variant = Combined
			h.Timestamp = ts
		case "k", "kid":
			h.KeyID = val
		default:
			// Unknown key: ignore, future senders may add fields.
		}
	}

	if len(h.Tags) == 0 {
		return Header{}, ErrNoTags
	}
	return h, nil
}

// EncodeTag renders a tag as an unpadded base64url v1 token, the canonical
// encoding emitted by the Signer.
func EncodeTag(tag []byte) string {
	return "v1=" + base64.RawURLEncoding.EncodeToString(tag)
}

// DecodeTag decodes one candidate value, accepting unpadded base64url or
// standard base64. It reports false for values that do not decode or do not
// have the exact tag length; such candidates are skipped, not fatal.
func DecodeTag(value string) ([]byte, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(value)
	}
	if err != nil || len(raw) != TagSize {
		if raw != nil {
			Wipe(raw)
		}
		return nil, false
	}
	return raw, true
}

// truncateForError trims attacker-supplied token text before it lands in an
// error message or a log line.
func truncateForError(s string) string {
	const max = 16
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
