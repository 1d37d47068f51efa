package signature

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// KeySource supplies the publisher's signing key. Implementations must be
// safe for concurrent use; the returned bytes are borrowed for the duration
// of one Sign call and never retained.
type KeySource interface {
	Key() ([]byte, error)
}

var (
	// ErrEmptyMessageID reports a blank message identifier.
	ErrEmptyMessageID = errors.New("message id is empty")
	// ErrMessageIDTooLong reports an identifier over MaxMessageIDLength.
	ErrMessageIDTooLong = fmt.Errorf("message id exceeds %d characters", MaxMessageIDLength)
	// ErrNoKey reports that the key source returned no key material.
	ErrNoKey = errors.New("no signing key available")
)

// ValidateMessageID checks the sender-chosen identifier bounds.
func ValidateMessageID(id string) error {
	if id == "" {
		return ErrEmptyMessageID
	}
	if len(id) > MaxMessageIDLength {
		return ErrMessageIDTooLong
	}
	return nil
}

// SignedHeaders is the result of signing one delivery: the three header
// values the sender attaches to its outbound request.
type SignedHeaders struct {
	MessageID string
	Timestamp int64
	Signature string
}

// Apply sets the protocol headers on h.
func (s SignedHeaders) Apply(h http.Header) {
	h.Set(HeaderID, s.MessageID)
	h.Set(HeaderTimestamp, strconv.FormatInt(s.Timestamp, 10))
	h.Set(HeaderSignature, s.Signature)
}

// Signer computes signature headers for outbound deliveries. It performs no
// network I/O; the caller attaches the headers and body to its own request.
type Signer struct {
	source KeySource
	clock  Clock
}

// NewSigner returns a Signer reading keys from source. A nil clock defaults
// to the system clock.
func NewSigner(source KeySource, clock Clock) *Signer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Signer{source: source, clock: clock}
}

// Sign computes the signature headers for a payload at an explicit signing
// time. The identifier is validated first; key retrieval and tag computation
// only happen for well-formed input.
func (s *Signer) Sign(id string, payload []byte, at time.Time) (SignedHeaders, error) {
	if err := ValidateMessageID(id); err != nil {
		return SignedHeaders{}, err
	}

	key, err := s.source.Key()
	if err != nil {
		return SignedHeaders{}, fmt.Errorf("retrieve signing key: %w", err)
	}
	if len(key) == 0 {
		return SignedHeaders{}, ErrNoKey
	}

	ts := at.Unix()
	tag := ComputeTag(key, id, ts, payload)
	encoded := EncodeTag(tag)
	Wipe(tag)

	return SignedHeaders{
		MessageID: id,
		Timestamp: ts,
		Signature: encoded,
	}, nil
}

// SignNow signs with the current time from the signer's clock.
func (s *Signer) SignNow(id string, payload []byte) (SignedHeaders, error) {
	return s.Sign(id, payload, s.clock.Now())
}
