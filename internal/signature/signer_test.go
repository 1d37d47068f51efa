package signature

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

// fixedClock is a Clock pinned to one instant.
type fixedClock time.Time

func (f fixedClock) Now() time.Time {
	return time.Time(f)
}

// staticKey is a KeySource returning fixed bytes.
type staticKey []byte

func (s staticKey) Key() ([]byte, error) {
	return s, nil
}

// failingKey is a KeySource that always errors.
type failingKey struct{}

func (failingKey) Key() ([]byte, error) {
	return nil, errors.New("vault unreachable")
}

func TestSignerSign(t *testing.T) {
	key := staticKey("test-secret")
	payload := []byte(`{"event":"ping"}`)
	at := time.Unix(1700000000, 0)

	signer := NewSigner(key, nil)
	headers, err := signer.Sign("msg_1", payload, at)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if headers.MessageID != "msg_1" {
		t.Errorf("MessageID = %q, want msg_1", headers.MessageID)
	}
	if headers.Timestamp != 1700000000 {
		t.Errorf("Timestamp = %d, want 1700000000", headers.Timestamp)
	}
	if !strings.HasPrefix(headers.Signature, "v1=") {
		t.Errorf("Signature = %q, want v1= prefix", headers.Signature)
	}

	// The emitted token must decode back to the canonical tag.
	decoded, ok := DecodeTag(strings.TrimPrefix(headers.Signature, "v1="))
	if !ok {
		t.Fatal("emitted signature does not decode")
	}
	want := ComputeTag([]byte(key), "msg_1", 1700000000, payload)
	if !bytes.Equal(decoded, want) {
		t.Errorf("decoded tag = %x, want %x", decoded, want)
	}
}

func TestSignerSignNowUsesClock(t *testing.T) {
	at := time.Unix(1712345678, 500e6)
	signer := NewSigner(staticKey("k"), fixedClock(at))

	headers, err := signer.SignNow("msg_1", []byte("p"))
	if err != nil {
		t.Fatalf("SignNow() error: %v", err)
	}
	if headers.Timestamp != at.Unix() {
		t.Errorf("Timestamp = %d, want %d", headers.Timestamp, at.Unix())
	}
}

func TestSignerInvalidMessageID(t *testing.T) {
	signer := NewSigner(staticKey("k"), nil)

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"empty id", "", ErrEmptyMessageID},
		{"id at limit is fine", strings.Repeat("a", MaxMessageIDLength), nil},
		{"id over limit", strings.Repeat("a", MaxMessageIDLength+1), ErrMessageIDTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signer.Sign(tt.id, []byte("p"), time.Unix(0, 0))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Sign() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignerKeyFailures(t *testing.T) {
	if _, err := NewSigner(failingKey{}, nil).Sign("msg_1", nil, time.Unix(0, 0)); err == nil {
		t.Error("want error when key source fails")
	}
	if _, err := NewSigner(staticKey(nil), nil).Sign("msg_1", nil, time.Unix(0, 0)); !errors.Is(err, ErrNoKey) {
		t.Errorf("error = %v, want ErrNoKey", err)
	}
}

func TestSignedHeadersApply(t *testing.T) {
	h := http.Header{}
	SignedHeaders{MessageID: "msg_1", Timestamp: 1700000000, Signature: "v1=abc"}.Apply(h)

	if got := h.Get(HeaderID); got != "msg_1" {
		t.Errorf("%s = %q, want msg_1", HeaderID, got)
	}
	if got := h.Get(HeaderTimestamp); got != "1700000000" {
		t.Errorf("%s = %q, want 1700000000", HeaderTimestamp, got)
	}
	if got := h.Get(HeaderSignature); got != "v1=abc" {
		t.Errorf("%s = %q, want v1=abc", HeaderSignature, got)
	}
}
