package signature

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"testing"
)

func TestComputeTag(t *testing.T) {
	key := []byte("test-secret-key")
	id := "msg_2f9a"
	ts := int64(1700000000)
	body := []byte(`{"event":"order.created","amount":42}`)

	// Reference computation over the materialized canonical string.
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%d.%s", id, ts, body)
	want := mac.Sum(nil)

	got := ComputeTag(key, id, ts, body)
	if !bytes.Equal(got, want) {
		t.Errorf("ComputeTag() = %x, want %x", got, want)
	}
	if len(got) != TagSize {
		t.Errorf("tag length = %d, want %d", len(got), TagSize)
	}
}

func TestComputeTagDeterministic(t *testing.T) {
	key := []byte("k")
	a := ComputeTag(key, "id", 1, []byte("body"))
	b := ComputeTag(key, "id", 1, []byte("body"))
	if !bytes.Equal(a, b) {
		t.Error("tag should be deterministic")
	}
}

func TestComputeTagInputSensitivity(t *testing.T) {
	key := []byte("test-secret-key")
	base := ComputeTag(key, "msg_1", 1700000000, []byte("payload"))

	tests := []struct {
		name string
		id   string
		ts   int64
		body []byte
	}{
		{"different id", "msg_2", 1700000000, []byte("payload")},
		{"different timestamp", "msg_1", 1700000001, []byte("payload")},
		{"different body", "msg_1", 1700000000, []byte("payloae")},
		{"separator shifted into id", "msg_1.", 1700000000, []byte("payload")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTag(key, tt.id, tt.ts, tt.body)
			if bytes.Equal(got, base) {
				t.Error("distinct inputs must not collide")
			}
		})
	}
}

func TestComputeTagKeySensitivity(t *testing.T) {
	a := ComputeTag([]byte("key-a"), "id", 1, []byte("body"))
	b := ComputeTag([]byte("key-b"), "id", 1, []byte("body"))
	if bytes.Equal(a, b) {
		t.Error("different keys must produce different tags")
	}
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Wipe(b)
	for i, v := range b {
		if v != 0 {
			t.Errorf("b[%d] = %d, want 0", i, v)
		}
	}
}
