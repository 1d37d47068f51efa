package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"strconv"
	"sync"
)

const (
	// TagSize is the length in bytes of an authentication tag (HMAC-SHA256).
	TagSize = sha256.Size

	// MaxMessageIDLength bounds the message identifier to keep attacker-supplied
	// headers from inflating the bytes-to-sign.
	MaxMessageIDLength = 256
)

// prefixPool holds scratch buffers for the "<id>.<timestamp>." prefix of the
// canonical string. Buffers are zeroed before they go back in the pool.
var prefixPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, MaxMessageIDLength+32)
		return &b
	},
}

// ComputeTag computes the authentication tag over the canonical byte string
// id "." timestamp "." body. The prefix and the body are streamed into the
// MAC separately so a large body is never copied next to the prefix.
//
// The caller owns the returned slice and should pass it to Wipe once it is
// no longer needed.
func ComputeTag(key []byte, id string, timestamp int64, body []byte) []byte {
	bp := prefixPool.Get().(*[]byte)
	prefix := (*bp)[:0]
	prefix = append(prefix, id...)
	prefix = append(prefix, '.')
	prefix = strconv.AppendInt(prefix, timestamp, 10)
	prefix = append(prefix, '.')

	mac := hmac.New(sha256.New, key)
	mac.Write(prefix)
	mac.Write(body)
	tag := mac.Sum(nil)

	Wipe(prefix)
	*bp = prefix[:0]
	prefixPool.Put(bp)

	return tag
}

// Wipe overwrites b with zeros. Used to shorten the window sensitive
// material (keys, tags, canonical prefixes) lives in process memory.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
