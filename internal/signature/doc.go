// Package signature implements the symmetric webhook signing protocol shared
// by the publisher and the receiver.
//
// A delivery is authenticated by an HMAC-SHA256 tag computed over the
// canonical byte string
//
//	<message-id> "." <unix-timestamp-seconds> "." <raw-body-bytes>
//
// with a pre-shared key. The tag travels in the Webhook-Signature header as
// one or more "v1=<encoded-tag>" tokens; the message id and timestamp travel
// in Webhook-Id and Webhook-Timestamp. A sender rotating keys may attach
// several v1 tokens, one per active key, and the receiver accepts the
// delivery if any one of them matches.
//
// # Security Model
//
//   - Tags are compared with crypto/subtle (constant-time comparison)
//   - The sender's timestamp bounds the replay window; the receiver rejects
//     deliveries outside its tolerance regardless of tag correctness
//   - Key bytes are borrowed per call and never retained; scratch buffers
//     holding key-derived material are zeroed before release
//
// # Wire Compatibility
//
// Two header shapes exist in the wild. The split shape (canonical here)
// carries the timestamp in its own header:
//
//	Webhook-Id: msg_7fe2
//	Webhook-Timestamp: 1700000000
//	Webhook-Signature: v1=wLg0oGbQ...
//
// The combined shape embeds it in the signature header, Stripe style:
//
//	Webhook-Signature: t=1700000000,v1=wLg0oGbQ...
//
// ParseHeader decodes both into a tagged Header value; the Signer only ever
// emits the split shape. Unrecognized token keys are ignored so that future
// scheme versions do not break existing receivers.
package signature
