package validate

import "net/http"

// StatusClientClosedRequest is the nginx-convention status for a client that
// went away mid-request. It is distinct from 401/413 so operators can tell
// aborted uploads apart from authentication failures.
const StatusClientClosedRequest = 499

// Reason classifies why the validator rejected a request. Every rejection
// carries exactly one reason; none of them abort the process.
type Reason string

const (
	ReasonMissingHeader      Reason = "missing_header"
	ReasonIdentifierTooLong  Reason = "identifier_too_long"
	ReasonMalformedSignature Reason = "malformed_signature_header"
	ReasonTimestampInvalid   Reason = "timestamp_invalid"
	ReasonNoKey              Reason = "no_key_available"
	ReasonPayloadTooLarge    Reason = "payload_too_large"
	ReasonAborted            Reason = "request_aborted"
	ReasonSignatureMismatch  Reason = "signature_mismatch"
)

// Status maps a rejection reason to the HTTP status written to the client.
// Authentication-class failures all collapse to 401 so responses do not leak
// which check failed.
func (r Reason) Status() int {
	switch r {
	case ReasonPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ReasonAborted:
		return StatusClientClosedRequest
	default:
		return http.StatusUnauthorized
	}
}

func (r Reason) String() string {
	return string(r)
}
