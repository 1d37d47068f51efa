package validate

import (
	"bytes"
	"io"
	"net/http"
)

// readBounded reads the request body under a hard byte ceiling.
//
// A declared Content-Length over the ceiling rejects before any bytes are
// read. Otherwise the body is consumed incrementally; crossing the ceiling
// mid-stream aborts the read with ReasonPayloadTooLarge. A read error while
// the request context is already cancelled is classified as ReasonAborted,
// not as an authentication failure.
func readBounded(r *http.Request, max int64) ([]byte, Reason, bool) {
	if r.ContentLength > max {
		return nil, ReasonPayloadTooLarge, false
	}

	// Read one byte past the ceiling so an exactly-at-limit body is
	// distinguishable from an oversized one.
	limited := io.LimitReader(r.Body, max+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		// Context cancellation and transport-level read failures both mean
		// the client went away; neither is an authentication verdict.
		return nil, ReasonAborted, false
	}
	if int64(len(body)) > max {
		return nil, ReasonPayloadTooLarge, false
	}
	return body, "", true
}

// replaceBody re-presents consumed body bytes to downstream readers. The
// validator buffers the body to verify it, but it is not the final consumer.
func replaceBody(r *http.Request, body []byte) {
	r.Body = io.NopCloser(bytes.NewReader(body))
}
