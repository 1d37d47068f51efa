package publish

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sigilhq/sigil/internal/keys"
	"github.com/sigilhq/sigil/internal/signature"
	"github.com/sigilhq/sigil/internal/validate"
)

type fixedClock time.Time

func (f fixedClock) Now() time.Time {
	return time.Time(f)
}

func TestPublishDeliversVerifiableRequest(t *testing.T) {
	secret := []byte("shared-key")
	payload := []byte(`{"event":"order.created"}`)
	now := time.Unix(1700000000, 0)

	// The receiving end runs the real validator, so this test pins the two
	// roles to the same canonical construction.
	v := validate.New(validate.Options{
		Ring:  keys.StaticRing(secret),
		Clock: fixedClock(now),
	})

	var accepted bool
	srv := httptest.NewServer(v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accepted = true
		wh, _ := validate.FromContext(r.Context())
		if wh.ID != "msg_42" {
			t.Errorf("validated ID = %q, want msg_42", wh.ID)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != string(payload) {
			t.Errorf("body = %q, want %q", body, payload)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		w.WriteHeader(http.StatusAccepted)
	})))
	defer srv.Close()

	pub := New(srv.URL, keys.Static(secret), fixedClock(now), srv.Client(), nil)
	status, err := pub.Publish(context.Background(), "msg_42", payload)
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if status != http.StatusAccepted {
		t.Errorf("status = %d, want %d", status, http.StatusAccepted)
	}
	if !accepted {
		t.Error("validator did not accept the published request")
	}
}

func TestPublishReturnsEndpointStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	pub := New(srv.URL, keys.Static([]byte("k")), nil, srv.Client(), nil)
	status, err := pub.Publish(context.Background(), "msg_1", []byte("p"))
	if err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", status, http.StatusUnauthorized)
	}
}

func TestPublishInvalidArguments(t *testing.T) {
	pub := New("http://127.0.0.1:0", keys.Static([]byte("k")), nil, nil, nil)

	if _, err := pub.Publish(context.Background(), "", []byte("p")); !errors.Is(err, signature.ErrEmptyMessageID) {
		t.Errorf("error = %v, want ErrEmptyMessageID", err)
	}
}

func TestPublishTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	pub := New(srv.URL, keys.Static([]byte("k")), nil, nil, nil)
	status, err := pub.Publish(context.Background(), "msg_1", []byte("p"))
	if err == nil {
		t.Fatal("want transport error")
	}
	if status != 0 {
		t.Errorf("status = %d, want 0", status)
	}
}
