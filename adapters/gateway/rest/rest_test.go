package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-routine-4595/myo-rest-bridge/model"
)

type captured struct {
	method      string
	path        string
	contentType string
	body        string
}

type fakeService struct {
	mu       sync.Mutex
	requests []captured
	lookup   string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, captured{
		method:      r.Method,
		path:        r.URL.Path,
		contentType: r.Header.Get("Content-Type"),
		body:        string(b),
	})
	f.mu.Unlock()

	if r.Method == http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, f.lookup)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
}

func newServer(t *testing.T, lookup string) (*httptest.Server, *fakeService) {
	f := &fakeService{lookup: lookup}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv, f
}

func TestLookupThenPostUsesReturnedID(t *testing.T) {
	srv, f := newServer(t, `{"_id":"abc123","name":"armband"}`)
	r := NewRest(RestConfig{Host: srv.URL, DefaultID: "53e621c7af755b5a17000002"}, 1)

	id, err := r.LookupDevice(context.Background(), "53e621c7af755b5a17000002")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
	assert.Equal(t, "abc123", r.DeviceID())

	rec := model.NewRecord("onArmLost", 12)
	// a 500 from the service is not an error for the caller
	require.NoError(t, r.SendEvent(rec))

	require.Len(t, f.requests, 2)
	assert.Equal(t, http.MethodGet, f.requests[0].method)
	assert.Equal(t, "/myo/53e621c7af755b5a17000002", f.requests[0].path)

	post := f.requests[1]
	assert.Equal(t, http.MethodPost, post.method)
	assert.Equal(t, "/myo/abc123/event", post.path)
	assert.Equal(t, "application/x-www-form-urlencoded", post.contentType)
	assert.Equal(t, "eventType=onArmLost&timestamp=12&", post.body)
}

func TestLookupInvalidJSON(t *testing.T) {
	srv, _ := newServer(t, `not json`)
	r := NewRest(RestConfig{Host: srv.URL}, 1)

	_, err := r.LookupDevice(context.Background(), "x")
	assert.Error(t, err)
}

func TestLookupMissingID(t *testing.T) {
	srv, _ := newServer(t, `{"name":"armband"}`)
	r := NewRest(RestConfig{Host: srv.URL, DefaultID: "x"}, 1)

	_, err := r.LookupDevice(context.Background(), "x")
	assert.ErrorIs(t, err, model.ErrMissingID)
	assert.Equal(t, "x", r.DeviceID())
}

func TestLookupConnectionError(t *testing.T) {
	srv, _ := newServer(t, `{}`)
	host := srv.URL
	srv.Close()

	r := NewRest(RestConfig{Host: host}, 1)
	_, err := r.LookupDevice(context.Background(), "x")
	assert.Error(t, err)
}

func TestSendEventTransportError(t *testing.T) {
	srv, _ := newServer(t, `{}`)
	host := srv.URL
	srv.Close()

	r := NewRest(RestConfig{Host: host, DefaultID: "dev"}, 1)
	err := r.SendEvent(model.NewRecord("onPair", 1))
	assert.Error(t, err)
}

func TestEventPathUsesDefaultUntilLookup(t *testing.T) {
	r := NewRest(RestConfig{Host: "http://localhost:3000", DefaultID: "53e621c7af755b5a17000002"}, 0)

	assert.Equal(t, "/myo/53e621c7af755b5a17000002/event", r.EventPath())
}
