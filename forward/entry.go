package forward

import (
	"bytes"
	"context"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/reroute-io/reroute/cache"
)

// entry is the cached envelope of one forwarded response.
type entry struct {
	Status int
	Header http.Header
	Body   []byte
}

func (e *entry) write(w http.ResponseWriter) {
	h := w.Header()
	for k, vs := range e.Header {
		h[k] = vs
	}

	w.WriteHeader(e.Status)
	w.Write(e.Body)
}

func getEntry(ctx context.Context, c cache.Cache, key string) (*entry, error) {
	value, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var e entry
	if err := gob.NewDecoder(bytes.NewReader(value)).Decode(&e); err != nil {
		return nil, err
	}

	return &e, nil
}

func setEntry(ctx context.Context, c cache.Cache, key string, e *entry, ttl time.Duration) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return err
	}

	return c.Set(ctx, key, buf.Bytes(), ttl)
}

// recorder tees the forwarded response to the client while capturing it for
// the cache.
type recorder struct {
	w      http.ResponseWriter
	status int
	body   bytes.Buffer
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{w: w, status: http.StatusOK}
}

func (r *recorder) Header() http.Header { return r.w.Header() }

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.w.WriteHeader(status)
}

func (r *recorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.w.Write(p)
}

func (r *recorder) entry() *entry {
	return &entry{
		Status: r.status,
		Header: r.w.Header().Clone(),
		Body:   bytes.Clone(r.body.Bytes()),
	}
}
