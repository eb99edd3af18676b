package server

import (
	"bytes"
	"net/http"
)

// response buffers handler output so the status can still change after the
// first write and failures can replace it with an error status.
type response struct {
	code     int
	explicit bool
	body     bytes.Buffer
}

func newResponse() *response {
	return &response{code: http.StatusOK}
}

// Write implements execctx.Response.
func (r *response) Write(p []byte) (int, error) {
	return r.body.Write(p)
}

// SetStatus implements execctx.Response.
func (r *response) SetStatus(code int) {
	r.code = code
	r.explicit = true
}
