package execctx

import "bytes"

// Recorder is an in-memory Response, used by the CLI resolver and tests.
type Recorder struct {
	Code int
	Body bytes.Buffer
}

// NewRecorder creates a Recorder with status 200.
func NewRecorder() *Recorder {
	return &Recorder{Code: 200}
}

// Write appends p to the body.
func (r *Recorder) Write(p []byte) (int, error) {
	return r.Body.Write(p)
}

// SetStatus records the status code.
func (r *Recorder) SetStatus(code int) {
	r.Code = code
}

// String returns the body written so far.
func (r *Recorder) String() string {
	return r.Body.String()
}
