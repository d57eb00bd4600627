package delivery

import (
	"context"
	"sync"
)

// Recorder keeps every delivered artifact in memory, in call order.  It can
// be armed to fail a specific call, which is how tests simulate a blocked
// download.  Intended for tests and dev environments.
type Recorder struct {
	mu       sync.Mutex
	calls    []Artifact
	attempts int
	failAt   int
	failName string
	failErr  error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Deliver(ctx context.Context, a Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts++
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.failErr != nil {
		if (r.failAt > 0 && r.attempts == r.failAt) || (r.failName != "" && a.Name == r.failName) {
			return r.failErr
		}
	}

	a.Content = append([]byte(nil), a.Content...)
	r.calls = append(r.calls, a)
	return nil
}

// FailOnCall makes the n-th Deliver attempt (1-based, counted from now)
// return err.
func (r *Recorder) FailOnCall(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = 0
	r.failAt = n
	r.failName = ""
	r.failErr = err
}

// FailOnName makes every Deliver of the named artifact return err.
func (r *Recorder) FailOnName(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAt = 0
	r.failName = name
	r.failErr = err
}

// Heal disarms any pending failure.
func (r *Recorder) Heal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAt = 0
	r.failName = ""
	r.failErr = nil
}

// Delivered returns a copy of the successfully delivered artifacts.
func (r *Recorder) Delivered() []Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Artifact, len(r.calls))
	copy(out, r.calls)
	return out
}

// Attempts reports Deliver calls since the last FailOnCall, including
// failed ones.
func (r *Recorder) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.attempts = 0
}
