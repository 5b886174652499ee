// Package mailtest provides a mail.Sender that records messages for tests.
package mailtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/estokealo/estokealo/internal/mail"
)

// Recorder stores every message it is asked to send.
type Recorder struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

// FailWith makes Send return err wrapped in mail.ErrDelivery. Nil restores delivery.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return fmt.Errorf("%w: %w", mail.ErrDelivery, r.err)
	}
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mail.Message(nil), r.sent...)
}

// Last returns the most recent message, or false when none was sent.
func (r *Recorder) Last() (mail.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return mail.Message{}, false
	}
	return r.sent[len(r.sent)-1], true
}
