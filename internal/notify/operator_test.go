package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

func (c *captureSender) Send(_ context.Context, msg EmailMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return c.err
}

func TestOperatorAlerterSendsEmail(t *testing.T) {
	capture := &captureSender{}
	alerter := NewOperatorAlerter(capture, "oncall@example.com", nil)

	alerter.SubmissionFailed(context.Background(), "15551234567", errors.New("backend timeout"))

	require.Len(t, capture.sent, 1)
	msg := capture.sent[0]
	assert.Equal(t, "oncall@example.com", msg.To)
	assert.Contains(t, msg.Subject, "15551234567")
	assert.Contains(t, msg.Body, "backend timeout")
}

func TestOperatorAlerterNoEmailConfigured(t *testing.T) {
	capture := &captureSender{}
	alerter := NewOperatorAlerter(capture, "", nil)

	alerter.SubmissionFailed(context.Background(), "15551234567", errors.New("backend timeout"))

	assert.Empty(t, capture.sent)
}

func TestOperatorAlerterSwallowsSendFailure(t *testing.T) {
	capture := &captureSender{err: errors.New("smtp down")}
	alerter := NewOperatorAlerter(capture, "oncall@example.com", nil)

	assert.NotPanics(t, func() {
		alerter.SubmissionFailed(context.Background(), "15551234567", errors.New("backend timeout"))
	})
}
