package intake

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebridge/intake-platform/internal/intake/session"
	"github.com/casebridge/intake-platform/internal/language"
)

type fakeDedup struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	checkErr error
	markErr  error
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{seen: make(map[string]struct{})}
}

func (f *fakeDedup) AlreadyProcessed(_ context.Context, channel, messageID string) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[channel+":"+messageID]
	return ok, nil
}

func (f *fakeDedup) MarkProcessed(_ context.Context, channel, messageID string) (bool, error) {
	if f.markErr != nil {
		return false, f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := channel + ":" + messageID
	if _, ok := f.seen[key]; ok {
		return false, nil
	}
	f.seen[key] = struct{}{}
	return true, nil
}

type fakeRecorder struct {
	mu        sync.Mutex
	inbound   []InboundMessage
	outbound  []string
	submitted []string
	err       error
}

func (f *fakeRecorder) RecordInbound(_ context.Context, msg InboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbound = append(f.inbound, msg)
	return f.err
}

func (f *fakeRecorder) RecordOutbound(_ context.Context, _, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outbound = append(f.outbound, body)
	return f.err
}

func (f *fakeRecorder) MarkSubmitted(_ context.Context, senderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, senderID)
	return f.err
}

type processorFixture struct {
	processor *Processor
	store     session.Store
	dedup     *fakeDedup
	recorder  *fakeRecorder
	submitter *fakeSubmitter
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	store := session.NewMemoryStore()
	submitter := &fakeSubmitter{}
	engine, err := NewEngine(EngineConfig{
		Sessions: store,
		Detector: language.NewDetector(nil, nil),
		Cases:    submitter,
	})
	require.NoError(t, err)

	f := &processorFixture{
		store:     store,
		dedup:     newFakeDedup(),
		recorder:  &fakeRecorder{},
		submitter: submitter,
	}
	f.processor = NewProcessor(ProcessorConfig{
		Engine:    engine,
		Processed: f.dedup,
		Recorder:  f.recorder,
	})
	return f
}

func TestProcessInboundAdvancesOnce(t *testing.T) {
	f := newProcessorFixture(t)
	msg := InboundMessage{SenderID: "1555", MessageID: "wamid.1", Text: "hi"}

	require.NoError(t, f.processor.ProcessInbound(context.Background(), msg))
	// Redelivery of the same id is swallowed without touching the session.
	require.NoError(t, f.processor.ProcessInbound(context.Background(), msg))

	sess, err := f.store.Get(context.Background(), "1555")
	require.NoError(t, err)
	assert.Equal(t, string(StageConsent), sess.Stage)
	assert.Len(t, f.recorder.inbound, 1)
	assert.Len(t, f.recorder.outbound, 1)
}

func TestProcessInboundConcurrentDuplicates(t *testing.T) {
	f := newProcessorFixture(t)
	msg := InboundMessage{SenderID: "1555", MessageID: "wamid.dup", Text: "hi"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.processor.ProcessInbound(context.Background(), msg)
		}()
	}
	wg.Wait()

	// Exactly one delivery advanced the dialogue.
	sess, err := f.store.Get(context.Background(), "1555")
	require.NoError(t, err)
	assert.Equal(t, string(StageConsent), sess.Stage)
	assert.Len(t, f.recorder.inbound, 1)
}

func TestProcessInboundDedupLookupFailure(t *testing.T) {
	f := newProcessorFixture(t)
	f.dedup.checkErr = errors.New("pg down")

	err := f.processor.ProcessInbound(context.Background(), InboundMessage{
		SenderID: "1555", MessageID: "wamid.1", Text: "hi",
	})
	require.Error(t, err)

	// The dialogue did not advance, so redelivery can retry cleanly.
	sess, getErr := f.store.Get(context.Background(), "1555")
	require.NoError(t, getErr)
	assert.Empty(t, sess.Stage)
}

func TestProcessInboundEngineErrorLeavesUnmarked(t *testing.T) {
	f := newProcessorFixture(t)

	// Walk to the confirmation step, then fail the backend.
	for i, text := range []string{"hi", "yes", "en", "divorce", "long story", "Texas", "skip", "Jo, jo@x.com"} {
		require.NoError(t, f.processor.ProcessInbound(context.Background(), InboundMessage{
			SenderID: "1555", MessageID: "wamid.walk" + string(rune('a'+i)), Text: text,
		}))
	}
	f.submitter.err = errors.New("backend down")

	msg := InboundMessage{SenderID: "1555", MessageID: "wamid.submit", Text: "yes"}
	err := f.processor.ProcessInbound(context.Background(), msg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSubmissionFailed))

	// Unmarked: once the backend recovers, a redelivery completes the intake.
	f.submitter.err = nil
	require.NoError(t, f.processor.ProcessInbound(context.Background(), msg))
	assert.Len(t, f.submitter.submissions, 1)
}

func TestProcessInboundMarksConversationSubmittedOnHandover(t *testing.T) {
	f := newProcessorFixture(t)

	for i, text := range []string{"hi", "yes", "en", "divorce", "long story", "Texas", "skip", "Jo, jo@x.com"} {
		require.NoError(t, f.processor.ProcessInbound(context.Background(), InboundMessage{
			SenderID: "1555", MessageID: "wamid.walk" + string(rune('a'+i)), Text: text,
		}))
	}
	assert.Empty(t, f.recorder.submitted)

	require.NoError(t, f.processor.ProcessInbound(context.Background(), InboundMessage{
		SenderID: "1555", MessageID: "wamid.confirm", Text: "yes",
	}))

	require.Len(t, f.submitter.submissions, 1)
	assert.Equal(t, []string{"1555"}, f.recorder.submitted)
}

func TestProcessInboundMarkFailureDoesNotSurface(t *testing.T) {
	f := newProcessorFixture(t)
	f.dedup.markErr = errors.New("pg down")

	// The transition already committed, so the message still succeeds.
	err := f.processor.ProcessInbound(context.Background(), InboundMessage{
		SenderID: "1555", MessageID: "wamid.1", Text: "hi",
	})
	require.NoError(t, err)

	sess, getErr := f.store.Get(context.Background(), "1555")
	require.NoError(t, getErr)
	assert.Equal(t, string(StageConsent), sess.Stage)
}

func TestProcessInboundRecorderFailureIsBestEffort(t *testing.T) {
	f := newProcessorFixture(t)
	f.recorder.err = errors.New("db down")

	err := f.processor.ProcessInbound(context.Background(), InboundMessage{
		SenderID: "1555", MessageID: "wamid.1", Text: "hi",
	})
	require.NoError(t, err)
}

func TestProcessInboundWithoutMessageIDSkipsDedup(t *testing.T) {
	f := newProcessorFixture(t)

	// Messages without a channel id are processed without touching the
	// dedup index.
	msg := InboundMessage{SenderID: "1555", Text: "hi"}
	require.NoError(t, f.processor.ProcessInbound(context.Background(), msg))
	require.NoError(t, f.processor.ProcessInbound(context.Background(), msg))

	sess, err := f.store.Get(context.Background(), "1555")
	require.NoError(t, err)
	// Both deliveries advanced: greeting -> consent -> consent retry loop.
	assert.Equal(t, string(StageConsent), sess.Stage)
}
