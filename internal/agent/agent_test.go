package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/voxprep/voxprep/pkg/models"
)

type fakeVoice struct {
	events    chan Event
	startErr  error
	startOpts []StartOptions
	stops     int
}

func newFakeVoice() *fakeVoice {
	return &fakeVoice{events: make(chan Event, 16)}
}

func (f *fakeVoice) Start(ctx context.Context, opts StartOptions) error {
	f.startOpts = append(f.startOpts, opts)
	return f.startErr
}

func (f *fakeVoice) Stop() error {
	f.stops++
	return nil
}

func (f *fakeVoice) Events() <-chan Event { return f.events }

type submitCall struct {
	interviewID string
	transcript  []models.TranscriptTurn
	feedbackID  string
}

type fakeSubmitter struct {
	calls []submitCall
	id    string
	err   error
}

func (f *fakeSubmitter) Submit(ctx context.Context, interviewID string, transcript []models.TranscriptTurn, feedbackID string) (string, error) {
	f.calls = append(f.calls, submitCall{interviewID, transcript, feedbackID})
	return f.id, f.err
}

type fakeNav struct {
	paths []string
}

func (f *fakeNav) Navigate(path string) { f.paths = append(f.paths, path) }

func newTestController(voice *fakeVoice, sub *fakeSubmitter, nav *fakeNav, cfg Config) *Controller {
	return New(voice, sub, nav, nil, cfg, nil)
}

func interviewConfig() Config {
	return Config{
		Mode:        ModeInterview,
		UserName:    "Alice",
		UserID:      "user-1",
		InterviewID: "int-1",
		Questions:   []string{"What is a goroutine?", "Explain channels."},
	}
}

func TestStartCall_Guard(t *testing.T) {
	voice := newFakeVoice()
	c := newTestController(voice, &fakeSubmitter{}, &fakeNav{}, interviewConfig())

	if err := c.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall error: %v", err)
	}
	if c.State() != StateConnecting {
		t.Fatalf("expected Connecting, got %v", c.State())
	}

	if err := c.StartCall(context.Background()); !errors.Is(err, ErrCallInProgress) {
		t.Fatalf("expected ErrCallInProgress while connecting, got %v", err)
	}

	c.handleEvent(context.Background(), Event{Type: EventCallStart})
	if c.State() != StateActive {
		t.Fatalf("expected Active, got %v", c.State())
	}
	if err := c.StartCall(context.Background()); !errors.Is(err, ErrCallInProgress) {
		t.Fatalf("expected ErrCallInProgress while active, got %v", err)
	}

	c.handleEvent(context.Background(), Event{Type: EventCallEnd})
	if c.State() != StateFinished {
		t.Fatalf("expected Finished, got %v", c.State())
	}
	if err := c.StartCall(context.Background()); err != nil {
		t.Fatalf("restart after finish must be allowed, got %v", err)
	}
}

func TestStartCall_GenerateRequiresWorkflow(t *testing.T) {
	voice := newFakeVoice()
	notified := 0
	c := New(voice, &fakeSubmitter{}, &fakeNav{}, func(string) { notified++ }, Config{Mode: ModeGenerate}, nil)

	if err := c.StartCall(context.Background()); err == nil {
		t.Fatalf("expected error without a workflow id")
	}
	if c.State() != StateInactive {
		t.Fatalf("expected Inactive after failed start, got %v", c.State())
	}
	if notified == 0 {
		t.Fatalf("expected a user notification")
	}
	if len(voice.startOpts) != 0 {
		t.Fatalf("agent must not be started without a workflow id")
	}
}

func TestStartCall_GenerateOptions(t *testing.T) {
	voice := newFakeVoice()
	c := newTestController(voice, &fakeSubmitter{}, &fakeNav{}, Config{
		Mode:       ModeGenerate,
		UserName:   "Alice",
		UserID:     "user-1",
		WorkflowID: "wf-1",
	})

	if err := c.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall error: %v", err)
	}
	if len(voice.startOpts) != 1 {
		t.Fatalf("expected one start, got %d", len(voice.startOpts))
	}
	opts := voice.startOpts[0]
	if opts.WorkflowID != "wf-1" {
		t.Errorf("expected workflow id, got %q", opts.WorkflowID)
	}
	if opts.Variables["username"] != "Alice" || opts.Variables["userid"] != "user-1" {
		t.Errorf("unexpected variables: %v", opts.Variables)
	}
}

func TestStartCall_InterviewOptions(t *testing.T) {
	voice := newFakeVoice()
	c := newTestController(voice, &fakeSubmitter{}, &fakeNav{}, interviewConfig())

	if err := c.StartCall(context.Background()); err != nil {
		t.Fatalf("StartCall error: %v", err)
	}
	got := voice.startOpts[0].Variables["questions"]
	want := "- What is a goroutine?\n- Explain channels."
	if got != want {
		t.Fatalf("questions variable mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestStartCall_StartError(t *testing.T) {
	voice := newFakeVoice()
	voice.startErr = fmt.Errorf("network down")
	c := newTestController(voice, &fakeSubmitter{}, &fakeNav{}, interviewConfig())

	if err := c.StartCall(context.Background()); err == nil {
		t.Fatalf("expected start error")
	}
	if c.State() != StateInactive {
		t.Fatalf("expected Inactive after start failure, got %v", c.State())
	}
}

func TestTranscriptAccumulation(t *testing.T) {
	voice := newFakeVoice()
	c := newTestController(voice, &fakeSubmitter{}, &fakeNav{}, interviewConfig())
	ctx := context.Background()

	if err := c.StartCall(ctx); err != nil {
		t.Fatalf("StartCall error: %v", err)
	}

	// before the call is live nothing is recorded
	c.handleEvent(ctx, Event{Type: EventTranscript, Role: "assistant", Transcript: "early", Final: true})
	if len(c.Transcript()) != 0 {
		t.Fatalf("transcript recorded before call start")
	}

	c.handleEvent(ctx, Event{Type: EventCallStart})

	// partial results are ignored
	c.handleEvent(ctx, Event{Type: EventTranscript, Role: "user", Transcript: "chan", Final: false})
	c.handleEvent(ctx, Event{Type: EventTranscript, Role: "user", Transcript: "channels sync goroutines", Final: true})
	c.handleEvent(ctx, Event{Type: EventSpeechStart})
	c.handleEvent(ctx, Event{Type: EventTranscript, Role: "assistant", Transcript: "good answer", Final: true})

	got := c.Transcript()
	if len(got) != 2 {
		t.Fatalf("expected 2 finalized turns, got %v", got)
	}
	if got[0].Role != "user" || got[0].Content != "channels sync goroutines" {
		t.Errorf("unexpected first turn: %+v", got[0])
	}
	if c.LastMessage() != "good answer" {
		t.Errorf("unexpected last message %q", c.LastMessage())
	}
}

func TestErrorEvent_ResetsToInactive(t *testing.T) {
	voice := newFakeVoice()
	notified := 0
	c := New(voice, &fakeSubmitter{}, &fakeNav{}, func(string) { notified++ }, interviewConfig(), nil)
	ctx := context.Background()

	if err := c.StartCall(ctx); err != nil {
		t.Fatalf("StartCall error: %v", err)
	}
	c.handleEvent(ctx, Event{Type: EventCallStart})
	c.handleEvent(ctx, Event{Type: EventError, Err: fmt.Errorf("connection dropped")})

	if c.State() != StateInactive {
		t.Fatalf("expected Inactive after error, got %v", c.State())
	}
	if notified == 0 {
		t.Fatalf("expected a user notification")
	}
}

func TestFinish_GenerateNavigatesHome(t *testing.T) {
	voice := newFakeVoice()
	sub := &fakeSubmitter{}
	nav := &fakeNav{}
	c := newTestController(voice, sub, nav, Config{Mode: ModeGenerate, WorkflowID: "wf-1"})
	ctx := context.Background()

	if err := c.StartCall(ctx); err != nil {
		t.Fatalf("StartCall error: %v", err)
	}
	c.handleEvent(ctx, Event{Type: EventCallStart})
	c.handleEvent(ctx, Event{Type: EventCallEnd})

	if len(sub.calls) != 0 {
		t.Fatalf("generate mode must not submit feedback")
	}
	if len(nav.paths) != 1 || nav.paths[0] != "/" {
		t.Fatalf("expected navigation home, got %v", nav.paths)
	}
}

func TestFinish_InterviewSubmitsTranscript(t *testing.T) {
	voice := newFakeVoice()
	sub := &fakeSubmitter{id: "fb-1"}
	nav := &fakeNav{}
	cfg := interviewConfig()
	cfg.FeedbackID = "fb-1"
	c := newTestController(voice, sub, nav, cfg)
	ctx := context.Background()

	if err := c.StartCall(ctx); err != nil {
		t.Fatalf("StartCall error: %v", err)
	}
	c.handleEvent(ctx, Event{Type: EventCallStart})
	c.handleEvent(ctx, Event{Type: EventTranscript, Role: "user", Transcript: "my answer", Final: true})
	c.handleEvent(ctx, Event{Type: EventCallEnd})

	if len(sub.calls) != 1 {
		t.Fatalf("expected one submission, got %d", len(sub.calls))
	}
	call := sub.calls[0]
	if call.interviewID != "int-1" || call.feedbackID != "fb-1" {
		t.Errorf("unexpected submission ids: %+v", call)
	}
	if len(call.transcript) != 1 || call.transcript[0].Content != "my answer" {
		t.Errorf("unexpected transcript: %+v", call.transcript)
	}
	if len(nav.paths) != 1 || nav.paths[0] != "/interview/int-1/feedback" {
		t.Fatalf("expected navigation to feedback, got %v", nav.paths)
	}
}

func TestFinish_SubmitErrorNavigatesHome(t *testing.T) {
	voice := newFakeVoice()
	sub := &fakeSubmitter{err: fmt.Errorf("pipeline down")}
	nav := &fakeNav{}
	c := newTestController(voice, sub, nav, interviewConfig())
	ctx := context.Background()

	if err := c.StartCall(ctx); err != nil {
		t.Fatalf("StartCall error: %v", err)
	}
	c.handleEvent(ctx, Event{Type: EventCallStart})
	c.handleEvent(ctx, Event{Type: EventCallEnd})

	if len(nav.paths) != 1 || nav.paths[0] != "/" {
		t.Fatalf("expected navigation home after submit failure, got %v", nav.paths)
	}
}

func TestFinish_RunsOnce(t *testing.T) {
	voice := newFakeVoice()
	sub := &fakeSubmitter{}
	nav := &fakeNav{}
	c := newTestController(voice, sub, nav, interviewConfig())
	ctx := context.Background()

	if err := c.StartCall(ctx); err != nil {
		t.Fatalf("StartCall error: %v", err)
	}
	c.handleEvent(ctx, Event{Type: EventCallStart})
	c.handleEvent(ctx, Event{Type: EventCallEnd})
	c.Disconnect(ctx)

	if len(sub.calls) != 1 {
		t.Fatalf("conclusion must run once, submitted %d times", len(sub.calls))
	}
	if len(nav.paths) != 1 {
		t.Fatalf("conclusion must run once, navigated %d times", len(nav.paths))
	}
}

func TestDisconnect_StopsAgent(t *testing.T) {
	voice := newFakeVoice()
	c := newTestController(voice, &fakeSubmitter{}, &fakeNav{}, Config{Mode: ModeGenerate, WorkflowID: "wf-1"})
	ctx := context.Background()

	if err := c.StartCall(ctx); err != nil {
		t.Fatalf("StartCall error: %v", err)
	}
	c.Disconnect(ctx)

	if voice.stops != 1 {
		t.Fatalf("expected one stop, got %d", voice.stops)
	}
	if c.State() != StateFinished {
		t.Fatalf("expected Finished, got %v", c.State())
	}
}

func TestRun_StopsOnChannelClose(t *testing.T) {
	voice := newFakeVoice()
	c := newTestController(voice, &fakeSubmitter{}, &fakeNav{}, interviewConfig())

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	voice.events <- Event{Type: EventCallStart}
	close(voice.events)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after channel close")
	}
	if c.State() != StateActive {
		t.Fatalf("expected event to be handled before return, state %v", c.State())
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	voice := newFakeVoice()
	c := newTestController(voice, &fakeSubmitter{}, &fakeNav{}, interviewConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after context cancel")
	}
}
