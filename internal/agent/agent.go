package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/voxprep/voxprep/pkg/models"
)

// CallState is the lifecycle of one voice session. Transitions are linear:
// Inactive -> Connecting -> Active -> Finished; an error at any point forces
// the state back to Inactive.
type CallState int

const (
	StateInactive CallState = iota
	StateConnecting
	StateActive
	StateFinished
)

func (s CallState) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Mode selects what the voice session is for: generating a new interview by
// conversation, or conducting a prepared interview.
type Mode int

const (
	ModeGenerate Mode = iota
	ModeInterview
)

// ErrCallInProgress is returned when a start is attempted while a call is
// already connecting or active.
var ErrCallInProgress = errors.New("a call is already in progress")

type EventType int

const (
	EventCallStart EventType = iota
	EventCallEnd
	EventSpeechStart
	EventSpeechEnd
	EventTranscript
	EventError
)

// Event is one notification from the voice agent. The agent is a black-box
// event source; the controller only reacts.
type Event struct {
	Type EventType

	// transcript fields
	Role       string
	Transcript string
	Final      bool

	Err error
}

// StartOptions carries the mode-specific parameters for a voice connection.
type StartOptions struct {
	WorkflowID string
	Variables  map[string]string
}

// VoiceAgent is the external voice connection owned by a single controller.
// Exactly one connection may be active per agent at a time.
type VoiceAgent interface {
	Start(ctx context.Context, opts StartOptions) error
	Stop() error
	Events() <-chan Event
}

// FeedbackSubmitter sends an accumulated transcript to the feedback pipeline.
type FeedbackSubmitter interface {
	Submit(ctx context.Context, interviewID string, transcript []models.TranscriptTurn, feedbackID string) (string, error)
}

// Navigator moves the user to another view when the session concludes.
type Navigator interface {
	Navigate(path string)
}

// Config holds the per-session parameters the controller is constructed with.
type Config struct {
	Mode        Mode
	UserName    string
	UserID      string
	InterviewID string
	FeedbackID  string
	WorkflowID  string
	Questions   []string
}

// Controller drives one voice session. It owns its VoiceAgent instance; the
// agent's lifetime is scoped to the controller, not the process. All event
// handling happens on the Run goroutine, one event at a time.
type Controller struct {
	agent    VoiceAgent
	feedback FeedbackSubmitter
	nav      Navigator
	notify   func(message string)
	cfg      Config
	logger   *slog.Logger

	mu          sync.Mutex
	state       CallState
	messages    []models.TranscriptTurn
	lastMessage string
	concluded   bool
}

func New(agent VoiceAgent, feedback FeedbackSubmitter, nav Navigator, notify func(string), cfg Config, logger *slog.Logger) *Controller {
	if notify == nil {
		notify = func(string) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		agent:    agent,
		feedback: feedback,
		nav:      nav,
		notify:   notify,
		cfg:      cfg,
		logger:   logger,
		state:    StateInactive,
	}
}

// State returns the current call state.
func (c *Controller) State() CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns a copy of the finalized turns accumulated so far.
func (c *Controller) Transcript() []models.TranscriptTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.TranscriptTurn, len(c.messages))
	copy(out, c.messages)
	return out
}

// LastMessage returns the content of the most recent finalized turn, for
// live display.
func (c *Controller) LastMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMessage
}

// StartCall initiates the voice connection. It is guarded: starting while a
// call is connecting or active fails with ErrCallInProgress.
func (c *Controller) StartCall(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateInactive && c.state != StateFinished {
		c.mu.Unlock()
		return ErrCallInProgress
	}
	c.state = StateConnecting
	c.messages = nil
	c.lastMessage = ""
	c.concluded = false
	c.mu.Unlock()

	opts, err := c.startOptions()
	if err != nil {
		c.notify(err.Error())
		c.setState(StateInactive)
		return err
	}

	if err := c.agent.Start(ctx, opts); err != nil {
		c.logger.Error("voice agent start failed", slog.Any("err", err))
		c.notify(readableError(err, "Unable to start the call."))
		c.setState(StateInactive)
		return err
	}

	return nil
}

func (c *Controller) startOptions() (StartOptions, error) {
	if c.cfg.Mode == ModeGenerate {
		if c.cfg.WorkflowID == "" {
			return StartOptions{}, fmt.Errorf("voice workflow id is missing")
		}
		return StartOptions{
			WorkflowID: c.cfg.WorkflowID,
			Variables: map[string]string{
				"username": c.cfg.UserName,
				"userid":   c.cfg.UserID,
			},
		}, nil
	}

	var sb strings.Builder
	for _, q := range c.cfg.Questions {
		fmt.Fprintf(&sb, "- %s\n", q)
	}
	return StartOptions{
		Variables: map[string]string{
			"questions": strings.TrimSuffix(sb.String(), "\n"),
		},
	}, nil
}

// Disconnect ends the session from the user's side. The stop request is the
// only cancellation issued for in-flight agent work.
func (c *Controller) Disconnect(ctx context.Context) {
	c.setState(StateFinished)
	if err := c.agent.Stop(); err != nil {
		c.notify(readableError(err, "Unable to stop the call."))
	}
	c.finish(ctx)
}

// Run consumes agent events until the event channel closes or ctx is done.
// Each handler runs to completion before the next event is dispatched.
func (c *Controller) Run(ctx context.Context) {
	events := c.agent.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(ctx, ev)
		}
	}
}

func (c *Controller) handleEvent(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventCallStart:
		c.setState(StateActive)

	case EventCallEnd:
		c.setState(StateFinished)
		c.finish(ctx)

	case EventTranscript:
		// only finalized turns are recorded, and only once the call is live
		if !ev.Final {
			return
		}
		c.mu.Lock()
		if c.state == StateActive {
			c.messages = append(c.messages, models.TranscriptTurn{Role: ev.Role, Content: ev.Transcript})
			c.lastMessage = ev.Transcript
		}
		c.mu.Unlock()

	case EventSpeechStart, EventSpeechEnd:
		// speaking indicator only; no state change

	case EventError:
		c.logger.Error("voice agent error", slog.Any("err", ev.Err))
		c.notify(readableError(ev.Err, "Unable to continue the call."))
		c.setState(StateInactive)
	}
}

// finish runs once per session when the call reaches Finished: generate mode
// returns home, interview mode submits the transcript for feedback.
func (c *Controller) finish(ctx context.Context) {
	c.mu.Lock()
	if c.concluded {
		c.mu.Unlock()
		return
	}
	c.concluded = true
	transcript := make([]models.TranscriptTurn, len(c.messages))
	copy(transcript, c.messages)
	c.mu.Unlock()

	if c.cfg.Mode == ModeGenerate {
		c.nav.Navigate("/")
		return
	}

	if _, err := c.feedback.Submit(ctx, c.cfg.InterviewID, transcript, c.cfg.FeedbackID); err != nil {
		c.logger.Error("feedback submission failed", slog.Any("err", err))
		c.nav.Navigate("/")
		return
	}

	c.nav.Navigate(fmt.Sprintf("/interview/%s/feedback", c.cfg.InterviewID))
}

func (c *Controller) setState(s CallState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func readableError(err error, fallback string) string {
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		return err.Error()
	}
	return fallback
}
