package phoneagent

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/sirupsen/logrus"
)

const systemPrompt = `You operate an Android phone to complete a task.
Each turn you receive the task, the actions already performed and, when available, a screenshot.
Reply with exactly one JSON object describing the next action and nothing else.
Available actions:
  {"action":"Launch","package":"<application id>"}
  {"action":"Tap","x":<int>,"y":<int>}
  {"action":"LongPress","x":<int>,"y":<int>,"duration_ms":<int>}
  {"action":"Swipe","direction":"up|down|left|right"} or {"action":"Swipe","x":<int>,"y":<int>,"x2":<int>,"y2":<int>}
  {"action":"Type","text":"<text>"}
  {"action":"Back"}
  {"action":"Home"}
  {"action":"Wait","duration_ms":<int>}
  {"action":"Finish","message":"<what happened>"}
Use Finish once the task is done or cannot be completed.`

// DefaultMaxSteps bounds the number of model turns for one instruction
const DefaultMaxSteps = 20

// ErrNoDevice is returned by Run when no device was bound
var ErrNoDevice = errors.New("no device bound to agent")

// Agent drives a device through a model, one action per turn.
type Agent struct {
	config        ModelConfig
	completer     Completer
	newController ControllerFactory
	controller    Controller
	deviceID      string
	maxSteps      int
	log           logrus.FieldLogger
}

// Option configures an Agent
type Option func(*Agent)

// WithCompleter replaces the OpenAI client
func WithCompleter(c Completer) Option {
	return func(a *Agent) { a.completer = c }
}

// WithControllerFactory sets how device controllers are created
func WithControllerFactory(f ControllerFactory) Option {
	return func(a *Agent) { a.newController = f }
}

// WithMaxSteps bounds the turns spent on one instruction
func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Agent) { a.log = log }
}

// New creates an agent bound to cfg
func New(cfg ModelConfig, opts ...Option) (*Agent, error) {
	a := &Agent{
		config:   cfg,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		logr := logrus.New()
		logr.SetLevel(logrus.PanicLevel)
		a.log = logr
	}
	if a.completer == nil {
		a.completer = NewOpenAICompleter(cfg)
	}
	if a.newController == nil {
		return nil, errors.New("no device controller factory configured")
	}
	return a, nil
}

// UseDevice binds the agent to a device serial
func (a *Agent) UseDevice(deviceID string) error {
	if deviceID == "" {
		return errors.New("empty device id")
	}
	a.deviceID = deviceID
	a.controller = a.newController(deviceID)
	return nil
}

// DeviceID returns the bound device, if any
func (a *Agent) DeviceID() string {
	return a.deviceID
}

// Run works on instruction until the model finishes or the step budget is
// spent. The Finish message is the result.
func (a *Agent) Run(ctx context.Context, instruction string) (string, error) {
	if a.controller == nil {
		return "", ErrNoDevice
	}
	log := a.log.WithFields(logrus.Fields{"device_id": a.deviceID, "model": a.config.ModelName})

	var history []Action
	for step := 1; step <= a.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		messages, err := a.buildMessages(ctx, instruction, history)
		if err != nil {
			return "", err
		}

		reply, err := a.completer.Complete(ctx, messages)
		if err != nil {
			return "", fmt.Errorf("step %d: %w", step, err)
		}

		action, err := ParseAction(reply)
		if err != nil {
			return "", fmt.Errorf("step %d: %w", step, err)
		}
		log.WithField("step", step).Debugf("action %s", action)

		if action.Action == ActionFinish {
			return action.Message, nil
		}
		if err := execute(ctx, a.controller, action); err != nil {
			return "", fmt.Errorf("step %d: %s: %w", step, action, err)
		}
		history = append(history, action)
	}
	return "", fmt.Errorf("task not finished after %d steps", a.maxSteps)
}

func (a *Agent) buildMessages(ctx context.Context, instruction string, history []Action) ([]openai.ChatCompletionMessageParamUnion, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", instruction)
	if len(history) == 0 {
		b.WriteString("No actions performed yet.\n")
	} else {
		b.WriteString("Actions performed so far:\n")
		for i, h := range history {
			fmt.Fprintf(&b, "%d. %s\n", i+1, h)
		}
	}
	b.WriteString("Reply with the next action as JSON.")

	parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(b.String())}

	if shooter, ok := a.controller.(Screenshotter); ok {
		png, err := shooter.Screenshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("capture screenshot: %w", err)
		}
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		}))
	}

	return []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(parts),
	}, nil
}
