package phoneagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Action names understood by the agent
const (
	ActionLaunch    = "Launch"
	ActionTap       = "Tap"
	ActionType      = "Type"
	ActionSwipe     = "Swipe"
	ActionLongPress = "LongPress"
	ActionBack      = "Back"
	ActionHome      = "Home"
	ActionWait      = "Wait"
	ActionFinish    = "Finish"
)

const (
	defaultPressMs = 1000
	defaultWaitMs  = 1000
	defaultSwipeMs = 300
)

// Action is a single step chosen by the model.
type Action struct {
	Action     string `json:"action"`
	X          int    `json:"x,omitempty"`
	Y          int    `json:"y,omitempty"`
	X2         int    `json:"x2,omitempty"`
	Y2         int    `json:"y2,omitempty"`
	Direction  string `json:"direction,omitempty"`
	Text       string `json:"text,omitempty"`
	Package    string `json:"package,omitempty"`
	DurationMs int    `json:"duration_ms,omitempty"`
	Message    string `json:"message,omitempty"`
}

// ParseAction extracts the JSON action object from a model reply. Replies
// may wrap the object in prose or a fenced code block.
func ParseAction(reply string) (Action, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return Action{}, fmt.Errorf("no JSON action in model reply %q", truncate(reply, 200))
	}

	var a Action
	if err := json.Unmarshal([]byte(reply[start:end+1]), &a); err != nil {
		return Action{}, fmt.Errorf("decode action: %w", err)
	}
	if a.Action == "" {
		return Action{}, errors.New("model reply has no action name")
	}
	return a, nil
}

// String renders the action for the step history sent back to the model
func (a Action) String() string {
	switch a.Action {
	case ActionTap:
		return fmt.Sprintf("Tap(%d, %d)", a.X, a.Y)
	case ActionLongPress:
		return fmt.Sprintf("LongPress(%d, %d)", a.X, a.Y)
	case ActionSwipe:
		if a.Direction != "" {
			return fmt.Sprintf("Swipe(%s)", a.Direction)
		}
		return fmt.Sprintf("Swipe(%d, %d -> %d, %d)", a.X, a.Y, a.X2, a.Y2)
	case ActionType:
		return fmt.Sprintf("Type(%q)", a.Text)
	case ActionLaunch:
		return fmt.Sprintf("Launch(%s)", a.Package)
	case ActionWait:
		return fmt.Sprintf("Wait(%dms)", a.DurationMs)
	default:
		return a.Action
	}
}

// swipeCoords resolves a direction into screen coordinates. Explicit
// coordinates are used when no direction is given.
func (a Action) swipeCoords() (x1, y1, x2, y2 int) {
	switch strings.ToLower(a.Direction) {
	case "up":
		return 500, 800, 500, 200
	case "down":
		return 500, 200, 500, 800
	case "left":
		return 800, 500, 200, 500
	case "right":
		return 200, 500, 800, 500
	}
	return a.X, a.Y, a.X2, a.Y2
}

// execute performs a non-terminal action on the controller
func execute(ctx context.Context, c Controller, a Action) error {
	switch a.Action {
	case ActionLaunch:
		if a.Package == "" {
			return errors.New("launch requires a package name")
		}
		return c.Launch(ctx, a.Package)
	case ActionTap:
		return c.Tap(ctx, a.X, a.Y)
	case ActionType:
		if a.Text == "" {
			return nil
		}
		return c.Type(ctx, a.Text)
	case ActionSwipe:
		x1, y1, x2, y2 := a.swipeCoords()
		return c.Swipe(ctx, x1, y1, x2, y2, orDefault(a.DurationMs, defaultSwipeMs))
	case ActionLongPress:
		// a stationary swipe holds the touch for the duration
		return c.Swipe(ctx, a.X, a.Y, a.X, a.Y, orDefault(a.DurationMs, defaultPressMs))
	case ActionBack:
		return c.Back(ctx)
	case ActionHome:
		return c.Home(ctx)
	case ActionWait:
		return sleep(ctx, time.Duration(orDefault(a.DurationMs, defaultWaitMs))*time.Millisecond)
	default:
		return fmt.Errorf("unknown action type: %s", a.Action)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
