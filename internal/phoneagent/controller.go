package phoneagent

import "context"

// Controller performs input on a single device
type Controller interface {
	Tap(ctx context.Context, x, y int) error
	Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error
	Type(ctx context.Context, text string) error
	Back(ctx context.Context) error
	Home(ctx context.Context) error
	Launch(ctx context.Context, packageName string) error
}

// Screenshotter is implemented by controllers that can capture the screen
// as PNG bytes.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// ControllerFactory returns a controller for a device serial
type ControllerFactory func(deviceID string) Controller
