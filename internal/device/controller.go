package device

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Controller sends input to a single device through adb
type Controller struct {
	adb    *ADB
	serial string
}

func (c *Controller) shell(ctx context.Context, args ...string) error {
	full := append([]string{"-s", c.serial, "shell"}, args...)
	_, err := c.adb.run(ctx, c.adb.path, full...)
	return err
}

// Tap touches the screen at x, y
func (c *Controller) Tap(ctx context.Context, x, y int) error {
	return c.shell(ctx, "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
}

// Swipe drags from x1, y1 to x2, y2 over durationMs
func (c *Controller) Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error {
	return c.shell(ctx, "input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2), strconv.Itoa(durationMs))
}

// Type enters text into the focused field
func (c *Controller) Type(ctx context.Context, text string) error {
	return c.shell(ctx, "input", "text", escapeInputText(text))
}

// Back presses the back key
func (c *Controller) Back(ctx context.Context) error {
	return c.shell(ctx, "input", "keyevent", "KEYCODE_BACK")
}

// Home presses the home key
func (c *Controller) Home(ctx context.Context) error {
	return c.shell(ctx, "input", "keyevent", "KEYCODE_HOME")
}

// Launch starts the launcher activity of packageName
func (c *Controller) Launch(ctx context.Context, packageName string) error {
	return c.shell(ctx, "monkey", "-p", packageName, "-c", "android.intent.category.LAUNCHER", "1")
}

// ForceStop kills packageName
func (c *Controller) ForceStop(ctx context.Context, packageName string) error {
	return c.shell(ctx, "am", "force-stop", packageName)
}

// Screenshot captures the screen as PNG
func (c *Controller) Screenshot(ctx context.Context) ([]byte, error) {
	out, err := c.adb.run(ctx, c.adb.path, "-s", c.serial, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, fmt.Errorf("screencap: %w", err)
	}
	return out, nil
}

// escapeInputText prepares text for `input text`, which splits on spaces
// and passes the argument through the device shell.
func escapeInputText(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch r {
		case ' ':
			b.WriteString("%s")
		case '\'', '"', '\\', '&', '|', ';', '<', '>', '(', ')', '$', '`', '*', '?', '#', '~', '!':
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
