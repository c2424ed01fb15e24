package device

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devicesOutput = `* daemon not running; starting now at tcp:5037
* daemon started successfully
List of devices attached
emulator-5554          device product:sdk_gphone64 model:sdk_gphone64_x86_64 device:emu64x transport_id:1
R58M123ABC             unauthorized usb:1-1 transport_id:2
192.168.1.20:5555      offline
0123456789ABCDEF       device usb:1-2 product:redfin model:Pixel_5 device:redfin transport_id:3

`

type fakeRunner struct {
	out   []byte
	err   error
	calls [][]string
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.out, f.err
}

func quietLogger() logrus.FieldLogger {
	logr := logrus.New()
	logr.SetOutput(io.Discard)
	return logr
}

func TestParseDevices(t *testing.T) {
	devices := ParseDevices([]byte(devicesOutput))
	require.Len(t, devices, 4)

	assert.Equal(t, "emulator-5554", devices[0].ID)
	assert.Equal(t, "device", devices[0].Status)
	assert.Equal(t, "sdk_gphone64_x86_64", devices[0].Model)
	assert.Equal(t, "sdk_gphone64", devices[0].Product)
	assert.Equal(t, "unauthorized", devices[1].Status)
	assert.Equal(t, "192.168.1.20:5555", devices[2].ID)
	assert.Equal(t, "Pixel_5", devices[3].Model)
}

func TestParseDevices_Empty(t *testing.T) {
	assert.Empty(t, ParseDevices([]byte("List of devices attached\n\n")))
	assert.Empty(t, ParseDevices(nil))
}

func TestADB_ListDevices(t *testing.T) {
	runner := &fakeRunner{out: []byte(devicesOutput)}
	adb := NewADB("/opt/platform-tools/adb", runner.run, quietLogger())

	devices, err := adb.ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "emulator-5554", devices[0].ID)
	assert.Equal(t, "0123456789ABCDEF", devices[1].ID)
	assert.Equal(t, [][]string{{"/opt/platform-tools/adb", "devices", "-l"}}, runner.calls)
}

func TestADB_ListDevicesError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("executable file not found in $PATH")}
	_, err := NewADB("adb", runner.run, quietLogger()).ListDevices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adb devices")
}

func TestController_Commands(t *testing.T) {
	runner := &fakeRunner{}
	ctrl := NewADB("adb", runner.run, quietLogger()).Controller("emulator-5554")
	ctx := context.Background()

	require.NoError(t, ctrl.Tap(ctx, 10, 20))
	require.NoError(t, ctrl.Swipe(ctx, 1, 2, 3, 4, 300))
	require.NoError(t, ctrl.Type(ctx, "hi there"))
	require.NoError(t, ctrl.Back(ctx))
	require.NoError(t, ctrl.Home(ctx))
	require.NoError(t, ctrl.Launch(ctx, "com.example.app"))
	require.NoError(t, ctrl.ForceStop(ctx, "com.example.app"))

	got := make([]string, 0, len(runner.calls))
	for _, c := range runner.calls {
		got = append(got, strings.Join(c, " "))
	}
	assert.Equal(t, []string{
		"adb -s emulator-5554 shell input tap 10 20",
		"adb -s emulator-5554 shell input swipe 1 2 3 4 300",
		"adb -s emulator-5554 shell input text hi%sthere",
		"adb -s emulator-5554 shell input keyevent KEYCODE_BACK",
		"adb -s emulator-5554 shell input keyevent KEYCODE_HOME",
		"adb -s emulator-5554 shell monkey -p com.example.app -c android.intent.category.LAUNCHER 1",
		"adb -s emulator-5554 shell am force-stop com.example.app",
	}, got)
}

func TestController_Screenshot(t *testing.T) {
	runner := &fakeRunner{out: []byte("\x89PNG")}
	png, err := NewADB("adb", runner.run, quietLogger()).Controller("abc").Screenshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png)
	assert.Equal(t, []string{"adb", "-s", "abc", "exec-out", "screencap", "-p"}, runner.calls[0])
}

func TestEscapeInputText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"two words", "two%swords"},
		{"it's", `it\'s`},
		{"a&b", `a\&b`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeInputText(tt.in))
		})
	}
}
