package device

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"fuzzworker/internal/domain"
)

// StatusDevice is the adb state of a connected, authorized device
const StatusDevice = "device"

// CommandRunner executes an external command and returns its stdout
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec. Stderr is folded into the error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
		}
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
	}
	return out, nil
}

// ADB talks to the Android debug bridge
type ADB struct {
	path string
	run  CommandRunner
	log  logrus.FieldLogger
}

// NewADB creates an ADB client using the adb binary at path
func NewADB(path string, run CommandRunner, log logrus.FieldLogger) *ADB {
	if run == nil {
		run = ExecRunner
	}
	return &ADB{path: path, run: run, log: log}
}

// ListDevices returns the devices adb reports as reachable, in adb's order
func (a *ADB) ListDevices(ctx context.Context) ([]domain.Device, error) {
	all, err := a.AllDevices(ctx)
	if err != nil {
		return nil, err
	}

	var ready []domain.Device
	for _, d := range all {
		if d.Status == StatusDevice {
			ready = append(ready, d)
			continue
		}
		a.log.WithFields(logrus.Fields{"device_id": d.ID, "status": d.Status}).Debug("skipping unreachable device")
	}
	return ready, nil
}

// AllDevices returns every device line of `adb devices -l`, whatever its state
func (a *ADB) AllDevices(ctx context.Context) ([]domain.Device, error) {
	out, err := a.run(ctx, a.path, "devices", "-l")
	if err != nil {
		return nil, fmt.Errorf("adb devices: %w", err)
	}
	return ParseDevices(out), nil
}

// Controller returns an input controller for one device serial
func (a *ADB) Controller(serial string) *Controller {
	return &Controller{adb: a, serial: serial}
}

// ParseDevices parses the output of `adb devices -l`
func ParseDevices(out []byte) []domain.Device {
	var devices []domain.Device

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		d := domain.Device{ID: fields[0], Status: fields[1]}
		for _, kv := range fields[2:] {
			key, value, ok := strings.Cut(kv, ":")
			if !ok {
				continue
			}
			switch key {
			case "model":
				d.Model = value
			case "product":
				d.Product = value
			}
		}
		devices = append(devices, d)
	}
	return devices
}
