package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"bootbench/internal/polling"

	"github.com/kballard/go-shellquote"
)

const (
	defaultADBPath          = "adb"
	defaultBootPollInterval = time.Second
	rootOnlineTimeout       = time.Minute
)

// execCommand allows mocking in tests.
var execCommand = exec.CommandContext

// ADB drives a device through the adb binary.
type ADB struct {
	path             string
	serial           string
	clock            polling.Clock
	logger           *slog.Logger
	bootPollInterval time.Duration
}

// Option configures an ADB device.
type Option func(*ADB)

// WithADBPath sets the adb binary used. The default is "adb" from PATH.
func WithADBPath(path string) Option {
	return func(d *ADB) {
		if path != "" {
			d.path = path
		}
	}
}

// WithClock sets the clock used by boot-completion polling.
func WithClock(c polling.Clock) Option {
	return func(d *ADB) { d.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *ADB) { d.logger = l }
}

// WithBootPollInterval sets how often sys.boot_completed is read while waiting.
func WithBootPollInterval(interval time.Duration) Option {
	return func(d *ADB) { d.bootPollInterval = interval }
}

// NewADB returns a Device for serial. An empty serial lets adb pick the only attached device.
func NewADB(serial string, opts ...Option) *ADB {
	d := &ADB{
		path:             defaultADBPath,
		serial:           serial,
		clock:            polling.RealClock{},
		logger:           slog.Default(),
		bootPollInterval: defaultBootPollInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Serial returns the device serial, or "default" when none was given.
func (d *ADB) Serial() string {
	if d.serial == "" {
		return "default"
	}
	return d.serial
}

func (d *ADB) run(ctx context.Context, args ...string) CommandResult {
	full := args
	if d.serial != "" {
		full = append([]string{"-s", d.serial}, args...)
	}

	cmd := execCommand(ctx, d.path, full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
			res.Err = err
		}
	}
	if res.Err == nil && ctx.Err() != nil {
		res.Err = ctx.Err()
	}

	d.logger.Debug("adb", "serial", d.Serial(), "args", shellquote.Join(args...), "exit", res.ExitCode)
	return res
}

// ShellForResult runs argv through "adb shell". It never returns an error value.
func (d *ADB) ShellForResult(ctx context.Context, argv ...string) CommandResult {
	return d.run(ctx, "shell", shellquote.Join(argv...))
}

// Shell runs argv through "adb shell" and fails on a non-zero exit status.
func (d *ADB) Shell(ctx context.Context, argv ...string) (string, error) {
	res := d.ShellForResult(ctx, argv...)
	if !res.Success() {
		return "", &CommandError{Command: shellquote.Join(argv...), Result: res}
	}
	return strings.TrimSpace(res.Stdout), nil
}

// TryShell runs argv and logs instead of failing.
func (d *ADB) TryShell(ctx context.Context, argv ...string) (string, bool) {
	out, err := d.Shell(ctx, argv...)
	if err != nil {
		d.logger.Debug("ignoring failed command", "serial", d.Serial(), "error", err)
		return "", false
	}
	return out, true
}

func (d *ADB) GetProperty(ctx context.Context, name string) (string, error) {
	return d.Shell(ctx, "getprop", name)
}

func (d *ADB) SetProperty(ctx context.Context, name, value string) error {
	if _, err := d.Shell(ctx, "setprop", name, value); err != nil {
		return fmt.Errorf("set property %s: %w", name, err)
	}
	return nil
}

// Reboot sends "adb reboot"; the device goes offline shortly after it returns.
func (d *ADB) Reboot(ctx context.Context) error {
	if res := d.run(ctx, "reboot"); !res.Success() {
		return &CommandError{Command: "reboot", Result: res}
	}
	return nil
}

// WaitForDeviceOnline blocks in "adb wait-for-device" for up to timeout.
func (d *ADB) WaitForDeviceOnline(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := d.run(waitCtx, "wait-for-device")
	if errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %s not online after %v", ErrBootTimeout, d.Serial(), timeout)
	}
	if !res.Success() {
		return &CommandError{Command: "wait-for-device", Result: res}
	}
	return nil
}

// WaitForBootComplete polls sys.boot_completed until it reads 1.
func (d *ADB) WaitForBootComplete(ctx context.Context, timeout time.Duration) error {
	err := polling.Poll(ctx, "wait for boot complete", polling.Options{
		Timeout:    timeout,
		Interval:   d.bootPollInterval,
		Clock:      d.clock,
		Logger:     d.logger.With("serial", d.Serial()),
		RetryLevel: slog.LevelDebug,
	}, func(ctx context.Context) error {
		v, err := d.GetProperty(ctx, PropBootCompleted)
		if err != nil {
			return err
		}
		if v != "1" {
			return fmt.Errorf("%s is %q", PropBootCompleted, v)
		}
		return nil
	})

	var te *polling.TimeoutError
	if errors.As(err, &te) {
		return fmt.Errorf("%w: %s did not complete boot: %v", ErrBootTimeout, d.Serial(), err)
	}
	return err
}

// EnableRoot runs "adb root" and waits for the restarted daemon.
func (d *ADB) EnableRoot(ctx context.Context) error {
	if res := d.run(ctx, "root"); !res.Success() {
		return &CommandError{Command: "root", Result: res}
	}
	return d.WaitForDeviceOnline(ctx, rootOnlineTimeout)
}

func (d *ADB) Capable(ctx context.Context) (bool, error) {
	vm, err := d.GetProperty(ctx, PropVMSupported)
	if err != nil {
		return false, err
	}
	protectedVM, err := d.GetProperty(ctx, PropProtectedVMSupported)
	if err != nil {
		return false, err
	}
	return capableFromProps(vm, protectedVM), nil
}
