// Package device controls an Android device under test: shell commands,
// properties, reboots and boot-completion waits.
package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBootTimeout is wrapped by waits that did not observe the expected state in time.
var ErrBootTimeout = errors.New("timed out waiting for device")

// Device is the control surface the boot benchmark drives.
type Device interface {
	// Serial identifies the device.
	Serial() string
	// Shell runs argv on the device and returns its trimmed stdout.
	// A transport failure or non-zero exit status is an error.
	Shell(ctx context.Context, argv ...string) (string, error)
	// ShellForResult runs argv and reports the outcome without failing.
	ShellForResult(ctx context.Context, argv ...string) CommandResult
	// TryShell runs argv and swallows any failure.
	TryShell(ctx context.Context, argv ...string) (string, bool)
	GetProperty(ctx context.Context, name string) (string, error)
	SetProperty(ctx context.Context, name, value string) error
	// Reboot issues a reboot and returns without waiting for it.
	Reboot(ctx context.Context) error
	WaitForDeviceOnline(ctx context.Context, timeout time.Duration) error
	WaitForBootComplete(ctx context.Context, timeout time.Duration) error
	// EnableRoot restarts the device daemon with elevated privileges.
	EnableRoot(ctx context.Context) error
	// Capable reports whether the device supports running a virtual machine.
	Capable(ctx context.Context) (bool, error)
}

// Properties consulted by Capable.
const (
	PropVMSupported          = "ro.boot.hypervisor.vm.supported"
	PropProtectedVMSupported = "ro.boot.hypervisor.protected_vm.supported"
	PropBootCompleted        = "sys.boot_completed"
)

// CommandResult is the outcome of a shell command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is set when the command could not be run or its status is unknown.
	Err error
}

// Success reports a zero exit status with no transport error.
func (r CommandResult) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

func (r CommandResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "exit=%d", r.ExitCode)
	if out := strings.TrimSpace(r.Stdout); out != "" {
		fmt.Fprintf(&b, " stdout=%q", out)
	}
	if errOut := strings.TrimSpace(r.Stderr); errOut != "" {
		fmt.Fprintf(&b, " stderr=%q", errOut)
	}
	if r.Err != nil {
		fmt.Fprintf(&b, " err=%v", r.Err)
	}
	return b.String()
}

// CommandError reports a failed Shell call.
type CommandError struct {
	Command string
	Result  CommandResult
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed: %s", e.Command, e.Result)
}

func (e *CommandError) Unwrap() error { return e.Result.Err }

// capableFromProps applies the virtualization capability rule to property values.
func capableFromProps(vm, protectedVM string) bool {
	return strings.TrimSpace(vm) == "1" || strings.TrimSpace(protectedVM) == "1"
}
