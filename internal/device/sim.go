package device

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"bootbench/internal/polling"

	"github.com/kballard/go-shellquote"
)

// DefaultSimPackages is the apex package listing a simulated device reports.
const DefaultSimPackages = `package:/system/apex/com.android.adbd.capex=com.android.adbd
package:/system/apex/com.android.art.capex=com.android.art
package:/system/apex/com.android.compos.capex=com.android.compos`

// Sim is a simulated device. Boots take BootDelay on its clock; with a
// FakeClock the benchmark runs instantly and deterministically.
//
// Fields may be changed between calls to script the device.
type Sim struct {
	mu sync.Mutex

	clock  polling.Clock
	serial string

	BootDelay time.Duration
	// CompileDelay is spent inside each staged compile call.
	CompileDelay time.Duration
	// Packages is the output of "pm list packages -f --apex-only".
	Packages string
	// CompileOutput is printed by a successful staged compile.
	CompileOutput string
	// InstallFailures and CompileFailures fail that many calls before succeeding.
	InstallFailures int
	CompileFailures int
	Capability      bool
	// ComposMissing removes the CompOS command from the device.
	ComposMissing bool

	props    map[string]string
	commands []string
	reboots  int
	booted   bool
	root     bool
}

// NewSim returns a capable simulated device with a working ART module.
func NewSim(serial string, clock polling.Clock, bootDelay time.Duration) *Sim {
	if clock == nil {
		clock = polling.RealClock{}
	}
	return &Sim{
		clock:         clock,
		serial:        serial,
		BootDelay:     bootDelay,
		Packages:      DefaultSimPackages,
		CompileOutput: "All Ok",
		Capability:    true,
		props: map[string]string{
			PropBootCompleted: "1",
		},
		booted: true,
	}
}

func (s *Sim) Serial() string { return s.serial }

// Commands returns every shell command received, in order.
func (s *Sim) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.commands))
	copy(out, s.commands)
	return out
}

// Reboots returns the number of reboots issued.
func (s *Sim) Reboots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reboots
}

// IsRoot reports whether EnableRoot ran since the last reboot.
func (s *Sim) IsRoot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Property returns a property value as last set.
func (s *Sim) Property(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.props[name]
}

func (s *Sim) ShellForResult(ctx context.Context, argv ...string) CommandResult {
	if err := ctx.Err(); err != nil {
		return CommandResult{ExitCode: -1, Err: err}
	}
	line := shellquote.Join(argv...)

	s.mu.Lock()
	s.commands = append(s.commands, line)
	if !s.booted {
		s.mu.Unlock()
		return CommandResult{ExitCode: 1, Stderr: "error: device offline", Err: fmt.Errorf("device %s offline", s.serial)}
	}
	res, delay := s.dispatch(argv)
	s.mu.Unlock()

	if delay > 0 {
		if err := s.clock.Sleep(ctx, delay); err != nil {
			return CommandResult{ExitCode: -1, Err: err}
		}
	}
	return res
}

// dispatch must be called with mu held.
func (s *Sim) dispatch(argv []string) (CommandResult, time.Duration) {
	if len(argv) == 0 {
		return CommandResult{}, 0
	}
	switch {
	case len(argv) == 2 && argv[0] == "getprop":
		return CommandResult{Stdout: s.props[argv[1]] + "\n"}, 0
	case len(argv) == 3 && argv[0] == "setprop":
		s.props[argv[1]] = argv[2]
		return CommandResult{}, 0
	case strings.Join(argv, " ") == "pm list packages -f --apex-only":
		return CommandResult{Stdout: s.Packages + "\n"}, 0
	case len(argv) == 4 && argv[0] == "pm" && argv[1] == "install" && argv[2] == "--apex":
		if s.InstallFailures > 0 {
			s.InstallFailures--
			return CommandResult{ExitCode: 1, Stderr: "Failure [INSTALL_FAILED_INTERNAL_ERROR]"}, 0
		}
		return CommandResult{Stdout: "Success\n"}, 0
	case s.ComposMissing && (strings.HasSuffix(argv[0], "composd_cmd") || strings.HasSuffix(argv[len(argv)-1], "composd_cmd")):
		return CommandResult{ExitCode: 1}, 0
	case len(argv) == 2 && argv[1] == "staged-apex-compile":
		if s.CompileFailures > 0 {
			s.CompileFailures--
			return CommandResult{Stdout: "Error: No staged APEXes\n"}, s.CompileDelay
		}
		return CommandResult{Stdout: s.CompileOutput + "\n"}, s.CompileDelay
	case argv[0] == "rm" || argv[0] == "ls" || argv[0] == "test":
		return CommandResult{}, 0
	}
	return CommandResult{ExitCode: 127, Stderr: "/system/bin/sh: " + argv[0] + ": inaccessible or not found"}, 0
}

func (s *Sim) Shell(ctx context.Context, argv ...string) (string, error) {
	res := s.ShellForResult(ctx, argv...)
	if !res.Success() {
		return "", &CommandError{Command: shellquote.Join(argv...), Result: res}
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (s *Sim) TryShell(ctx context.Context, argv ...string) (string, bool) {
	out, err := s.Shell(ctx, argv...)
	return out, err == nil
}

func (s *Sim) GetProperty(ctx context.Context, name string) (string, error) {
	return s.Shell(ctx, "getprop", name)
}

func (s *Sim) SetProperty(ctx context.Context, name, value string) error {
	_, err := s.Shell(ctx, "setprop", name, value)
	return err
}

func (s *Sim) Reboot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reboots++
	s.booted = false
	s.root = false
	s.props[PropBootCompleted] = "0"
	return nil
}

func (s *Sim) WaitForDeviceOnline(ctx context.Context, timeout time.Duration) error {
	return ctx.Err()
}

// WaitForBootComplete spends BootDelay on the clock, or fails after timeout
// when BootDelay exceeds it.
func (s *Sim) WaitForBootComplete(ctx context.Context, timeout time.Duration) error {
	s.mu.Lock()
	delay := s.BootDelay
	s.mu.Unlock()

	if delay > timeout {
		if err := s.clock.Sleep(ctx, timeout); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s did not complete boot in %v", ErrBootTimeout, s.serial, timeout)
	}
	if err := s.clock.Sleep(ctx, delay); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.booted = true
	s.props[PropBootCompleted] = "1"
	return nil
}

func (s *Sim) EnableRoot(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = true
	return nil
}

func (s *Sim) Capable(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Capability, nil
}
