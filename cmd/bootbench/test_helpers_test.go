package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"bootbench/internal/benchmark"
	"bootbench/internal/config"
	"bootbench/internal/db"
	"bootbench/internal/device"
	"bootbench/internal/notify"
	"bootbench/internal/polling"
	"bootbench/internal/stats"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const simBoot = 37 * time.Second

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	resetFlags(root)
	// Mock exit
	oldExit := exit
	exit = func(code int) {
		if code != 0 {
			panic(fmt.Sprintf("exit-%d", code))
		}
	}
	defer func() { exit = oldExit }()
	defer func() {
		if r := recover(); r != nil {
			if s, ok := r.(string); ok && strings.HasPrefix(s, "exit-") {
				// This is an expected exit, don't re-panic
				return
			}
			panic(r) // Re-panic actual panics
		}
	}()
	root.SetArgs(args)
	b := new(bytes.Buffer)
	root.SetOut(b)
	root.SetErr(b)
	// Mock Stdin to avoid hanging on interactive prompts
	root.SetIn(bytes.NewBufferString(""))
	err := root.Execute()
	return b.String(), err
}

// resetFlags resets all flags to their default values.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// testEnv swaps the command factories for a simulated device on a fake
// clock, a file store under a temp dir and a recording notifier.
type testEnv struct {
	sim       *device.Sim
	clock     *polling.FakeClock
	storePath string
	notifier  *recordingNotifier
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Chdir(t.TempDir())

	env := &testEnv{
		clock:     polling.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		storePath: filepath.Join(t.TempDir(), "history.json"),
		notifier:  &recordingNotifier{},
	}
	env.sim = device.NewSim(simSerial, env.clock, simBoot)

	oldClock, oldDevice, oldStore, oldNotifier, oldAsk := newClockFunc, newDeviceFunc, newStoreFunc, newNotifierFunc, askOneFunc
	t.Cleanup(func() {
		newClockFunc, newDeviceFunc, newStoreFunc, newNotifierFunc, askOneFunc = oldClock, oldDevice, oldStore, oldNotifier, oldAsk
	})

	newClockFunc = func() polling.Clock { return env.clock }
	newDeviceFunc = func(cfg config.Config, clock polling.Clock, logger *slog.Logger) device.Device { return env.sim }
	newStoreFunc = func(cfg db.StoreConfig) (db.Store, error) { return db.NewFileStore(env.storePath) }
	newNotifierFunc = func(logger *slog.Logger) notify.Notifier { return env.notifier }
	askOneFunc = func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
		t.Fatalf("unexpected prompt: %#v", p)
		return nil
	}
	return env
}

// answer makes every confirmation prompt return yes.
func (e *testEnv) answer(yes bool) *int {
	asked := new(int)
	askOneFunc = func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
		if _, ok := p.(*survey.Confirm); ok {
			*asked++
			*(response.(*bool)) = yes
		}
		return nil
	}
	return asked
}

func (e *testEnv) store(t *testing.T, runs ...*benchmark.Run) {
	t.Helper()
	s, err := db.NewFileStore(e.storePath)
	require.NoError(t, err)
	for _, r := range runs {
		require.NoError(t, s.Save(context.Background(), r))
	}
}

func (e *testEnv) stored(t *testing.T) []benchmark.Run {
	t.Helper()
	s, err := db.NewFileStore(e.storePath)
	require.NoError(t, err)
	runs, err := s.Latest(context.Background(), 100)
	require.NoError(t, err)
	return runs
}

func storedRun(id string, at time.Time, avg float64) *benchmark.Run {
	return &benchmark.Run{
		ID:            id,
		Timestamp:     at,
		Device:        simSerial,
		Rounds:        2,
		WithCompOS:    []float64{avg, avg},
		WithoutCompOS: []float64{avg, avg},
		Summaries: map[benchmark.Condition]stats.Summary{
			benchmark.CompOS:   {N: 2, Average: avg, Min: avg, Max: avg},
			benchmark.Baseline: {N: 2, Average: avg, Min: avg, Max: avg},
		},
	}
}

type notification struct {
	event   string
	message string
	ctxErr  error
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(ctx context.Context, eventType, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{event: eventType, message: message, ctxErr: ctx.Err()})
	return nil
}

func (n *recordingNotifier) events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		out = append(out, s.event)
	}
	return out
}

// interruptingDevice cancels the run when the device is first rebooted.
type interruptingDevice struct {
	*device.Sim
	cancel context.CancelFunc
}

func (d *interruptingDevice) Reboot(ctx context.Context) error {
	d.cancel()
	return d.Sim.Reboot(ctx)
}
