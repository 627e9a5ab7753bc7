package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackPollAttempt(t *testing.T) {
	before := testutil.ToFloat64(pollAttempts.WithLabelValues("reinstall module", OutcomeRetry))
	TrackPollAttempt("reinstall module", OutcomeRetry)
	TrackPollAttempt("reinstall module", OutcomeRetry)

	assert.Equal(t, before+2, testutil.ToFloat64(pollAttempts.WithLabelValues("reinstall module", OutcomeRetry)))
}

func TestTrackTrialAndRun(t *testing.T) {
	beforeTrial := testutil.ToFloat64(trialsCompleted.WithLabelValues("with_compos"))
	beforeRun := testutil.ToFloat64(runsTotal.WithLabelValues("success"))

	TrackTrial("with_compos")
	TrackRun("success")

	assert.Equal(t, beforeTrial+1, testutil.ToFloat64(trialsCompleted.WithLabelValues("with_compos")))
	assert.Equal(t, beforeRun+1, testutil.ToFloat64(runsTotal.WithLabelValues("success")))
}

func TestObserveReboot(t *testing.T) {
	ObserveReboot("sim-0", "without_compos", 42*time.Second)

	count := testutil.CollectAndCount(rebootDuration, "bootbench_reboot_duration_seconds")
	assert.GreaterOrEqual(t, count, 1)
}

func TestRegistryGathers(t *testing.T) {
	TrackRun("skipped")
	families, err := Registry.Gather()
	assert.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["bootbench_runs_total"])
	assert.True(t, names["go_goroutines"])
}
