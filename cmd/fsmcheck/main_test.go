package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/fsmkit/config"
	"github.com/milk9111/fsmkit/machines"
)

func TestCheck(t *testing.T) {
	cfg := config.Config{FixedStep: 20 * time.Millisecond, MaxFixedSteps: 5, MaxChainedTransitions: 32}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lib := machines.NewLibrary("")

	cases := []struct {
		name    string
		machine string
		frames  int
		fps     float64
		wantErr string
	}{
		{name: "validate_only", machine: "sentry"},
		{name: "simulate", machine: "walker", frames: 120, fps: 60},
		{name: "zero_fps", machine: "sentry", frames: 10, fps: 0, wantErr: "fps must be positive"},
		{name: "unknown_machine", machine: "nope", wantErr: "machines:"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := check(lib, cfg, logger, c.machine, c.frames, c.fps)
			if c.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.wantErr)
		})
	}
}
