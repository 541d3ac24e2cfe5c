package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/milk9111/fsmkit/config"
	"github.com/milk9111/fsmkit/driver"
	"github.com/milk9111/fsmkit/fsmdef"
	"github.com/milk9111/fsmkit/machines"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	dir := flag.String("dir", cfg.MachinesDir, "override directory for machine definitions")
	simulate := flag.Int("simulate", 0, "frames to run each machine headless (0 only validates)")
	fps := flag.Float64("fps", 60, "frame rate used by -simulate")
	only := flag.String("only", "", "comma separated definition names to check (default all)")
	flag.Parse()

	logger := cfg.Logger(os.Stderr)
	lib := machines.NewLibrary(*dir)

	names, err := lib.Names()
	if err != nil {
		log.Fatal(err)
	}
	if *only != "" {
		names = strings.Split(*only, ",")
	}

	failed := 0
	for _, name := range names {
		if err := check(lib, cfg, logger, strings.TrimSpace(name), *simulate, *fps); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", name, err)
			failed++
			continue
		}
		fmt.Printf("ok   %s\n", name)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func check(lib *machines.Library, cfg config.Config, logger *slog.Logger, name string, frames int, fps float64) error {
	if frames > 0 && fps <= 0 {
		return fmt.Errorf("fps must be positive")
	}
	a, err := lib.Actor(name,
		fsmdef.WithLogger(logger),
		fsmdef.WithMaxChainedTransitions(cfg.MaxChainedTransitions),
	)
	if err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		a.Teardown()
		return err
	}
	if frames <= 0 {
		a.Teardown()
		return nil
	}

	transitions := 0
	a.Machine().OnTransition(func(from, to string) {
		transitions++
		logger.Info("transition", "machine", name, "from", from, "to", to)
	})

	loop := driver.New(
		driver.WithFixedStep(cfg.FixedStep),
		driver.WithMaxFixedSteps(cfg.MaxFixedSteps),
		driver.WithLogger(logger),
	)
	loop.Add(name, a)
	for i := 0; i < frames; i++ {
		loop.Frame(1 / fps)
	}
	final := a.State()
	loop.Teardown()

	fmt.Printf("     %s: %d frames, %d transitions, final state %q\n", name, frames, transitions, final)
	return nil
}
