package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/fsmkit/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	dir := flag.String("dir", cfg.MachinesDir, "override directory for machine definitions")
	watch := flag.Bool("watch", cfg.Watch, "hot reload definitions from -dir")
	flag.Parse()
	cfg.MachinesDir = *dir
	cfg.Watch = *watch

	logger := cfg.Logger(os.Stderr)

	game, err := NewGame(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("fsmplay")

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
