package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"golang.org/x/image/colornames"

	"github.com/milk9111/fsmkit/config"
	"github.com/milk9111/fsmkit/driver"
	"github.com/milk9111/fsmkit/fsmdef"
	"github.com/milk9111/fsmkit/machines"
	"github.com/milk9111/fsmkit/player"
)

const (
	baseWidth  = 640
	baseHeight = 360
	groundY    = 300
	gravity    = 900
)

type actorSlot struct {
	id    uuid.UUID
	actor *fsmdef.Actor
}

type Game struct {
	cfg    config.Config
	logger *slog.Logger

	loop    *driver.Loop
	lib     *machines.Library
	watcher *machines.Watcher

	space  *cp.Space
	body   *player.CPBody
	player *player.Player

	actors map[string]*actorSlot
	names  []string
}

func NewGame(cfg config.Config, logger *slog.Logger) (*Game, error) {
	g := &Game{
		cfg:    cfg,
		logger: logger,
		loop: driver.New(
			driver.WithFixedStep(cfg.FixedStep),
			driver.WithMaxFixedSteps(cfg.MaxFixedSteps),
			driver.WithLogger(logger),
		),
		lib:    machines.NewLibrary(cfg.MachinesDir),
		actors: map[string]*actorSlot{},
	}

	tuning, err := machines.LoadSpec[player.Tuning](g.lib, "tuning/player.yaml")
	if err != nil {
		return nil, err
	}

	g.space = cp.NewSpace()
	g.space.SetGravity(cp.Vector{X: 0, Y: gravity})
	player.AddGround(g.space, 0, groundY, baseWidth, groundY, 1)
	player.AddGround(g.space, 0, 0, 0, groundY, 1)
	player.AddGround(g.space, baseWidth, 0, baseWidth, groundY, 1)
	g.body = player.NewCPBody(g.space, baseWidth/2, groundY-tuning.Height, tuning.Width, tuning.Height)

	g.player, err = player.New(g.body, tuning, logger)
	if err != nil {
		return nil, err
	}
	g.loop.Add("player", g.player)
	g.loop.Add("physics", driver.Funcs{OnFixedTick: g.body.Step})

	names, err := g.lib.Names()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if err := g.spawn(name); err != nil {
			logger.Warn("skipping machine", "name", name, "error", err)
		}
	}

	if cfg.Watch {
		w, err := g.lib.Watch()
		if err != nil {
			logger.Warn("hot reload disabled", "dir", cfg.MachinesDir, "error", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func (g *Game) newActor(name string) (*fsmdef.Actor, error) {
	a, err := g.lib.Actor(name,
		fsmdef.WithLogger(g.logger),
		fsmdef.WithMaxChainedTransitions(g.cfg.MaxChainedTransitions),
	)
	if err != nil {
		return nil, err
	}
	if err := a.Start(); err != nil {
		a.Teardown()
		return nil, err
	}
	return a, nil
}

// spawn starts name, replacing a running actor of the same name in place.
func (g *Game) spawn(name string) error {
	a, err := g.newActor(name)
	if err != nil {
		return err
	}
	if slot, ok := g.actors[name]; ok {
		g.loop.Replace(slot.id, a)
		slot.actor = a
		return nil
	}
	g.actors[name] = &actorSlot{id: g.loop.Add(name, a), actor: a}
	g.names = append(g.names, name)
	return nil
}

func (g *Game) reload() {
	if g.watcher == nil {
		return
	}
	changed := map[string]bool{}
	for _, c := range g.watcher.Drain() {
		if !c.Script() {
			changed[c.Definition] = true
			continue
		}
		// any definition could use the script
		for _, name := range g.names {
			changed[name] = true
		}
	}
	for name := range changed {
		if err := g.spawn(name); err != nil {
			g.logger.Warn("reload failed", "name", name, "error", err)
			continue
		}
		g.logger.Info("reloaded machine", "name", name)
	}
}

func (g *Game) Update() error {
	g.reload()
	g.player.Input = readInput()

	// number keys send "spotted"/"reset" to every actor for poking at them
	if inpututil.IsKeyJustPressed(ebiten.Key1) {
		g.broadcast("spotted")
	}
	if inpututil.IsKeyJustPressed(ebiten.Key2) {
		g.broadcast("reset")
	}

	g.loop.Frame(1 / float64(ebiten.TPS()))
	return nil
}

func (g *Game) broadcast(event string) {
	for _, slot := range g.actors {
		slot.actor.Send(event)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)
	vector.StrokeLine(screen, 0, groundY, baseWidth, groundY, 2, colornames.Lightgrey, false)

	x, y := g.body.Position()
	w, h := g.player.Tuning.Width, g.player.Tuning.Height
	c := colornames.Orange
	if g.player.Airborne() {
		c = colornames.Crimson
	}
	vector.FillRect(screen, float32(x-w/2), float32(y-h/2), float32(w), float32(h), c, false)

	var b strings.Builder
	frames, fixed := g.loop.Frames()
	fmt.Fprintf(&b, "FPS: %.1f  frames: %d  fixed: %d\n", ebiten.ActualFPS(), frames, fixed)
	fmt.Fprintf(&b, "player: %s (prev %s)\n", g.player.State(), g.player.Machine().PreviousID())
	for _, name := range g.names {
		a := g.actors[name].actor
		fmt.Fprintf(&b, "%s: %s\n", name, a.State())
	}
	b.WriteString("A/D move, space jump, 1 spotted, 2 reset")
	ebitenutil.DebugPrint(screen, b.String())
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return baseWidth, baseHeight
}

// Close tears everything down and stops the watcher.
func (g *Game) Close() {
	g.loop.Teardown()
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}
