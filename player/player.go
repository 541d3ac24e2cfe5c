package player

import (
	"log/slog"

	"github.com/milk9111/fsmkit/fsm"
)

type StateID int

const (
	StateNone StateID = iota
	StateIdle
	StateRun
	StateJump
	StateFall
)

func (s StateID) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRun:
		return "run"
	case StateJump:
		return "jump"
	case StateFall:
		return "fall"
	default:
		return "none"
	}
}

// KindAirborne tags every state where the player is off the ground.
const KindAirborne = "airborne"

// Body is the physics collaborator the states drive.
type Body interface {
	Velocity() (x, y float64)
	SetVelocity(x, y float64)
	Grounded() bool
}

// Input is the per-frame control snapshot, filled by the caller.
type Input struct {
	MoveX       float64
	JumpPressed bool
}

// Tuning holds movement constants, loadable from machines/tuning/player.yaml.
type Tuning struct {
	MoveSpeed float64 `yaml:"move_speed"`
	JumpSpeed float64 `yaml:"jump_speed"`
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
}

// Player owns the movement machine. Screen space is y-down, so jumping sets a
// negative y velocity.
type Player struct {
	Input  Input
	Tuning Tuning

	body       Body
	machine    *fsm.Machine[StateID]
	animation  string
	facingLeft bool
}

// New registers the movement states and enters Idle.
func New(body Body, tuning Tuning, logger *slog.Logger) (*Player, error) {
	p := &Player{
		Tuning: tuning,
		body:   body,
	}
	p.machine = fsm.New[StateID](fsm.WithName("player"), fsm.WithLogger(logger))

	states := []struct {
		id    StateID
		state fsm.State[StateID]
	}{
		{StateIdle, &idleState{p: p}},
		{StateRun, &runState{p: p}},
		{StateJump, &jumpState{p: p}},
		{StateFall, &fallState{p: p}},
	}
	for _, s := range states {
		if err := p.machine.Register(s.id, s.state); err != nil {
			return nil, err
		}
	}
	if err := p.machine.ChangeState(StateIdle); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Player) Machine() *fsm.Machine[StateID] { return p.machine }

func (p *Player) State() StateID { return p.machine.CurrentID() }

// Animation returns the animation the active state asked for.
func (p *Player) Animation() string { return p.animation }

func (p *Player) FacingLeft() bool { return p.facingLeft }

// Airborne reports whether the active state is tagged KindAirborne.
func (p *Player) Airborne() bool {
	cur := p.machine.Current()
	return cur != nil && cur.Kind() == KindAirborne
}

func (p *Player) Tick(float64)      { p.machine.Tick() }
func (p *Player) FixedTick(float64) { p.machine.FixedTick() }
func (p *Player) Teardown()         { p.machine.Teardown() }

func (p *Player) face() {
	if p.Input.MoveX > 0 {
		p.facingLeft = false
	} else if p.Input.MoveX < 0 {
		p.facingLeft = true
	}
}

func (p *Player) steer() {
	_, y := p.body.Velocity()
	p.body.SetVelocity(p.Input.MoveX*p.Tuning.MoveSpeed, y)
}
