package player

import "github.com/milk9111/fsmkit/fsm"

type idleState struct {
	fsm.Base[StateID]
	p *Player
}

type runState struct {
	fsm.Base[StateID]
	p *Player
}

type jumpState struct {
	fsm.Base[StateID]
	p *Player
}

type fallState struct {
	fsm.Base[StateID]
	p *Player
}

func (s *idleState) OnBegin() { s.p.animation = "idle" }
func (s *idleState) Update() {
	p := s.p
	switch {
	case !p.body.Grounded():
		s.ChangeState(StateFall)
	case p.Input.JumpPressed:
		s.ChangeState(StateJump)
	case p.Input.MoveX != 0:
		s.ChangeState(StateRun)
	}
}
func (s *idleState) FixedUpdate() {
	_, y := s.p.body.Velocity()
	s.p.body.SetVelocity(0, y)
}

func (s *runState) OnBegin() { s.p.animation = "run" }
func (s *runState) Update() {
	p := s.p
	switch {
	case !p.body.Grounded():
		s.ChangeState(StateFall)
	case p.Input.JumpPressed:
		s.ChangeState(StateJump)
	case p.Input.MoveX == 0:
		s.ChangeState(StateIdle)
	default:
		p.face()
	}
}
func (s *runState) FixedUpdate() { s.p.steer() }

func (s *jumpState) Kind() string { return KindAirborne }
func (s *jumpState) OnBegin() {
	s.p.animation = "jump"
	s.p.face()
	x, _ := s.p.body.Velocity()
	s.p.body.SetVelocity(x, -s.p.Tuning.JumpSpeed)
}
func (s *jumpState) Update() {
	s.p.face()
	if _, y := s.p.body.Velocity(); y >= 0 {
		s.ChangeState(StateFall)
	}
}
func (s *jumpState) FixedUpdate() { s.p.steer() }

func (s *fallState) Kind() string { return KindAirborne }
func (s *fallState) OnBegin()     { s.p.animation = "fall" }
func (s *fallState) Update() {
	p := s.p
	p.face()
	if !p.body.Grounded() {
		return
	}
	if p.Input.MoveX == 0 {
		s.ChangeState(StateIdle)
	} else {
		s.ChangeState(StateRun)
	}
}
func (s *fallState) FixedUpdate() { s.p.steer() }
