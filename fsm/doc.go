// Package fsm is a small generic finite-state machine for frame-driven
// entities.
//
// A Machine owns a fixed set of states registered up front. The owner picks
// the initial state with ChangeState and then calls Tick once per frame and
// FixedTick once per fixed timestep. States embed Base, override the hooks
// they need and request transitions through their owner:
//
//	type idle struct{ fsm.Base[StateID] }
//
//	func (s *idle) Update() {
//		if jumpPressed() {
//			s.ChangeState(Jump)
//		}
//	}
//
// The zero value of the id type means "no state". Errors are logged to the
// machine's slog.Logger and returned; none of them leave the machine in a
// partially transitioned state.
package fsm
