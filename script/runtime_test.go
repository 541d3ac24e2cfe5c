package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	transitions []string
	events      []string
	vars        map[string]float64
	logs        []string
	dt          float64
}

func newFakeHost() *fakeHost {
	return &fakeHost{vars: map[string]float64{}, dt: 0.5}
}

func (h *fakeHost) Transition(to string)              { h.transitions = append(h.transitions, to) }
func (h *fakeHost) Emit(event string)                 { h.events = append(h.events, event) }
func (h *fakeHost) Var(name string) float64           { return h.vars[name] }
func (h *fakeHost) SetVar(name string, value float64) { h.vars[name] = value }
func (h *fakeHost) Delta() float64                    { return h.dt }
func (h *fakeHost) Log(msg string)                    { h.logs = append(h.logs, msg) }

const counterScript = `
initial_state := "counting"

on_begin := func(engine, state, current) {
	state.ticks = 0
	engine.log("begin", current)
}

update := func(engine, state, current) {
	state.ticks = state.ticks + 1
	engine.set_var("elapsed", engine.get_var("elapsed") + engine.dt())
	if state.ticks >= 3 {
		engine.emit("done")
		engine.transition("idle")
	}
}
`

func TestCompileResolvesHooks(t *testing.T) {
	rt, err := Compile("counter", []byte(counterScript))
	require.NoError(t, err)

	assert.Equal(t, "counter", rt.Name())
	assert.Equal(t, "counting", rt.Initial())
	assert.True(t, rt.Has(PhaseBegin))
	assert.True(t, rt.Has(PhaseUpdate))
	assert.False(t, rt.Has(PhaseFixedUpdate))
	assert.False(t, rt.Has(PhaseEnd))
	assert.False(t, rt.Has(PhaseDestroy))
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"syntax", "on_begin := func(engine, state, current) {"},
		{"no_hooks", "x := 1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Compile(c.name, []byte(c.src))
			require.Error(t, err)
		})
	}

	_, err := Compile("empty", []byte("y := 2"))
	require.ErrorIs(t, err, ErrNoHooks)
}

func TestRunPhases(t *testing.T) {
	rt, err := Compile("counter", []byte(counterScript))
	require.NoError(t, err)
	host := newFakeHost()

	require.NoError(t, rt.Run(PhaseBegin, "counting", host))
	assert.Equal(t, []string{"begin counting"}, host.logs)

	for i := 0; i < 2; i++ {
		require.NoError(t, rt.Run(PhaseUpdate, "counting", host))
	}
	assert.Empty(t, host.transitions)

	require.NoError(t, rt.Run(PhaseUpdate, "counting", host))
	assert.Equal(t, []string{"idle"}, host.transitions)
	assert.Equal(t, []string{"done"}, host.events)
	assert.InDelta(t, 1.5, host.vars["elapsed"], 1e-9)

	// undefined phases are skipped
	require.NoError(t, rt.Run(PhaseEnd, "counting", host))
}

func TestCloneHasIndependentState(t *testing.T) {
	rt, err := Compile("counter", []byte(counterScript))
	require.NoError(t, err)
	other := rt.Clone()

	a, b := newFakeHost(), newFakeHost()
	require.NoError(t, rt.Run(PhaseBegin, "counting", a))
	require.NoError(t, other.Run(PhaseBegin, "counting", b))
	for i := 0; i < 3; i++ {
		require.NoError(t, rt.Run(PhaseUpdate, "counting", a))
	}
	require.NoError(t, other.Run(PhaseUpdate, "counting", b))

	assert.Equal(t, []string{"idle"}, a.transitions)
	assert.Empty(t, b.transitions)
	assert.Equal(t, "counting", other.Initial())
}

func TestRuntimeErrorIsWrapped(t *testing.T) {
	rt, err := Compile("broken", []byte(`
update := func(engine, state, current) {
	engine.missing()
}
`))
	require.NoError(t, err)

	err = rt.Run(PhaseUpdate, "any", newFakeHost())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script: broken update")
}
