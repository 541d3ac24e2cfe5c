package fsm

// State is one behavioral mode hosted by a Machine. Implementations embed
// Base, which supplies no-op hooks and the write-once id/owner binding.
type State[ID comparable] interface {
	OnBegin()
	Update()
	FixedUpdate()
	OnEnd()
	OnDestroy()
	Kind() string
	base() *Base[ID]
}

// Base is embedded by every State. Its id and owner are assigned by
// Machine.Register and never change afterwards.
type Base[ID comparable] struct {
	id    ID
	owner *Machine[ID]
}

func (b *Base[ID]) base() *Base[ID] { return b }

// bind assigns id and owner once.
func (b *Base[ID]) bind(id ID, owner *Machine[ID]) error {
	if b.owner != nil {
		return ErrWriteOnceViolation
	}
	b.id = id
	b.owner = owner
	return nil
}

// ID returns the id the state was registered under, or the zero value
// before registration.
func (b *Base[ID]) ID() ID { return b.id }

// Owner returns the machine the state is registered with, if any.
func (b *Base[ID]) Owner() *Machine[ID] { return b.owner }

// Kind returns the variant tag used by Machine.LookupKind. States override
// it to opt in.
func (b *Base[ID]) Kind() string { return "" }

// ChangeState asks the owning machine to transition to id. It fails with
// ErrUnbound before the state is registered.
func (b *Base[ID]) ChangeState(id ID) error {
	if b.owner == nil {
		return ErrUnbound
	}
	return b.owner.ChangeState(id)
}

func (b *Base[ID]) OnBegin()     {}
func (b *Base[ID]) Update()      {}
func (b *Base[ID]) FixedUpdate() {}
func (b *Base[ID]) OnEnd()       {}
func (b *Base[ID]) OnDestroy()   {}
