package player

import (
	"math"

	"github.com/jakecoffman/cp"
)

const (
	CollisionPlayer cp.CollisionType = iota + 1
	CollisionSolid
)

// CPBody is a Body backed by a chipmunk box with fixed rotation. Ground
// contact is sampled during each Step.
type CPBody struct {
	Body  *cp.Body
	Shape *cp.Shape

	space    *cp.Space
	grounded bool
}

// NewCPBody adds a w×h box centred on (x, y) to space. The space supports
// one CPBody: the player/solid collision handler is shared per space.
func NewCPBody(space *cp.Space, x, y, w, h float64) *CPBody {
	body := cp.NewBody(1, math.Inf(1))
	body.SetPosition(cp.Vector{X: x, Y: y})
	shape := cp.NewBox(body, w, h, 0)
	shape.SetFriction(0)
	shape.SetCollisionType(CollisionPlayer)
	space.AddBody(body)
	space.AddShape(shape)

	b := &CPBody{Body: body, Shape: shape, space: space}

	handler := space.NewCollisionHandler(CollisionPlayer, CollisionSolid)
	handler.UserData = b
	handler.PreSolveFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		cb, ok := userData.(*CPBody)
		if !ok || cb == nil {
			return true
		}
		shapeA, _ := arb.Shapes()
		n := arb.Normal()
		if shapeA != cb.Shape {
			n = n.Neg()
		}
		// screen-down coordinates: ground below pushes along +Y from the player
		if n.Y > 0.5 {
			cb.grounded = true
		}
		return true
	}
	return b
}

// AddGround adds a static solid segment from (x1, y1) to (x2, y2).
func AddGround(space *cp.Space, x1, y1, x2, y2, radius float64) *cp.Shape {
	shape := cp.NewSegment(space.StaticBody, cp.Vector{X: x1, Y: y1}, cp.Vector{X: x2, Y: y2}, radius)
	shape.SetFriction(1)
	shape.SetCollisionType(CollisionSolid)
	space.AddShape(shape)
	return shape
}

// Step advances the space by dt and refreshes Grounded.
func (b *CPBody) Step(dt float64) {
	b.grounded = false
	b.space.Step(dt)
}

func (b *CPBody) Velocity() (x, y float64) {
	v := b.Body.Velocity()
	return v.X, v.Y
}

func (b *CPBody) SetVelocity(x, y float64) {
	b.Body.SetVelocity(x, y)
}

func (b *CPBody) Grounded() bool { return b.grounded }

func (b *CPBody) Position() (x, y float64) {
	p := b.Body.Position()
	return p.X, p.Y
}
