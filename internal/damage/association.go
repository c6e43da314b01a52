package damage

import (
	"github.com/Faultbox/crumple/internal/part"
	"github.com/Faultbox/crumple/pkg/math"
)

// MaxStride bounds the association sampling stride.
const MaxStride = 10

// CollisionFilter lets the host suppress contacts between two colliders.
type CollisionFilter interface {
	IgnoreCollision(a, b part.Collider)
}

// Association maps vertex indices to the parts within reach of them.
type Association struct {
	stride int
	parts  [][]*part.Part
}

// BuildAssociation checks every stride-th vertex against every part and
// keeps the parts whose local position lies closer than their MinDistance.
// Skipped vertices have no parts. Every part with a collider is registered
// with filter to ignore meshCollider.
func BuildAssociation(vertices []math.Vec3, parts []*part.Part, stride int, filter CollisionFilter, meshCollider part.Collider) Association {
	if stride < 1 {
		stride = 1
	}
	a := Association{stride: stride, parts: make([][]*part.Part, len(vertices))}

	for i := 0; i < len(vertices); i += stride {
		for _, p := range parts {
			reach := p.MinDistance()
			if p.LocalPosition().SqrDistance(vertices[i]) < reach*reach {
				a.parts[i] = append(a.parts[i], p)
			}
		}
	}

	if filter != nil {
		for _, p := range parts {
			if p.HasCollider() {
				filter.IgnoreCollision(meshCollider, p.Collider())
			}
		}
	}
	return a
}

// Parts returns the parts associated with vertex i.
func (a Association) Parts(i int) []*part.Part {
	if i < 0 || i >= len(a.parts) {
		return nil
	}
	return a.parts[i]
}

// Stride returns the sampling stride the association was built with.
func (a Association) Stride() int {
	return a.stride
}

// Len returns the number of vertices covered.
func (a Association) Len() int {
	return len(a.parts)
}

// Links returns the total number of vertex-part pairs.
func (a Association) Links() int {
	n := 0
	for _, ps := range a.parts {
		n += len(ps)
	}
	return n
}
