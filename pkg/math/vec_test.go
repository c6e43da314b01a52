package math

import (
	"math/rand/v2"
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3SqrLength(t *testing.T) {
	v := Vec3{1, 2, 2}
	if got := v.SqrLength(); got != 9 {
		t.Errorf("Vec3.SqrLength() = %v, want 9", got)
	}
	if got := v.Length(); got != 3 {
		t.Errorf("Vec3.Length() = %v, want 3", got)
	}
}

func TestVec3NormalizeZero(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("zero Normalize() = %v, want zero", got)
	}
	n := Vec3{3, 0, 4}.Normalize()
	if l := n.Length(); l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
}

func TestVec3SqrDistance(t *testing.T) {
	a := Vec3{1, 1, 0}
	b := Vec3{0, 0, 0}
	if got := a.SqrDistance(b); got != 2 {
		t.Errorf("SqrDistance = %v, want 2", got)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float32
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{0, 0, 1, 0},
		{1, 0, 1, 1},
	}

	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestClampComponents(t *testing.T) {
	got := Vec3{-0.5, 0.1, 3}.ClampComponents(0, 0.2)
	want := Vec3{0, 0.1, 0.2}
	if got != want {
		t.Errorf("ClampComponents = %v, want %v", got, want)
	}
}

func TestRandomOnUnitSphere(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		l := RandomOnUnitSphere(r).Length()
		if l < 0.999 || l > 1.001 {
			t.Fatalf("sample %d length = %v, want ~1", i, l)
		}
	}
}
