package mat4

import (
	"math"
	"testing"
)

const epsilon = 1e-12

func matricesEqual(a, b Mat4) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > epsilon {
			return false
		}
	}
	return true
}

func TestMultiplyIdentity(t *testing.T) {
	a := Mat4{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}

	if got := Multiply(a, Identity()); !matricesEqual(got, a) {
		t.Fatalf("a*I != a, got %v", got)
	}
	if got := Multiply(Identity(), a); !matricesEqual(got, a) {
		t.Fatalf("I*a != a, got %v", got)
	}
}

func TestTranslateScaleComposition(t *testing.T) {
	cases := []struct {
		name       string
		x, y, z    float64
		sx, sy, sz float64
	}{
		{"unit", 0, 0, 0, 1, 1, 1},
		{"quad placement", -0.75, 1.2, -1.5, 0.6, 0.45, 1},
		{"negative scale", 3, -4, 5, -2, 0.5, 7},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Multiply(Translate(c.x, c.y, c.z), Scale(c.sx, c.sy, c.sz))

			// Direct affine construction: scale on the diagonal,
			// translation in the fourth column.
			want := Mat4{
				c.sx, 0, 0, 0,
				0, c.sy, 0, 0,
				0, 0, c.sz, 0,
				c.x, c.y, c.z, 1,
			}
			if !matricesEqual(got, want) {
				t.Fatalf("composition mismatch, got %v want %v", got, want)
			}
		})
	}
}

func TestMultiplyAppliesRightHandSideFirst(t *testing.T) {
	// Scale then translate differs from translate then scale.
	ts := Multiply(Translate(1, 0, 0), Scale(2, 2, 2))
	st := Multiply(Scale(2, 2, 2), Translate(1, 0, 0))

	if matricesEqual(ts, st) {
		t.Fatal("expected non-commutative composition")
	}
	if ts[12] != 1 {
		t.Fatalf("translate*scale should keep translation 1, got %v", ts[12])
	}
	if st[12] != 2 {
		t.Fatalf("scale*translate should scale translation to 2, got %v", st[12])
	}
}

func TestInvertRigid(t *testing.T) {
	// 90 degree rotation about Z plus a translation.
	m := Mat4{
		0, 1, 0, 0,
		-1, 0, 0, 0,
		0, 0, 1, 0,
		2, -3, 4, 1,
	}

	inv := InvertRigid(m)
	if got := Multiply(m, inv); !matricesEqual(got, Identity()) {
		t.Fatalf("m*inv(m) != I, got %v", got)
	}
	if got := Multiply(inv, m); !matricesEqual(got, Identity()) {
		t.Fatalf("inv(m)*m != I, got %v", got)
	}
}
