package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)
	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30).Mul(Scale(2, 2, 2))
	got := m.TransformPoint(Vec3{1, 2, 3})
	want := Vec3{12, 24, 36}
	if got != want {
		t.Errorf("TransformPoint: got %v, want %v", got, want)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(math.Pi/4, 1.0, 0.1, 100.0)

	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero elements")
	}
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	eye := Vec3{3, -4, 5}
	m := LookAt(eye, Vec3{}, Vec3{0, 0, 1})

	got := m.TransformPoint(eye)
	if got.Length() > 1e-9 {
		t.Errorf("eye should map to origin, got %v", got)
	}

	// The target lies straight ahead, on the negative view Z axis.
	target := m.TransformPoint(Vec3{})
	if math.Abs(target.X) > 1e-9 || math.Abs(target.Y) > 1e-9 || target.Z >= 0 {
		t.Errorf("target should be on -Z, got %v", target)
	}
}

func TestInverse(t *testing.T) {
	m := Perspective(math.Pi/3, 1.5, 0.1, 50).Mul(LookAt(Vec3{2, 3, 4}, Vec3{}, Vec3{0, 0, 1}))
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("expected invertible matrix")
	}

	id := m.Mul(inv)
	want := Identity()
	for i := range id {
		if math.Abs(id[i]-want[i]) > 1e-9 {
			t.Fatalf("M * M^-1 element %d = %f, want %f", i, id[i], want[i])
		}
	}
}

func TestInverseSingular(t *testing.T) {
	_, ok := Scale(1, 0, 1).Inverse()
	if ok {
		t.Error("expected singular matrix to report ok=false")
	}
}

func TestFloat32(t *testing.T) {
	f := Translate(1.5, 2, 3).Float32()
	if f[12] != 1.5 || f[15] != 1 {
		t.Errorf("Float32 conversion lost data: %v", f)
	}
}
