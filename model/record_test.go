package model

import (
	"math"
	"testing"
)

func TestVec3_Norm(t *testing.T) {
	if got := (Vec3{X: 3, Y: 4, Z: 0}).Norm(); got != 5 {
		t.Fatalf("Norm = %v, want 5", got)
	}
	if got := (Vec3{}).Norm(); got != 0 {
		t.Fatalf("Norm of zero vector = %v, want 0", got)
	}
}

func TestVec3_IsFinite(t *testing.T) {
	if !(Vec3{X: 1, Y: -2, Z: 3}).IsFinite() {
		t.Fatalf("finite vector reported non-finite")
	}
	if (Vec3{X: math.NaN()}).IsFinite() {
		t.Fatalf("NaN component reported finite")
	}
	if (Vec3{Z: math.Inf(1)}).IsFinite() {
		t.Fatalf("Inf component reported finite")
	}
}
