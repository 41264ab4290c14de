package model

import "testing"

func TestMatrixMulIdentity(t *testing.T) {
	m := Matrix{2, 0, 0, 2, 10, 20}
	got := m.Mul(Identity)
	if got != m {
		t.Fatalf("m.Mul(Identity) = %v, want %v", got, m)
	}
}

func TestMatrixMulTranslationThenScale(t *testing.T) {
	translate := Matrix{1, 0, 0, 1, 5, 5}
	scale := Matrix{2, 0, 0, 2, 0, 0}
	got := translate.Mul(scale)
	want := Matrix{2, 0, 0, 2, 10, 10}
	if got != want {
		t.Fatalf("translate.Mul(scale) = %v, want %v", got, want)
	}
}

func TestRectangleWidthHeightNormalizesSwappedCorners(t *testing.T) {
	r := Rectangle{Llx: 100, Lly: 50, Urx: 0, Ury: 0}
	if r.Width() != 100 {
		t.Fatalf("Width() = %v, want 100 (absolute value even when corners are swapped)", r.Width())
	}
	if r.Height() != 50 {
		t.Fatalf("Height() = %v, want 50", r.Height())
	}
}

func TestNewRotationRejectsNonMultipleOf90(t *testing.T) {
	if NewRotation(45) != Unset {
		t.Fatal("NewRotation(45) should be Unset, 45 is not a multiple of 90")
	}
	if NewRotation(0) != Zero {
		t.Fatal("NewRotation(0) should be Zero")
	}
	if NewRotation(450).Degrees() != 90 {
		t.Fatalf("NewRotation(450).Degrees() = %d, want 90 (wraps mod 360)", NewRotation(450).Degrees())
	}
}

func TestRotationDegreesRoundTrip(t *testing.T) {
	for _, deg := range []int{0, 90, 180, 270} {
		r := NewRotation(deg)
		if r == Unset {
			t.Fatalf("NewRotation(%d) unexpectedly Unset", deg)
		}
		if r.Degrees() != deg {
			t.Fatalf("NewRotation(%d).Degrees() = %d, want %d", deg, r.Degrees(), deg)
		}
	}
}
