package fonts

import (
	"testing"

	perrors "github.com/platesouq/platekit/pkg/errors"
)

func TestFallbackFace(t *testing.T) {
	l := NewLibrary()

	face, err := l.Face("", 24)
	if err != nil {
		t.Fatalf("Face: %v", err)
	}
	if face == nil {
		t.Fatal("Face returned nil")
	}

	// Same family+size returns the cached face.
	again, err := l.Face("", 24)
	if err != nil {
		t.Fatalf("Face (cached): %v", err)
	}
	if face != again {
		t.Error("expected cached face instance")
	}

	// Different size is a distinct face.
	other, err := l.Face("", 48)
	if err != nil {
		t.Fatalf("Face (48pt): %v", err)
	}
	if face == other {
		t.Error("expected distinct face for distinct size")
	}
}

func TestFallbackFamilyName(t *testing.T) {
	l := NewLibrary()
	if _, err := l.Face(FallbackFamily, 16); err != nil {
		t.Fatalf("Face(%q): %v", FallbackFamily, err)
	}
}

func TestUnknownFamily(t *testing.T) {
	l := NewLibrary()
	_, err := l.Face("definitely-not-a-real-font-family-xyz", 16)
	if err == nil {
		t.Fatal("expected error for unknown family")
	}
	if !perrors.Is(err, perrors.ErrCodeFontNotFound) {
		t.Errorf("error code = %q, want FONT_NOT_FOUND", perrors.GetCode(err))
	}
}

func TestReset(t *testing.T) {
	l := NewLibrary()
	face, err := l.Face("", 24)
	if err != nil {
		t.Fatal(err)
	}
	l.Reset()
	again, err := l.Face("", 24)
	if err != nil {
		t.Fatal(err)
	}
	if face == again {
		t.Error("Reset should drop cached faces")
	}
}
