package plate

import (
	"testing"

	perrors "github.com/platesouq/platekit/pkg/errors"
)

func TestSpecValidate(t *testing.T) {
	s := Spec{Region: " Dubai ", Number: "333", Code: "A"}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.Region != "dubai" {
		t.Errorf("Region = %q, want normalized %q", s.Region, "dubai")
	}
	if s.Class != ClassPrivate {
		t.Errorf("empty class should default to private, got %q", s.Class)
	}
}

func TestSpecValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		code perrors.Code
	}{
		{"missing region", Spec{Number: "1"}, perrors.ErrCodeInvalidRegion},
		{"missing number", Spec{Region: "dubai"}, perrors.ErrCodeInvalidInput},
		{"bad class", Spec{Region: "dubai", Number: "1", Class: "truck"}, perrors.ErrCodeInvalidClass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if !perrors.Is(err, tt.code) {
				t.Errorf("Validate = %v, want code %q", err, tt.code)
			}
		})
	}
}

func TestTemplateKey(t *testing.T) {
	tests := []struct {
		spec Spec
		want string
	}{
		{Spec{Region: "dubai", Class: ClassPrivate}, "dubai"},
		{Spec{Region: "dubai", Class: ClassBike}, "dubai_bike"},
		{Spec{Region: "sharjah", Class: ClassClassic}, "sharjah_classic"},
	}
	for _, tt := range tests {
		if got := tt.spec.TemplateKey(); got != tt.want {
			t.Errorf("TemplateKey(%+v) = %q, want %q", tt.spec, got, tt.want)
		}
	}
}

func TestDefaultAnchors(t *testing.T) {
	table := DefaultAnchors()
	if len(table) == 0 {
		t.Fatal("bundled anchor table is empty")
	}

	// Every entry must carry positive sizes and in-range fractions.
	for key, a := range table {
		for name, v := range map[string]float64{
			"code_x": a.CodeX, "code_y": a.CodeY,
			"number_x": a.NumberX, "number_y": a.NumberY,
		} {
			if v <= 0 || v >= 1 {
				t.Errorf("%s.%s = %v, want fraction in (0,1)", key, name, v)
			}
		}
		if a.CodeSize <= 0 || a.NumberSize <= 0 {
			t.Errorf("%s has non-positive text size", key)
		}
	}
}

func TestAnchorLookup(t *testing.T) {
	table := AnchorTable{
		"dubai":      {CodeX: 0.1, CodeY: 0.5, CodeSize: 0.4, NumberX: 0.6, NumberY: 0.5, NumberSize: 0.5},
		"dubai_bike": {CodeX: 0.5, CodeY: 0.25, CodeSize: 0.3, NumberX: 0.5, NumberY: 0.7, NumberSize: 0.4},
	}

	if a := table.Lookup(Spec{Region: "dubai", Class: ClassBike}); a.CodeY != 0.25 {
		t.Errorf("bike lookup returned %+v, want suffixed entry", a)
	}
	// Classic has no entry: falls back to the bare region.
	if a := table.Lookup(Spec{Region: "dubai", Class: ClassClassic}); a.CodeX != 0.1 {
		t.Errorf("classic lookup returned %+v, want bare region entry", a)
	}
	// Unknown region: default anchor.
	if a := table.Lookup(Spec{Region: "atlantis", Class: ClassPrivate}); a != DefaultAnchor {
		t.Errorf("unknown region returned %+v, want DefaultAnchor", a)
	}
}
