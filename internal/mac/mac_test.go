package mac

import (
	"errors"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	a := Address{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	if got, want := a.String(), "AA:BB:CC:DD:EE:FF"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	zeros := Address{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}
	if got, want := zeros.String(), "00:01:02:03:04:05"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if want := (Address{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}); got != want {
		t.Errorf("Parse() = %v, want %v", got, want)
	}
}

func TestParse_Lowercase(t *testing.T) {
	got, err := Parse("aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if want := (Address{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}); got != want {
		t.Errorf("Parse() = %v, want %v", got, want)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{name: "no colons", in: "invalid", want: ErrGroupCount},
		{name: "too few groups", in: "AA:BB:CC", want: ErrGroupCount},
		{name: "too many groups", in: "AA:BB:CC:DD:EE:FF:00", want: ErrGroupCount},
		{name: "short group", in: "AA:BB:CC:DD:EE:F", want: ErrGroupLength},
		{name: "long group", in: "AA:BB:CC:DD:EE:FFF", want: ErrGroupLength},
		{name: "non-hex group", in: "AA:BB:CC:DD:EE:GG", want: ErrNotHex},
		{name: "empty", in: "", want: ErrGroupCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.in, err, tt.want)
			}
		})
	}
}

func TestParse_ErrorNamesOffendingGroup(t *testing.T) {
	_, err := Parse("AA:BB:CC:DD:EE:GG")
	if err == nil {
		t.Fatal("Parse() error = nil, want non-nil")
	}
	if !strings.Contains(err.Error(), "group 5") || !strings.Contains(err.Error(), `"GG"`) {
		t.Errorf("error %q does not name the offending group", err)
	}
}

func TestRoundTrip(t *testing.T) {
	// String(Parse(s)) == uppercase(s) for valid canonical strings.
	for _, s := range []string{"AA:BB:CC:DD:EE:FF", "00:00:00:00:00:00", "01:23:45:67:89:AB"} {
		a, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", s, err)
		}
		if got := a.String(); got != s {
			t.Errorf("round trip %q = %q", s, got)
		}
	}

	// Parse(String(a)) == a for arbitrary byte values.
	for _, a := range []Address{
		{0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{0xCB, 0xB8, 0x33, 0x4C, 0x88, 0x4F},
	} {
		got, err := Parse(a.String())
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", a.String(), err)
		}
		if got != a {
			t.Errorf("round trip %v = %v", a, got)
		}
	}
}

func TestAddressAsMapKey(t *testing.T) {
	a := Address{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	b := Address{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}

	m := map[Address]string{a: "test"}
	if got, ok := m[b]; !ok || got != "test" {
		t.Errorf("map lookup by equal address = (%q, %v), want (%q, true)", got, ok, "test")
	}
}
