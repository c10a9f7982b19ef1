package alias

import (
	"testing"

	"github.com/lautis/ruuvitag-listener/internal/mac"
)

func TestParse(t *testing.T) {
	addr, name, err := Parse("AA:BB:CC:DD:EE:FF=Kitchen")
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if want := (mac.Address{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}); addr != want {
		t.Errorf("addr = %v, want %v", addr, want)
	}
	if name != "Kitchen" {
		t.Errorf("name = %q, want %q", name, "Kitchen")
	}
}

func TestParse_NameWithSpacesAndEquals(t *testing.T) {
	_, name, err := Parse("AA:BB:CC:DD:EE:FF=Living Room=Main")
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	// Only the first '=' splits; the rest belongs to the name.
	if name != "Living Room=Main" {
		t.Errorf("name = %q, want %q", name, "Living Room=Main")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, _, err := Parse("no-equals-sign"); err == nil {
		t.Error("Parse() error = nil for missing separator")
	}
	if _, _, err := Parse("invalid-mac=Kitchen"); err == nil {
		t.Error("Parse() error = nil for bad address")
	}
}

func TestParseList(t *testing.T) {
	m, err := ParseList("AA:BB:CC:DD:EE:FF=Kitchen, 11:22:33:44:55:66=Bedroom")
	if err != nil {
		t.Fatalf("ParseList() error = %v, want nil", err)
	}
	if len(m) != 2 {
		t.Fatalf("len = %d, want 2", len(m))
	}
	if got := m[mac.Address{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}]; got != "Bedroom" {
		t.Errorf("alias = %q, want %q", got, "Bedroom")
	}
}

func TestParseList_Empty(t *testing.T) {
	m, err := ParseList("")
	if err != nil {
		t.Fatalf("ParseList() error = %v, want nil", err)
	}
	if len(m) != 0 {
		t.Errorf("len = %d, want 0", len(m))
	}
}

func TestResolve_Fallback(t *testing.T) {
	m := Map{{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}: "Kitchen"}

	if got := m.Resolve(mac.Address{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}); got != "Kitchen" {
		t.Errorf("Resolve() = %q, want alias", got)
	}
	if got := m.Resolve(mac.Address{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}); got != "01:02:03:04:05:06" {
		t.Errorf("Resolve() = %q, want canonical address", got)
	}
}
