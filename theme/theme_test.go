package theme

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestPlasma(t *testing.T) {
	p := Plasma()
	if p.Name != "plasma" || len(p.Colors) != 11 {
		t.Fatalf("got %q with %d colors", p.Name, len(p.Colors))
	}
	if p.Lookup(0) != (RGB{13, 8, 135}) || p.Lookup(1) != (RGB{240, 249, 33}) {
		t.Fatalf("ends: %v %v", p.Lookup(0), p.Lookup(1))
	}
	if p.Lookup(-3) != p.Lookup(0) || p.Lookup(7) != p.Lookup(1) {
		t.Fatal("lookup not clamped")
	}
}

func TestLookupInterpolates(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {200, 100, 50}}}
	if got := p.Lookup(0.5); got != (RGB{100, 50, 25}) {
		t.Fatalf("got %v", got)
	}
}

func TestParseGPLErrors(t *testing.T) {
	if _, err := ParseGPL(strings.NewReader("GIMP Palette\nName: empty\n# nothing\n")); err == nil {
		t.Fatal("empty palette accepted")
	}
	p, err := ParseGPL(strings.NewReader("1 2 3 one\nbad line\n4 5 6"))
	if err != nil || len(p.Colors) != 2 {
		t.Fatalf("got %v, %v", p, err)
	}
}

func TestThemeColors(t *testing.T) {
	th := New(Plasma())
	if th.BG() != lipgloss.Color("#0d0887") {
		t.Fatalf("bg %v", th.BG())
	}
	if th.Success() != lipgloss.Color("#f0f921") {
		t.Fatalf("success %v", th.Success())
	}
}
