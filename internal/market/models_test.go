package market

import (
	"math"
	"testing"
)

func TestSomeRejectsNonFinite(t *testing.T) {
	if Some(math.NaN()).Valid() {
		t.Fatal("NaN 不应视为有效价格")
	}
	if Some(math.Inf(1)).Valid() {
		t.Fatal("Inf 不应视为有效价格")
	}
	v, ok := Some(8123.5).Get()
	if !ok || v != 8123.5 {
		t.Fatalf("unexpected price: %v %v", v, ok)
	}
}

func TestPriceFormat(t *testing.T) {
	if got := Missing().Format(2); got != "-" {
		t.Fatalf("missing price should render '-', got %q", got)
	}
	if got := Some(101.256).Format(2); got != "101.26" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := Missing().Or(3); got != 3 {
		t.Fatalf("Or should fall back, got %v", got)
	}
}

func TestGroupLookup(t *testing.T) {
	g := Group{Name: "2605", Instruments: []Instrument{{Label: "Y", Symbol: "nf_y2605"}, {Label: "P", Symbol: "nf_p2605"}}}
	inst, ok := g.Lookup("P")
	if !ok || inst.Symbol != "nf_p2605" {
		t.Fatalf("lookup failed: %+v", inst)
	}
	if _, ok := g.Lookup("OI"); ok {
		t.Fatal("unknown label should not resolve")
	}
	if syms := g.Symbols(); len(syms) != 2 || syms[0] != "nf_y2605" {
		t.Fatalf("unexpected symbols: %v", syms)
	}
}
