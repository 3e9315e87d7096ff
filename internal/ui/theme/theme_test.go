package theme

import (
	"testing"

	"github.com/dori/plando/internal/model"
)

func TestNextCycles(t *testing.T) {
	seen := map[string]bool{}
	name := Nord.Name
	for range Available() {
		seen[name] = true
		name = Next(name).Name
	}
	if name != Nord.Name || len(seen) != len(Available()) {
		t.Errorf("cycle ended at %q, visited %v", name, seen)
	}
	if Next("unknown").Name != Nord.Name {
		t.Error("unknown theme must fall back to the first one")
	}
}

func TestByName(t *testing.T) {
	for _, want := range Available() {
		got, ok := ByName(want.Name)
		if !ok || got.Name != want.Name {
			t.Errorf("ByName(%q) = %q, %v", want.Name, got.Name, ok)
		}
	}
	if _, ok := ByName("solarized"); ok {
		t.Error("unexpected theme")
	}
}

func TestColorsAreSet(t *testing.T) {
	for _, th := range Available() {
		if th.PriorityColor(model.PriorityHigh) == "" || th.StatusColor(model.StatusDone) == "" || th.Error == "" {
			t.Errorf("%s: missing colors", th.Name)
		}
	}
}
