package components

import (
	"testing"

	"github.com/agentcanvas/agentcanvas/builder"
)

func TestCatalog_CoversEveryNodeType(t *testing.T) {
	specs := Catalog()
	if len(specs) != len(builder.NodeTypes()) {
		t.Fatalf("catalog has %d entries, want %d", len(specs), len(builder.NodeTypes()))
	}
	for _, nt := range builder.NodeTypes() {
		spec, ok := Lookup(nt)
		if !ok {
			t.Fatalf("no component spec for %q", nt)
		}
		if spec.Label == "" || spec.Color == "" || spec.Description == "" {
			t.Fatalf("incomplete spec for %q: %+v", nt, spec)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, ok := Lookup(builder.NodeType("quantum")); ok {
		t.Fatalf("lookup succeeded for unknown type")
	}
}
