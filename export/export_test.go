package export

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/agentcanvas/agentcanvas/builder"
)

func TestFromGraph_Scenario(t *testing.T) {
	g := builder.New("demo")
	in, err := g.AddNode("input", 10, 10)
	if err != nil {
		t.Fatalf("add input: %v", err)
	}
	if err := g.SetProperty(in.ID, "name", "q"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	llm, err := g.AddNode("llm", 200, 10)
	if err != nil {
		t.Fatalf("add llm: %v", err)
	}
	if err := g.SetProperty(llm.ID, "model", "gpt-4"); err != nil {
		t.Fatalf("set model: %v", err)
	}
	if err := g.SetProperty(llm.ID, "temperature", 1.5); err != nil {
		t.Fatalf("set temperature: %v", err)
	}
	if _, err := g.AddConnection(in.ID, llm.ID); err != nil {
		t.Fatalf("connect: %v", err)
	}

	doc := FromGraph(g)
	if doc.AgentType != "custom_visual_agent" {
		t.Fatalf("agent_type = %q", doc.AgentType)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("node entries = %d, want 2", len(doc.Nodes))
	}
	inDoc := doc.Nodes[in.ID]
	if inDoc.Name != "q" || inDoc.Type != "input" || inDoc.Position.X != 10 || inDoc.Position.Y != 10 {
		t.Fatalf("unexpected input node doc: %+v", inDoc)
	}
	llmDoc := doc.Nodes[llm.ID]
	if llmDoc.Config["model"] != "gpt-4" {
		t.Fatalf("model = %v", llmDoc.Config["model"])
	}
	if temp, ok := llmDoc.Config["temperature"].(float64); !ok || temp != 1.0 {
		t.Fatalf("temperature = %v, want clamped 1.0", llmDoc.Config["temperature"])
	}
	if len(doc.Flow) != 1 {
		t.Fatalf("flow entries = %d, want 1", len(doc.Flow))
	}
	f := doc.Flow[0]
	if f.From != in.ID || f.To != llm.ID || f.Condition != "default" {
		t.Fatalf("unexpected flow entry: %+v", f)
	}
}

func TestFromGraph_IsPure(t *testing.T) {
	g := builder.New("demo")
	a, _ := g.AddNode("input", 1, 2)
	b, _ := g.AddNode("output", 3, 4)
	if _, err := g.AddConnection(a.ID, b.ID); err != nil {
		t.Fatalf("connect: %v", err)
	}

	first := FromGraph(g)
	second := FromGraph(g)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two exports without mutation differ:\n%+v\n%+v", first, second)
	}

	rawA, err := first.EncodeJSON()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rawB, err := second.EncodeJSON()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(rawA, rawB) {
		t.Fatalf("encoded documents differ")
	}
}

func TestFromGraph_EveryFlowEndpointExists(t *testing.T) {
	g := builder.New("demo")
	a, _ := g.AddNode("input", 0, 0)
	b, _ := g.AddNode("router", 0, 0)
	c, _ := g.AddNode("output", 0, 0)
	for _, pair := range [][2]string{{a.ID, b.ID}, {b.ID, c.ID}, {a.ID, c.ID}} {
		if _, err := g.AddConnection(pair[0], pair[1]); err != nil {
			t.Fatalf("connect: %v", err)
		}
	}
	doc := FromGraph(g)
	for _, f := range doc.Flow {
		if _, ok := doc.Nodes[f.From]; !ok {
			t.Fatalf("flow source %q missing from nodes", f.From)
		}
		if _, ok := doc.Nodes[f.To]; !ok {
			t.Fatalf("flow target %q missing from nodes", f.To)
		}
	}
}

func TestFromGraph_AfterClear(t *testing.T) {
	g := builder.New("demo")
	a, _ := g.AddNode("input", 0, 0)
	b, _ := g.AddNode("output", 0, 0)
	if _, err := g.AddConnection(a.ID, b.ID); err != nil {
		t.Fatalf("connect: %v", err)
	}
	g.Clear()

	doc := FromGraph(g)
	if len(doc.Nodes) != 0 || len(doc.Flow) != 0 {
		t.Fatalf("cleared graph exported %d nodes, %d flow entries", len(doc.Nodes), len(doc.Flow))
	}
	raw, err := doc.EncodeJSON()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(raw), `"nodes": {}`) {
		t.Fatalf("nodes not serialized as empty object:\n%s", raw)
	}
	if !strings.Contains(string(raw), `"flow": []`) {
		t.Fatalf("flow not serialized as empty array:\n%s", raw)
	}
}

func TestValidateAndParse_RoundTrip(t *testing.T) {
	g := builder.New("demo")
	a, _ := g.AddNode("input", 10, 10)
	b, _ := g.AddNode("llm", 200, 10)
	if err := g.SetProperty(b.ID, "model", "llama-2"); err != nil {
		t.Fatalf("set model: %v", err)
	}
	if _, err := g.AddConnection(a.ID, b.ID); err != nil {
		t.Fatalf("connect: %v", err)
	}

	raw, err := FromGraph(g).EncodeJSON()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := Validate(raw); err != nil {
		t.Fatalf("exported document failed validation: %v", err)
	}

	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	snap, err := doc.ToSnapshot("demo")
	if err != nil {
		t.Fatalf("to snapshot: %v", err)
	}
	restored, err := builder.FromSnapshot(snap)
	if err != nil {
		t.Fatalf("from snapshot: %v", err)
	}
	if len(restored.Nodes()) != 2 || len(restored.Connections()) != 1 {
		t.Fatalf("restored shape: %d nodes, %d connections", len(restored.Nodes()), len(restored.Connections()))
	}
	if !reflect.DeepEqual(FromGraph(restored).Nodes, doc.Nodes) {
		t.Fatalf("round trip changed node documents")
	}
}

func TestParse_RejectsDanglingFlow(t *testing.T) {
	raw := []byte(`{
  "agent_type": "custom_visual_agent",
  "created_at": "2024-01-01T00:00:00Z",
  "nodes": {
    "a": {"type": "input", "name": "a", "position": {"x": 0, "y": 0}, "config": {}}
  },
  "flow": [{"from": "a", "to": "ghost", "condition": "default"}]
}`)
	if _, err := Parse(raw); err == nil {
		t.Fatalf("expected error for dangling flow reference")
	}
}

func TestValidate_RejectsBadEnumAndRange(t *testing.T) {
	bad := []byte(`{
  "agent_type": "custom_visual_agent",
  "created_at": "2024-01-01T00:00:00Z",
  "nodes": {
    "a": {"type": "llm", "name": "a", "position": {"x": 0, "y": 0}, "config": {"temperature": 2.5}}
  },
  "flow": []
}`)
	if err := Validate(bad); err == nil {
		t.Fatalf("expected validation error for out-of-range temperature")
	}

	badType := []byte(`{
  "agent_type": "custom_visual_agent",
  "created_at": "2024-01-01T00:00:00Z",
  "nodes": {
    "a": {"type": "quantum", "name": "a", "position": {"x": 0, "y": 0}, "config": {}}
  },
  "flow": []
}`)
	if err := Validate(badType); err == nil {
		t.Fatalf("expected validation error for unknown node type")
	}
}

func TestReflectedSchema(t *testing.T) {
	s := ReflectedSchema()
	if s == nil {
		t.Fatalf("reflected schema is nil")
	}
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal reflected schema: %v", err)
	}
	if !bytes.Contains(raw, []byte("agent_type")) {
		t.Fatalf("reflected schema missing document fields:\n%s", raw)
	}
}
