// Package components describes the palette the display layer renders in its
// sidebar: one entry per node type with the presentation metadata the canvas
// uses for drawing and the short description shown next to it.
package components

import "github.com/agentcanvas/agentcanvas/builder"

type Spec struct {
	Type        builder.NodeType `json:"type"`
	Label       string           `json:"label"`
	Color       string           `json:"color"`
	Icon        string           `json:"icon"`
	Description string           `json:"description"`
}

var catalog = []Spec{
	{Type: builder.TypeInput, Label: "Input", Color: "#4CAF50", Icon: "📝", Description: "User input capture"},
	{Type: builder.TypeLLM, Label: "LLM", Color: "#2196F3", Icon: "🤖", Description: "Language model processing"},
	{Type: builder.TypePrompt, Label: "Prompt", Color: "#9C27B0", Icon: "📋", Description: "Prompt template engine"},
	{Type: builder.TypeTool, Label: "Tool", Color: "#FF9800", Icon: "🔧", Description: "External tools and APIs"},
	{Type: builder.TypeMemory, Label: "Memory", Color: "#607D8B", Icon: "🧠", Description: "Conversation memory"},
	{Type: builder.TypeRouter, Label: "Router", Color: "#F44336", Icon: "🔀", Description: "Decision routing logic"},
	{Type: builder.TypeOutput, Label: "Output", Color: "#8BC34A", Icon: "📤", Description: "Final output formatting"},
}

// Catalog returns the component library in display order.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the spec for a node type.
func Lookup(t builder.NodeType) (Spec, bool) {
	for _, s := range catalog {
		if s.Type == t {
			return s, true
		}
	}
	return Spec{}, false
}
