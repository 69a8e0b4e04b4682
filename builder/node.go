package builder

import (
	"fmt"
	"strings"
)

// NodeType identifies the kind of a canvas node. The set is fixed; anything
// else is rejected with ErrInvalidType.
type NodeType string

const (
	TypeInput  NodeType = "input"
	TypeLLM    NodeType = "llm"
	TypePrompt NodeType = "prompt"
	TypeTool   NodeType = "tool"
	TypeMemory NodeType = "memory"
	TypeRouter NodeType = "router"
	TypeOutput NodeType = "output"
)

// NodeTypes returns the fixed node type enumeration in display order.
func NodeTypes() []NodeType {
	return []NodeType{TypeInput, TypeLLM, TypePrompt, TypeTool, TypeMemory, TypeRouter, TypeOutput}
}

// ParseNodeType accepts either the wire form ("llm") or the display form
// ("LLM") of a node type.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypeInput, TypeLLM, TypePrompt, TypeTool, TypeMemory, TypeRouter, TypeOutput:
		return t, nil
	}
	return "", fmt.Errorf("node type %q: %w", s, ErrInvalidType)
}

// Display returns the human-facing spelling used for default node names.
func (t NodeType) Display() string {
	switch t {
	case TypeLLM:
		return "LLM"
	case "":
		return ""
	}
	return strings.ToUpper(string(t)[:1]) + string(t)[1:]
}

// Recognized values for the enumerated node properties.
var (
	Models      = []string{"gpt-3.5-turbo", "gpt-4", "claude-3-sonnet", "llama-2"}
	ToolTypes   = []string{"web_search", "calculator", "file_reader", "api_call"}
	MemoryTypes = []string{"conversation_buffer", "conversation_summary", "vector_store"}
)

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// Node is a typed unit on the canvas. Type is immutable after creation;
// type-specific settings live in the Config variant and anything the model
// does not recognize is kept verbatim in Extra.
type Node struct {
	ID     string
	Type   NodeType
	Name   string
	X, Y   float64
	Config Config
	Extra  map[string]any
}

// ConfigMap flattens the node's typed config and extras into the key/value
// form used by snapshots and the export document. Only keys that were
// actually set appear. Map- and slice-valued extras are deep-copied so the
// result never aliases live graph state.
func (n *Node) ConfigMap() map[string]any {
	out := map[string]any{}
	if n.Config != nil {
		n.Config.fill(out)
	}
	for k, v := range n.Extra {
		out[k] = deepCopyValue(v)
	}
	return out
}

func (n *Node) clone() *Node {
	out := &Node{ID: n.ID, Type: n.Type, Name: n.Name, X: n.X, Y: n.Y}
	if n.Config != nil {
		out.Config = n.Config.clone()
	}
	if n.Extra != nil {
		out.Extra = make(map[string]any, len(n.Extra))
		for k, v := range n.Extra {
			out.Extra[k] = deepCopyValue(v)
		}
	}
	return out
}

// deepCopyValue detaches map- and slice-valued properties. Scalars are
// returned as-is.
func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	}
	return v
}

// Config is the tagged variant carried by a node. Each node type has its own
// concrete config so property handling is an exhaustive switch instead of a
// loose property bag.
type Config interface {
	// set stores a recognized (already validated) property on the variant.
	// It reports false when the variant does not carry the key.
	set(key string, value any) bool
	// fill writes the keys present on the variant into dst.
	fill(dst map[string]any)
	clone() Config
}

func newConfig(t NodeType) Config {
	switch t {
	case TypeInput:
		return &InputConfig{}
	case TypeLLM:
		return &LLMConfig{}
	case TypePrompt:
		return &PromptConfig{}
	case TypeTool:
		return &ToolConfig{}
	case TypeMemory:
		return &MemoryConfig{}
	case TypeRouter:
		return &RouterConfig{}
	case TypeOutput:
		return &OutputConfig{}
	}
	return nil
}

// InputConfig has no settings of its own.
type InputConfig struct{}

func (c *InputConfig) set(string, any) bool { return false }
func (c *InputConfig) fill(map[string]any)  {}
func (c *InputConfig) clone() Config        { out := *c; return &out }

// LLMConfig carries the model selection and sampling temperature.
// Temperature is stored clamped to [0, 1].
type LLMConfig struct {
	Model       string
	Temperature *float64
}

func (c *LLMConfig) set(key string, value any) bool {
	switch key {
	case "model":
		c.Model, _ = value.(string)
		return true
	case "temperature":
		f, _ := value.(float64)
		c.Temperature = &f
		return true
	}
	return false
}

func (c *LLMConfig) fill(dst map[string]any) {
	if c.Model != "" {
		dst["model"] = c.Model
	}
	if c.Temperature != nil {
		dst["temperature"] = *c.Temperature
	}
}

func (c *LLMConfig) clone() Config {
	out := &LLMConfig{Model: c.Model}
	if c.Temperature != nil {
		t := *c.Temperature
		out.Temperature = &t
	}
	return out
}

// PromptConfig carries an inert prompt template string.
type PromptConfig struct {
	Template string
}

func (c *PromptConfig) set(key string, value any) bool {
	if key == "template" {
		if s, ok := value.(string); ok {
			c.Template = s
			return true
		}
	}
	return false
}

func (c *PromptConfig) fill(dst map[string]any) {
	if c.Template != "" {
		dst["template"] = c.Template
	}
}

func (c *PromptConfig) clone() Config { out := *c; return &out }

// ToolConfig carries the tool kind and a free-form JSON parameter blob.
type ToolConfig struct {
	ToolType   string
	Parameters string
}

func (c *ToolConfig) set(key string, value any) bool {
	switch key {
	case "tool_type":
		if s, ok := value.(string); ok {
			c.ToolType = s
			return true
		}
	case "parameters":
		if s, ok := value.(string); ok {
			c.Parameters = s
			return true
		}
	}
	return false
}

func (c *ToolConfig) fill(dst map[string]any) {
	if c.ToolType != "" {
		dst["tool_type"] = c.ToolType
	}
	if c.Parameters != "" {
		dst["parameters"] = c.Parameters
	}
}

func (c *ToolConfig) clone() Config { out := *c; return &out }

// MemoryConfig carries the memory backend kind.
type MemoryConfig struct {
	MemoryType string
}

func (c *MemoryConfig) set(key string, value any) bool {
	if key == "memory_type" {
		if s, ok := value.(string); ok {
			c.MemoryType = s
			return true
		}
	}
	return false
}

func (c *MemoryConfig) fill(dst map[string]any) {
	if c.MemoryType != "" {
		dst["memory_type"] = c.MemoryType
	}
}

func (c *MemoryConfig) clone() Config { out := *c; return &out }

// RouterConfig carries the free-form routing rules text.
type RouterConfig struct {
	RoutingLogic string
}

func (c *RouterConfig) set(key string, value any) bool {
	if key == "routing_logic" {
		if s, ok := value.(string); ok {
			c.RoutingLogic = s
			return true
		}
	}
	return false
}

func (c *RouterConfig) fill(dst map[string]any) {
	if c.RoutingLogic != "" {
		dst["routing_logic"] = c.RoutingLogic
	}
}

func (c *RouterConfig) clone() Config { out := *c; return &out }

// OutputConfig has no settings of its own.
type OutputConfig struct{}

func (c *OutputConfig) set(string, any) bool { return false }
func (c *OutputConfig) fill(map[string]any)  {}
func (c *OutputConfig) clone() Config        { out := *c; return &out }
