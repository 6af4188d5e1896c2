package behavior

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes a tree by naming its nodes and wiring them by name.
type Config struct {
	Root  string                `json:"root" yaml:"root"`
	Nodes map[string]ConfigNode `json:"nodes" yaml:"nodes"`
}

type ConfigNode struct {
	Type      string         `json:"type" yaml:"type"`
	Interrupt string         `json:"interrupt,omitempty" yaml:"interrupt,omitempty"`
	Children  []string       `json:"children,omitempty" yaml:"children,omitempty"`
	Child     string         `json:"child,omitempty" yaml:"child,omitempty"`
	Action    string         `json:"action,omitempty" yaml:"action,omitempty"`
	Condition string         `json:"condition,omitempty" yaml:"condition,omitempty"`
	Decorator string         `json:"decorator,omitempty" yaml:"decorator,omitempty"`
	Params    map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// LoadJSON loads config from JSON reader.
func LoadJSON(r io.Reader) (*Config, error) {
	var c Config
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode tree json: %w", err)
	}
	return &c, nil
}

// LoadYAML loads config from YAML reader.
func LoadYAML(r io.Reader) (*Config, error) {
	var c Config
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode tree yaml: %w", err)
	}
	return &c, nil
}

// Build constructs the node graph described by the config and returns its root.
// Every placement goes through the same checks as BehaviorTree.AddChild.
func (c *Config) Build(reg Registry) (ControlNode, error) {
	if c.Root == "" {
		return nil, fmt.Errorf("tree config has no root")
	}
	if reg == nil {
		reg = DefaultRegistry
	}

	created := make(map[string]Node)
	building := make(map[string]bool)
	var buildNode func(name string) (Node, error)
	buildNode = func(name string) (Node, error) {
		if n, ok := created[name]; ok {
			return n, nil
		}
		if building[name] {
			return nil, fmt.Errorf("node %s references itself", name)
		}
		building[name] = true
		defer delete(building, name)

		nc, ok := c.Nodes[name]
		if !ok {
			return nil, fmt.Errorf("unknown node in config: %s", name)
		}

		var node Node
		var children []string
		mode := ParseInterruptMode(nc.Interrupt)
		switch strings.ToLower(nc.Type) {
		case "sequence":
			node, children = NewSequence(name, mode), nc.Children
		case "fallback", "selector":
			node, children = NewFallback(name, mode), nc.Children
		case "parallel":
			node, children = NewParallel(name, mode, IntParam(nc.Params, "required", 1)), nc.Children
		case "decorator":
			kind := nc.Decorator
			if kind == "" {
				kind, _ = nc.Params["name"].(string)
			}
			dec, err := reg.NewDecorator(kind, name, nc.Params)
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", name, err)
			}
			if nc.Child == "" {
				return nil, fmt.Errorf("decorator %s requires child", name)
			}
			node, children = dec, []string{nc.Child}
		case "action":
			h, err := reg.NewAction(nc.Action, nc.Params)
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", name, err)
			}
			node = NewAction(name, h)
		case "condition":
			fn, err := reg.NewCondition(nc.Condition, nc.Params)
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", name, err)
			}
			node = NewCondition(name, fn)
		default:
			return nil, fmt.Errorf("unsupported node type: %s", nc.Type)
		}

		for _, chname := range children {
			ch, err := buildNode(chname)
			if err != nil {
				return nil, err
			}
			if err = Attach(node, ch); err != nil {
				return nil, fmt.Errorf("node %s: %w", name, err)
			}
		}
		created[name] = node
		return node, nil
	}

	root, err := buildNode(c.Root)
	if err != nil {
		return nil, err
	}
	ctrl, ok := root.(ControlNode)
	if !ok {
		return nil, fmt.Errorf("root %s: %w", c.Root, ErrNotControl)
	}
	return ctrl, nil
}

// BuildTree builds the config into a new tree.
func (c *Config) BuildTree(name string, reg Registry, opts ...Option) (*BehaviorTree, error) {
	root, err := c.Build(reg)
	if err != nil {
		return nil, err
	}
	t := NewBehaviorTree(name, opts...)
	if !t.SetRoot(root) {
		return nil, fmt.Errorf("tree %s: %w", name, ErrNotControl)
	}
	return t, nil
}

// IntParam reads an integer leaf parameter, falling back to def.
func IntParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// DurationParam reads a duration parameter: a Go duration string ("250ms") or a number of milliseconds.
func DurationParam(params map[string]any, key string) (time.Duration, error) {
	switch v := params[key].(type) {
	case nil:
		return 0, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("param %s: %w", key, err)
		}
		return d, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	default:
		return 0, fmt.Errorf("param %s: unsupported duration %T", key, v)
	}
}
