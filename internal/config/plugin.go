package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Hook is the build phase a plugin runs in.
type Hook string

const (
	HookPre  Hook = "pre"
	HookPost Hook = "post"
)

// Plugin is one `plugin` manifest entry. Keys other than hook, name and hash
// are kept in document order as subprocess arguments.
type Plugin struct {
	Hook Hook   `yaml:"hook" validate:"required,oneof=pre post"`
	Name string `yaml:"name" validate:"required,excludesall=/\\"`
	Hash string `yaml:"hash" validate:"omitempty,hexadecimal"`
	Args []Arg  `yaml:"-"`
}

// Arg is a single extra manifest key forwarded to the plugin.
type Arg struct {
	Key   string
	Value string
}

// String formats the argument as the key=value token passed on the command line.
func (a Arg) String() string {
	return a.Key + "=" + a.Value
}

// Argv returns the plugin's key=value argument list.
func (p Plugin) Argv() []string {
	argv := make([]string, 0, len(p.Args))
	for _, a := range p.Args {
		argv = append(argv, a.String())
	}
	return argv
}

// UnmarshalYAML decodes a manifest entry, preserving the order of extra keys.
func (p *Plugin) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: plugin entry must be a mapping", node.Line)
	}
	*p = Plugin{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: plugin key %q must have a scalar value", val.Line, key.Value)
		}
		switch key.Value {
		case "hook":
			p.Hook = Hook(val.Value)
		case "name":
			p.Name = val.Value
		case "hash":
			p.Hash = val.Value
		default:
			p.Args = append(p.Args, Arg{Key: key.Value, Value: val.Value})
		}
	}
	return nil
}
