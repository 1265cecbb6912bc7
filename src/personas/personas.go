// Package personas maps persona names to system messages while keeping
// the order in which they were declared in the config document.
package personas

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FallbackMessage is used when no persona is configured at all.
const FallbackMessage = "You are a helpful assistant."

// DefaultName is the persona consulted when the requested one is missing.
const DefaultName = "Default"

// Set is an ordered collection of named system messages.
type Set struct {
	names    []string
	messages map[string]string
}

// New builds a Set from name/message pairs, preserving pair order.
func New(pairs ...[2]string) *Set {
	s := &Set{messages: make(map[string]string, len(pairs))}
	for _, p := range pairs {
		s.add(p[0], p[1])
	}
	return s
}

func (s *Set) add(name, message string) {
	if s.messages == nil {
		s.messages = make(map[string]string)
	}
	if _, seen := s.messages[name]; !seen {
		s.names = append(s.names, name)
	}
	s.messages[name] = message
}

// UnmarshalYAML decodes a YAML mapping into the Set, keeping key order.
// Plain map decoding would lose the order, and "first configured persona"
// is part of the resolution contract.
func (s *Set) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*s = Set{messages: map[string]string{}}
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("personas: expected a mapping, got %s", value.Tag)
	}
	out := Set{messages: make(map[string]string, len(value.Content)/2)}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name, message string
		if err := value.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("personas: bad key: %w", err)
		}
		if err := value.Content[i+1].Decode(&message); err != nil {
			return fmt.Errorf("personas: bad value for %q: %w", name, err)
		}
		out.add(name, message)
	}
	*s = out
	return nil
}

// Resolve returns the system message for name. Fallback order: the
// "Default" persona, then the first configured persona, then
// FallbackMessage. exact reports whether name itself was found.
func (s *Set) Resolve(name string) (message string, exact bool) {
	if s != nil {
		if msg, ok := s.messages[name]; ok {
			return msg, true
		}
		if msg, ok := s.messages[DefaultName]; ok {
			return msg, false
		}
		if len(s.names) > 0 {
			return s.messages[s.names[0]], false
		}
	}
	return FallbackMessage, false
}

// Get returns the message for name without any fallback.
func (s *Set) Get(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	msg, ok := s.messages[name]
	return msg, ok
}

// Names returns the persona names in declared order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of configured personas.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}
