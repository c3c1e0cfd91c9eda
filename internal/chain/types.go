package chain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoChains is returned when a set contains no chains at all.
	ErrNoChains = errors.New("no chains to run")
	// ErrEmptyChain is returned when a chain has no steps.
	ErrEmptyChain = errors.New("chain has no steps")
	// ErrDuplicateChain is returned when two chains share a label.
	ErrDuplicateChain = errors.New("duplicate chain name")
)

// ProcessSpec describes a single external program invocation.
type ProcessSpec struct {
	Program string
	Args    []string
}

// NewProcessSpec builds a spec from a command line where the first element is
// the program.
func NewProcessSpec(command []string) (ProcessSpec, error) {
	if len(command) == 0 || command[0] == "" {
		return ProcessSpec{}, fmt.Errorf("command requires a program")
	}
	return ProcessSpec{Program: command[0], Args: append([]string(nil), command[1:]...)}, nil
}

func (p ProcessSpec) String() string {
	if len(p.Args) == 0 {
		return p.Program
	}
	return p.Program + " " + strings.Join(p.Args, " ")
}

// Clone returns a deep copy of the spec.
func (p ProcessSpec) Clone() ProcessSpec {
	return ProcessSpec{Program: p.Program, Args: append([]string(nil), p.Args...)}
}

// Chain is an ordered sequence of programs executed one after another.
type Chain struct {
	Name  string
	Steps []ProcessSpec
}

// Label returns the chain name or a positional fallback based on index.
func (c Chain) Label(index int) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("chain %d", index+1)
}

// Validate ensures the chain can be executed.
func (c Chain) Validate() error {
	if len(c.Steps) == 0 {
		return ErrEmptyChain
	}
	for i, step := range c.Steps {
		if step.Program == "" {
			return fmt.Errorf("step %d missing program", i+1)
		}
	}
	return nil
}

// Set is the collection of chains submitted together. Order carries no
// execution meaning and is only used for labels.
type Set []Chain

// Validate rejects empty sets, invalid chains and chains whose labels collide.
func (s Set) Validate() error {
	if len(s) == 0 {
		return ErrNoChains
	}
	seen := make(map[string]int, len(s))
	for i, c := range s {
		label := c.Label(i)
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
		if first, ok := seen[label]; ok {
			return fmt.Errorf("%w %q: chains %d and %d", ErrDuplicateChain, label, first+1, i+1)
		}
		seen[label] = i
	}
	return nil
}

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	dup := make(Set, len(s))
	for i, c := range s {
		steps := make([]ProcessSpec, len(c.Steps))
		for j, step := range c.Steps {
			steps[j] = step.Clone()
		}
		dup[i] = Chain{Name: c.Name, Steps: steps}
	}
	return dup
}
