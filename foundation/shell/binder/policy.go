// File: policy.go
// Title: Binder Policy
// Description: Maps node kinds to left/right edge binders. The default
//              policy attaches same-line trailing comments to statements and
//              leaves all other trivia outside nodes.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-18
// Modified: 2026-10-04
//
// Change History:
// - 2026-09-18 v0.1.0: Initial implementation
// - 2026-10-04 v0.1.1: PolicyFromConfig

package binder

import (
	mdwerror "github.com/msto63/shcst/foundation/core/error"
	"github.com/msto63/shcst/foundation/shell/cst"
)

// Pair holds the binders of both edges of a node
type Pair struct {
	Left  Binder
	Right Binder
}

// Policy selects binders per node kind
type Policy struct {
	defaults Pair
	kinds    map[cst.NodeKind]Pair
}

// NewPolicy creates a policy with the given fallback binders
func NewPolicy(left, right Binder) *Policy {
	return &Policy{
		defaults: Pair{Left: left, Right: right},
		kinds:    make(map[cst.NodeKind]Pair),
	}
}

// Set overrides the binders for kind. A nil binder keeps the fallback.
func (p *Policy) Set(kind cst.NodeKind, left, right Binder) *Policy {
	pair := p.kinds[kind]
	if left != nil {
		pair.Left = left
	}
	if right != nil {
		pair.Right = right
	}
	p.kinds[kind] = pair
	return p
}

// Left returns the left-edge binder for kind
func (p *Policy) Left(kind cst.NodeKind) Binder {
	if pair, ok := p.kinds[kind]; ok && pair.Left != nil {
		return pair.Left
	}
	return p.defaults.Left
}

// Right returns the right-edge binder for kind
func (p *Policy) Right(kind cst.NodeKind) Binder {
	if pair, ok := p.kinds[kind]; ok && pair.Right != nil {
		return pair.Right
	}
	return p.defaults.Right
}

// StatementKinds are the kinds that take a same-line trailing comment
var StatementKinds = []cst.NodeKind{
	cst.NodeSimpleCommand, cst.NodeDeclarationCommand, cst.NodePipeline,
	cst.NodeLogicalList, cst.NodeIf, cst.NodeFor, cst.NodeForArith,
	cst.NodeSelect, cst.NodeWhile, cst.NodeUntil, cst.NodeCase,
	cst.NodeSubshell, cst.NodeGroup, cst.NodeArithCommand,
	cst.NodeCondCommand, cst.NodeFunction, cst.NodeCoproc,
}

// DefaultPolicy returns the standard policy
func DefaultPolicy() *Policy {
	p := NewPolicy(DefaultLeft, DefaultRight)
	for _, k := range StatementKinds {
		p.Set(k, nil, TrailingComment)
	}
	return p
}

// Config is the user-facing binder configuration
type Config struct {
	// TrailingComments attaches same-line comments to statements
	TrailingComments bool `toml:"trailing_comments" yaml:"trailing_comments"`
	// LeadingAtFileStart pulls trivia at the very start of the file into
	// the first node instead of leaving it on the root
	LeadingAtFileStart bool `toml:"leading_at_file_start" yaml:"leading_at_file_start"`
	// Recursive lists node kinds whose right edge may re-home the
	// boundaries of descendants built earlier
	Recursive []string `toml:"recursive" yaml:"recursive"`
}

// DefaultConfig mirrors DefaultPolicy
func DefaultConfig() Config {
	return Config{TrailingComments: true, LeadingAtFileStart: true}
}

// PolicyFromConfig builds a policy from configuration
func PolicyFromConfig(cfg Config) (*Policy, error) {
	left := DefaultLeft
	if !cfg.LeadingAtFileStart {
		left = ExcludeLeft
	}
	p := NewPolicy(left, DefaultRight)
	if cfg.TrailingComments {
		for _, k := range StatementKinds {
			p.Set(k, nil, TrailingComment)
		}
	}
	for _, name := range cfg.Recursive {
		kind, err := cst.ParseNodeKind(name)
		if err != nil {
			return nil, mdwerror.Wrap(err, "invalid binder configuration").
				WithCode(mdwerror.CodeInvalidConfig).
				WithOperation("binder.PolicyFromConfig").
				WithDetail("kind", name)
		}
		p.Set(kind, nil, Recursive(p.Right(kind)))
	}
	return p, nil
}
