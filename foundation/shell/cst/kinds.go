// File: kinds.go
// Title: CST Node Kinds
// Description: Closed enumeration of node kinds produced by the grammar.
//              Collaborators switch on Kind instead of relying on virtual
//              dispatch.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-16
// Modified: 2026-10-03
//
// Change History:
// - 2026-09-16 v0.1.0: Initial node catalogue
// - 2026-10-03 v0.1.1: Categories and ParseNodeKind for CLI filters

package cst

import (
	"fmt"
	"strings"
)

// NodeKind classifies a tree node
type NodeKind int

const (
	NodeError NodeKind = iota
	NodeFile

	// Lists and commands
	NodeCompoundList
	NodeLogicalList
	NodePipeline
	NodeSimpleCommand
	NodeDeclarationCommand
	NodeComposedCommand
	NodeAssignment
	NodeArrayLiteral
	NodeAssocArrayLiteral
	NodeArrayIndex

	// Compound commands
	NodeIf
	NodeElifBranch
	NodeElseBranch
	NodeFor
	NodeForArith
	NodeSelect
	NodeWhile
	NodeUntil
	NodeDoGroup
	NodeWordList
	NodeCase
	NodeCaseClause
	NodeCasePattern
	NodeSubshell
	NodeGroup
	NodeArithCommand
	NodeCondCommand
	NodeCondBinary
	NodeCondUnary
	NodeCondLogical
	NodeCondGroup
	NodeFunction
	NodeCoproc

	// Redirections
	NodeRedirect
	NodeHeredocRedirect
	NodeHeredoc
	NodeHereString

	// Words and expansions
	NodeWord
	NodeString
	NodeParamExpansion
	NodeCommandSubst
	NodeBacktick
	NodeProcessSubst
	NodeArithExpansion

	// Arithmetic expressions
	NodeArithBinary
	NodeArithUnary
	NodeArithPostfix
	NodeArithTernary
	NodeArithGroup

	nodeKindCount
)

var nodeKindNames = [...]string{
	NodeError:              "Error",
	NodeFile:               "File",
	NodeCompoundList:       "CompoundList",
	NodeLogicalList:        "LogicalList",
	NodePipeline:           "Pipeline",
	NodeSimpleCommand:      "SimpleCommand",
	NodeDeclarationCommand: "DeclarationCommand",
	NodeComposedCommand:    "ComposedCommand",
	NodeAssignment:         "Assignment",
	NodeArrayLiteral:       "ArrayLiteral",
	NodeAssocArrayLiteral:  "AssocArrayLiteral",
	NodeArrayIndex:         "ArrayIndex",
	NodeIf:                 "If",
	NodeElifBranch:         "ElifBranch",
	NodeElseBranch:         "ElseBranch",
	NodeFor:                "For",
	NodeForArith:           "ForArith",
	NodeSelect:             "Select",
	NodeWhile:              "While",
	NodeUntil:              "Until",
	NodeDoGroup:            "DoGroup",
	NodeWordList:           "WordList",
	NodeCase:               "Case",
	NodeCaseClause:         "CaseClause",
	NodeCasePattern:        "CasePattern",
	NodeSubshell:           "Subshell",
	NodeGroup:              "Group",
	NodeArithCommand:       "ArithCommand",
	NodeCondCommand:        "CondCommand",
	NodeCondBinary:         "CondBinary",
	NodeCondUnary:          "CondUnary",
	NodeCondLogical:        "CondLogical",
	NodeCondGroup:          "CondGroup",
	NodeFunction:           "Function",
	NodeCoproc:             "Coproc",
	NodeRedirect:           "Redirect",
	NodeHeredocRedirect:    "HeredocRedirect",
	NodeHeredoc:            "Heredoc",
	NodeHereString:         "HereString",
	NodeWord:               "Word",
	NodeString:             "String",
	NodeParamExpansion:     "ParamExpansion",
	NodeCommandSubst:       "CommandSubst",
	NodeBacktick:           "Backtick",
	NodeProcessSubst:       "ProcessSubst",
	NodeArithExpansion:     "ArithExpansion",
	NodeArithBinary:        "ArithBinary",
	NodeArithUnary:         "ArithUnary",
	NodeArithPostfix:       "ArithPostfix",
	NodeArithTernary:       "ArithTernary",
	NodeArithGroup:         "ArithGroup",
}

// String returns the kind name
func (k NodeKind) String() string {
	if k >= 0 && k < nodeKindCount {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// ParseNodeKind looks up a kind by name, case-insensitively
func ParseNodeKind(name string) (NodeKind, error) {
	for k := NodeKind(0); k < nodeKindCount; k++ {
		if strings.EqualFold(nodeKindNames[k], name) {
			return k, nil
		}
	}
	return NodeError, fmt.Errorf("unknown node kind %q", name)
}

// AllNodeKinds returns every kind in declaration order
func AllNodeKinds() []NodeKind {
	kinds := make([]NodeKind, 0, nodeKindCount)
	for k := NodeKind(0); k < nodeKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// IsCommand reports whether nodes of this kind are executable commands
func (k NodeKind) IsCommand() bool {
	switch k {
	case NodeSimpleCommand, NodeDeclarationCommand, NodeComposedCommand,
		NodePipeline, NodeLogicalList, NodeFunction, NodeCoproc:
		return true
	}
	return k.IsCompound()
}

// IsCompound reports whether the kind is a compound command
func (k NodeKind) IsCompound() bool {
	switch k {
	case NodeIf, NodeFor, NodeForArith, NodeSelect, NodeWhile, NodeUntil,
		NodeCase, NodeSubshell, NodeGroup, NodeArithCommand, NodeCondCommand:
		return true
	}
	return false
}

// IsExpansion reports whether the kind is a word expansion
func (k NodeKind) IsExpansion() bool {
	switch k {
	case NodeParamExpansion, NodeCommandSubst, NodeBacktick, NodeProcessSubst, NodeArithExpansion:
		return true
	}
	return false
}
