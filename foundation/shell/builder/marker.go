// File: marker.go
// Title: Markers
// Description: Start/finish handles on the production list. A marker is
//              opened at the cursor and later finished as a node, dropped,
//              turned into an error node or rolled back to its start.
// Author: msto63
// Version: v0.1.0
// Created: 2026-09-19
// Modified: 2026-10-08
//
// Change History:
// - 2026-09-19 v0.1.0: Initial implementation
// - 2026-10-01 v0.1.1: Precede keeps the open stack ordered
// - 2026-10-08 v0.1.2: Custom binders per marker

package builder

import (
	mdwerror "github.com/msto63/shcst/foundation/core/error"
	mdwlog "github.com/msto63/shcst/foundation/core/log"
	"github.com/msto63/shcst/foundation/shell/binder"
	"github.com/msto63/shcst/foundation/shell/cst"
)

type markerState int

const (
	stateOpen markerState = iota
	stateDone
	stateDropped
	stateRolledBack
)

func (s markerState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateDone:
		return "done"
	case stateDropped:
		return "dropped"
	case stateRolledBack:
		return "rolled back"
	}
	return "unknown"
}

// production is one start or finish event. index is a raw token index,
// moved by balancing before the tree is materialized.
type production struct {
	marker *Marker
	done   bool
	index  int
}

// Marker is a handle to a node under construction
type Marker struct {
	b        *Builder
	id       int
	state    markerState
	kind     cst.NodeKind
	message  string
	start    *production
	end      *production
	snapshot Snapshot
	left     binder.Binder
	right    binder.Binder
}

// Mark opens a marker at the current token
func (b *Builder) Mark() *Marker {
	m := b.newMarker(b.Snapshot())
	m.start = &production{marker: m, index: b.cur}
	b.productions = append(b.productions, m.start)
	b.open = append(b.open, m)
	b.trace("mark", mdwlog.Fields{"marker": m.id, "cursor": b.cur})
	return m
}

func (b *Builder) newMarker(s Snapshot) *Marker {
	b.nextID++
	return &Marker{b: b, id: b.nextID, snapshot: s}
}

// Open reports whether the marker is neither finished nor discarded
func (m *Marker) Open() bool {
	return m.state == stateOpen
}

// Kind returns the node kind of a finished marker
func (m *Marker) Kind() cst.NodeKind {
	return m.kind
}

// Done finishes the marker as a node of the given kind ending at the
// current position. Every marker opened later must already be finished.
func (m *Marker) Done(kind cst.NodeKind) {
	m.finish(kind, "", "marker.Done")
}

// Error finishes the marker as an error node carrying msg
func (m *Marker) Error(msg string) {
	m.finish(cst.NodeError, msg, "marker.Error")
}

func (m *Marker) finish(kind cst.NodeKind, msg, op string) {
	b := m.b
	b.requireTop(m, op)
	m.kind = kind
	m.message = msg
	m.state = stateDone
	m.end = &production{marker: m, done: true, index: b.cur}
	b.productions = append(b.productions, m.end)
	b.open = b.open[:len(b.open)-1]
	b.trace("done", mdwlog.Fields{"marker": m.id, "kind": kind.String(), "cursor": b.cur})
}

// Drop discards the marker, keeping the tokens and nodes it covered in
// the enclosing node
func (m *Marker) Drop() {
	b := m.b
	b.requireTop(m, "marker.Drop")
	i := b.indexOf(m.start)
	b.productions = append(b.productions[:i], b.productions[i+1:]...)
	b.open = b.open[:len(b.open)-1]
	m.state = stateDropped
	b.trace("drop", mdwlog.Fields{"marker": m.id})
}

// Rollback rewinds the builder to the state at the time the marker was
// opened. Everything produced since is discarded, including markers opened
// later and still open.
func (m *Marker) Rollback() {
	b := m.b
	if m.state != stateOpen && m.state != stateDone {
		b.misuse(mdwerror.CodeBuilderMisuse, "marker.Rollback", "rollback of a "+m.state.String()+" marker")
	}
	i := b.indexOf(m.start)
	removed := make(map[*Marker]bool, len(b.productions)-i)
	for _, p := range b.productions[i:] {
		if !p.done {
			removed[p.marker] = true
		}
	}
	b.productions = b.productions[:i]

	kept := b.open[:0]
	for _, o := range b.open {
		if removed[o] {
			o.state = stateRolledBack
			continue
		}
		kept = append(kept, o)
	}
	b.open = kept
	m.state = stateRolledBack
	b.restore(m.snapshot)
	b.trace("rollback", mdwlog.Fields{"marker": m.id, "cursor": b.cur})
}

// Precede opens a new marker starting right before m. The new marker has
// to be finished after m.
func (m *Marker) Precede() *Marker {
	b := m.b
	if m.state != stateOpen && m.state != stateDone {
		b.misuse(mdwerror.CodeBuilderMisuse, "marker.Precede", "precede of a "+m.state.String()+" marker")
	}
	i := b.indexOf(m.start)
	later := make(map[*Marker]bool)
	for _, p := range b.productions[i:] {
		if !p.done {
			later[p.marker] = true
		}
	}

	p := b.newMarker(m.snapshot)
	p.start = &production{marker: p, index: m.start.index}
	b.productions = append(b.productions, nil)
	copy(b.productions[i+1:], b.productions[i:])
	b.productions[i] = p.start

	pos := len(b.open)
	for j, o := range b.open {
		if later[o] {
			pos = j
			break
		}
	}
	b.open = append(b.open, nil)
	copy(b.open[pos+1:], b.open[pos:])
	b.open[pos] = p
	b.trace("precede", mdwlog.Fields{"marker": p.id, "of": m.id})
	return p
}

// SetBinders overrides the edge binders of this marker. A nil binder keeps
// the policy default for the node kind.
func (m *Marker) SetBinders(left, right binder.Binder) {
	m.left = left
	m.right = right
}

func (b *Builder) requireTop(m *Marker, op string) {
	if m.state != stateOpen {
		b.misuse(mdwerror.CodeBuilderMisuse, op, "marker is already "+m.state.String())
	}
	if len(b.open) == 0 || b.open[len(b.open)-1] != m {
		b.misuse(mdwerror.CodeMarkerImbalance, op, "marker finished while a later marker is still open")
	}
}

// indexOf finds a production scanning from the end; markers are almost
// always finished close to where they were opened
func (b *Builder) indexOf(p *production) int {
	for i := len(b.productions) - 1; i >= 0; i-- {
		if b.productions[i] == p {
			return i
		}
	}
	b.misuse(mdwerror.CodeBuilderMisuse, "builder.indexOf", "marker is not part of this builder")
	return -1
}
