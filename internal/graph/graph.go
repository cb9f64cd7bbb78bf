package graph

import "iter"

// SourceKey identifies a tracked input (a reactive "source" node).
type SourceKey int

// TargetKey identifies an active waiter (a "target" node) registered during
// one evaluation of a polling adapter.
type TargetKey int

const none = -1

type sourceNode struct {
	head int // index into es, or none
}

type targetNode struct {
	head int // index into es, or none
}

type edge struct {
	source SourceKey
	target TargetKey
	sPrev  int
	sNext  int
	tPrev  int
	tNext  int
}

// Graph is a bipartite multigraph: sources on one side, targets on the
// other, edges recorded per dependency-tracking evaluation. Every edge is
// linked simultaneously into two doubly linked lists (one per source, one
// per target) so removing an endpoint costs time linear only in its own
// adjacency, never in the whole edge set. Multi-edges between the same
// (source, target) pair are permitted and are never coalesced.
type Graph struct {
	sources slab[sourceNode]
	targets slab[targetNode]
	edges   slab[edge]
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// InsertSource allocates a new source node and returns its key.
func (g *Graph) InsertSource() SourceKey {
	return SourceKey(g.sources.insert(sourceNode{head: none}))
}

// InsertTarget allocates a new target node and returns its key.
func (g *Graph) InsertTarget() TargetKey {
	return TargetKey(g.targets.insert(targetNode{head: none}))
}

// InsertEdge records a dependency: target t was evaluated while source s was
// watched. Safe to call more than once for the same pair in one evaluation;
// the caller (the source-set accumulator) is responsible for not doing so.
func (g *Graph) InsertEdge(s SourceKey, t TargetKey) {
	sn := g.sources.mustGet(int(s))
	tn := g.targets.mustGet(int(t))
	e := edge{
		source: s,
		target: t,
		sPrev:  none,
		sNext:  sn.head,
		tPrev:  none,
		tNext:  tn.head,
	}
	idx := g.edges.insert(e)
	if sn.head != none {
		g.edges.mustGet(sn.head).sPrev = idx
	}
	if tn.head != none {
		g.edges.mustGet(tn.head).tPrev = idx
	}
	sn.head = idx
	tn.head = idx
}

func (g *Graph) removeEdge(idx int) {
	e := *g.edges.mustGet(idx)

	if e.sPrev != none {
		g.edges.mustGet(e.sPrev).sNext = e.sNext
	} else {
		g.sources.mustGet(int(e.source)).head = e.sNext
	}
	if e.sNext != none {
		g.edges.mustGet(e.sNext).sPrev = e.sPrev
	}

	if e.tPrev != none {
		g.edges.mustGet(e.tPrev).tNext = e.tNext
	} else {
		g.targets.mustGet(int(e.target)).head = e.tNext
	}
	if e.tNext != none {
		g.edges.mustGet(e.tNext).tPrev = e.tPrev
	}

	g.edges.remove(idx)
}

// RemoveSource detaches and removes a source node along with every edge
// touching it.
func (g *Graph) RemoveSource(s SourceKey) {
	sn, ok := g.sources.get(int(s))
	if !ok {
		return
	}
	for sn.head != none {
		g.removeEdge(sn.head)
	}
	g.sources.remove(int(s))
}

// RemoveTarget detaches and removes a target node along with every edge
// touching it.
func (g *Graph) RemoveTarget(t TargetKey) {
	tn, ok := g.targets.get(int(t))
	if !ok {
		return
	}
	for tn.head != none {
		g.removeEdge(tn.head)
	}
	g.targets.remove(int(t))
}

// TargetsFromSource iterates the targets adjacent to a source, in no
// particular order.
func (g *Graph) TargetsFromSource(s SourceKey) iter.Seq[TargetKey] {
	return func(yield func(TargetKey) bool) {
		sn, ok := g.sources.get(int(s))
		if !ok {
			return
		}
		idx := sn.head
		for idx != none {
			e := g.edges.mustGet(idx)
			if !yield(e.target) {
				return
			}
			idx = e.sNext
		}
	}
}

// Stats reports the current number of live sources, targets, and edges —
// used by bridge/debugserver's introspection endpoint.
func (g *Graph) Stats() (sources, targets, edges int) {
	return g.sources.len(), g.targets.len(), g.edges.len()
}

// SourcesFromTarget iterates the sources adjacent to a target, in no
// particular order.
func (g *Graph) SourcesFromTarget(t TargetKey) iter.Seq[SourceKey] {
	return func(yield func(SourceKey) bool) {
		tn, ok := g.targets.get(int(t))
		if !ok {
			return
		}
		idx := tn.head
		for idx != none {
			e := g.edges.mustGet(idx)
			if !yield(e.source) {
				return
			}
			idx = e.tNext
		}
	}
}
