// SPDX-License-Identifier: MPL-2.0

// Package dag orders packages so that every dependency comes before the
// packages importing it. It is used to compute load orders from a
// dependency tree.
package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is the sentinel wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle detected")

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Cycle lists the nodes left unordered, which include every node of
		// at least one cycle.
		Cycle []string
	}

	// Graph is a directed graph over comparable keys. An edge from A to B
	// means A must be loaded before B.
	Graph[K comparable] struct {
		adjacency map[K][]K
		edges     map[[2]K]struct{}
		// nodes keeps insertion order for deterministic output.
		nodes   []K
		nodeSet map[K]struct{}
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(e.Cycle, " -> "))
}

// Unwrap returns ErrCycle for errors.Is() compatibility.
func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New[K comparable]() *Graph[K] {
	return &Graph[K]{
		adjacency: make(map[K][]K),
		edges:     make(map[[2]K]struct{}),
		nodeSet:   make(map[K]struct{}),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph[K]) AddNode(k K) {
	if _, ok := g.nodeSet[k]; ok {
		return
	}
	g.nodeSet[k] = struct{}{}
	g.nodes = append(g.nodes, k)
}

// AddEdge records that from must come before to, adding both nodes.
// Repeated edges are recorded once.
func (g *Graph[K]) AddEdge(from, to K) {
	g.AddNode(from)
	g.AddNode(to)
	if _, dup := g.edges[[2]K{from, to}]; dup {
		return
	}
	g.edges[[2]K{from, to}] = struct{}{}
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Len returns the number of nodes.
func (g *Graph[K]) Len() int { return len(g.nodes) }

// TopologicalSort returns an order in which every node follows its
// predecessors, using Kahn's algorithm. Nodes that become ready together keep
// their insertion order. A cyclic graph returns a *CycleError.
func (g *Graph[K]) TopologicalSort() ([]K, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[K]int, len(g.nodes))
	for _, neighbors := range g.adjacency {
		for _, n := range neighbors {
			inDegree[n]++
		}
	}

	var queue []K
	for _, k := range g.nodes {
		if inDegree[k] == 0 {
			queue = append(queue, k)
		}
	}

	result := make([]K, 0, len(g.nodes))
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		result = append(result, k)
		for _, n := range g.adjacency[k] {
			inDegree[n]--
			if inDegree[n] == 0 {
				queue = append(queue, n)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var cycle []string
		for _, k := range g.nodes {
			if inDegree[k] > 0 {
				cycle = append(cycle, fmt.Sprint(k))
			}
		}
		return nil, &CycleError{Cycle: cycle}
	}
	return result, nil
}
