package graph

import (
	"cmp"

	"github.com/pkg/errors"

	"github.com/dreamware/medrec/internal/hashmap"
	"github.com/dreamware/medrec/internal/heap"
	"github.com/dreamware/medrec/internal/list"
)

var (
	// ErrNodeNotFound is returned when an operation references a missing node.
	ErrNodeNotFound = errors.New("node does not exist")
	// ErrObjectNotFound is returned when a moved or removed object is not at
	// the source node.
	ErrObjectNotFound = errors.New("object does not exist in source node")
	// ErrNodeExists is returned by AddNode for an identifier already in use.
	ErrNodeExists = errors.New("node already exists")
)

// LocationKind classifies a node on the map
type LocationKind int

const (
	// Hospital is where ambulances are based and patients are delivered
	Hospital LocationKind = iota
	// Home is a patient residence
	Home
	// Other is any other waypoint
	Other
)

func (k LocationKind) String() string {
	switch k {
	case Hospital:
		return "hospital"
	case Home:
		return "home"
	default:
		return "other"
	}
}

// ParseLocationKind maps a name to a LocationKind
func ParseLocationKind(s string) (LocationKind, error) {
	switch s {
	case "hospital":
		return Hospital, nil
	case "home":
		return Home, nil
	case "other":
		return Other, nil
	}
	return Other, errors.Errorf("unknown location kind %q", s)
}

// Object is something parked at a node, identified by its name.
type Object struct {
	Name string
}

// UniqueAttr returns the object's name
func (o Object) UniqueAttr() string {
	return o.Name
}

// Node is a location and the objects currently attached to it.
type Node struct {
	Kind    LocationKind
	Objects *list.List[Object]
}

// Graph is a directed graph keyed by string identifiers. Every edge costs 1.
type Graph struct {
	nodes *hashmap.HashMap[string, *Node]
	edges *hashmap.HashMap[string, *list.List[string]]
}

// New creates an empty graph with hashmap.DefaultBuckets buckets per table
func New() *Graph {
	return NewSized(hashmap.DefaultBuckets)
}

// NewSized creates an empty graph whose node and edge tables use the given
// bucket count.
func NewSized(buckets int) *Graph {
	return &Graph{
		nodes: hashmap.NewStringSized[*Node](buckets),
		edges: hashmap.NewStringSized[*list.List[string]](buckets),
	}
}

// AddNode creates node id with no objects and no outgoing edges.
func (g *Graph) AddNode(id string, kind LocationKind) error {
	if g.nodes.ContainsKey(id) {
		return errors.Wrap(ErrNodeExists, id)
	}
	g.nodes.Insert(id, &Node{Kind: kind, Objects: list.New[Object]()})
	g.edges.Insert(id, list.New[string]())
	return nil
}

// AddEdge adds a directed edge from -> to. Callers wanting an undirected
// road add both directions.
func (g *Graph) AddEdge(from, to string) error {
	adj, ok := g.edges.Get(from)
	if !ok {
		return errors.Wrap(ErrNodeNotFound, from)
	}
	if !g.nodes.ContainsKey(to) {
		return errors.Wrap(ErrNodeNotFound, to)
	}
	adj.PushFront(to)
	return nil
}

// RemoveNode deletes id, its adjacency list and every edge pointing at it.
func (g *Graph) RemoveNode(id string) error {
	if _, ok := g.nodes.Remove(id); !ok {
		return errors.Wrap(ErrNodeNotFound, id)
	}
	g.edges.Remove(id)
	for adj := range g.edges.Values() {
		list.Remove(adj, id)
	}
	return nil
}

// Node returns the node stored under id
func (g *Graph) Node(id string) (*Node, bool) {
	return g.nodes.Get(id)
}

// HasNode reports whether id exists
func (g *Graph) HasNode(id string) bool {
	return g.nodes.ContainsKey(id)
}

// Neighbors returns the outgoing neighbors of id, most recently added first.
func (g *Graph) Neighbors(id string) []string {
	adj, ok := g.edges.Get(id)
	if !ok {
		return nil
	}
	return adj.Slice()
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return g.nodes.Len()
}

// EdgeCount returns the number of directed edges
func (g *Graph) EdgeCount() int {
	total := 0
	for adj := range g.edges.Values() {
		total += adj.Len()
	}
	return total
}

// Nodes calls fn for every node. Order is unspecified.
func (g *Graph) Nodes(fn func(id string, n *Node)) {
	for id, n := range g.nodes.All() {
		fn(id, n)
	}
}

// AddObjectToNode attaches obj to node id
func (g *Graph) AddObjectToNode(id string, obj Object) error {
	n, ok := g.nodes.Get(id)
	if !ok {
		return errors.Wrap(ErrNodeNotFound, id)
	}
	n.Objects.PushFront(obj)
	return nil
}

// RemoveObjectFromNode detaches the object called name from node id
func (g *Graph) RemoveObjectFromNode(id, name string) error {
	n, ok := g.nodes.Get(id)
	if !ok {
		return errors.Wrap(ErrNodeNotFound, id)
	}
	if !n.Objects.RemoveByUniqAttr(name) {
		return errors.Wrapf(ErrObjectNotFound, "%s at %s", name, id)
	}
	return nil
}

// MoveObject relocates the object called name from one node to another.
func (g *Graph) MoveObject(from, to, name string) error {
	src, ok := g.nodes.Get(from)
	if !ok {
		return ErrNodeNotFound
	}
	dst, ok := g.nodes.Get(to)
	if !ok {
		return ErrNodeNotFound
	}
	obj, ok := src.Objects.GetByUniqAttr(name)
	if !ok {
		return ErrObjectNotFound
	}
	moved := *obj
	src.Objects.RemoveByUniqAttr(name)
	dst.Objects.PushFront(moved)
	return nil
}

type state struct {
	cost     int
	position string
}

// ShortestPath returns the node sequence of a shortest path from start to
// goal, both included, using Dijkstra's algorithm with unit edge cost. The
// second result is false when goal cannot be reached along directed edges.
func (g *Graph) ShortestPath(start, goal string) ([]string, bool) {
	if !g.nodes.ContainsKey(start) || !g.nodes.ContainsKey(goal) {
		return nil, false
	}

	dist := hashmap.NewStringSized[int](g.nodes.Buckets())
	prev := hashmap.NewStringSized[string](g.nodes.Buckets())
	// a node is queued only when its distance improves, so at most one
	// entry per edge plus the start can ever be pending
	queue := heap.NewQueue(func(a, b state) int { return cmp.Compare(a.cost, b.cost) }, g.EdgeCount()+1)

	dist.Insert(start, 0)
	queue.MustPush(state{cost: 0, position: start})

	for {
		current, ok := queue.Pop()
		if !ok {
			return nil, false
		}
		if current.position == goal {
			return reconstruct(prev, start, goal), true
		}
		if best, ok := dist.Get(current.position); ok && current.cost > best {
			continue
		}

		adj, _ := g.edges.Get(current.position)
		for neighbor := range adj.All() {
			next := state{cost: current.cost + 1, position: neighbor}
			if best, ok := dist.Get(neighbor); ok && next.cost >= best {
				continue
			}
			dist.Insert(neighbor, next.cost)
			prev.Insert(neighbor, current.position)
			queue.MustPush(next)
		}
	}
}

func reconstruct(prev *hashmap.HashMap[string, string], start, goal string) []string {
	path := list.New[string]()
	for at := goal; ; {
		path.PushFront(at)
		if at == start {
			break
		}
		at, _ = prev.Get(at)
	}
	return path.Slice()
}
