// Package graph models the city map used to route ambulances.
//
// # Structure
//
// A Graph is two tables keyed by the same node identifiers, both built on
// hashmap.HashMap:
//
//	nodes: id -> Node{Kind, Objects list.List[Object]}
//	edges: id -> list.List[string] of neighbor ids
//
// Edges are directed and cost 1. A road that can be driven both ways is two
// edges:
//
//	g := graph.New()
//	_ = g.AddNode("st-marys", graph.Hospital)
//	_ = g.AddNode("elm-street", graph.Home)
//	_ = g.AddEdge("st-marys", "elm-street")
//	_ = g.AddEdge("elm-street", "st-marys")
//
// RemoveNode also strips the removed id from every other adjacency list, an
// O(V+E) sweep.
//
// # Objects
//
// Objects (ambulances) are attached to nodes by unique name. MoveObject
// checks both endpoints and the object's presence at the source and fails
// with ErrNodeNotFound or ErrObjectNotFound otherwise.
//
// # Shortest path
//
// ShortestPath runs Dijkstra's algorithm over a heap.PriorityQueue. It keeps
// best-known distances and predecessors in hash maps, skips queue entries
// whose cost exceeds the recorded best (stale entries left behind by a later
// cheaper path) and rebuilds the path by walking predecessors back from the
// goal. Unreachable goals, including ones only reachable against edge
// direction, report false.
//
// A Graph is not safe for concurrent use.
package graph
