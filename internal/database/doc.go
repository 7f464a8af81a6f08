// Package database is the record store of medrec. A Database owns one
// instance of each index structure and exposes the clinic operations on top
// of them.
//
// # Layout
//
//	users          bst.Tree[User]            ordered by username
//	drugs          bst.Tree[Drug]            ordered by id, rebalanced on insert
//	clinics        list.List[Clinic]
//	doctors        list.List[DoctorsList]    each holding a heap.PriorityQueue
//	prescriptions  list.List[Prescription]   each holding a stack.Stack
//	drugGroups     list.List[DrugGroup]
//	ambulances     list.List[Ambulance]
//	cityMap        graph.Graph               ambulances are objects on its nodes
//
// Users are found by username in O(height) because the tree order and the
// lookup key agree. Drugs are ordered by id, so lookup by name is a full
// in-order scan. Drug name suggestions build a trie over the lowercased
// names on each call.
//
// # Errors
//
// Refused operations return one of the package sentinels wrapped with
// context (ErrAlreadyExists, ErrNotFound, ErrInsufficientStock, ...) or a
// sentinel of the structure that refused (heap.ErrOverflow,
// graph.ErrNodeNotFound). Compare with errors.Is. Every refusal is counted in
// Stats and logged at debug level.
//
// # Persistence
//
// Commit encodes the whole database as one gob snapshot and writes it to the
// storage.Store the database was opened with, under Options.SnapshotKey.
// Load and Open read it back. The snapshot stores trees in pre-order and
// heaps in level order, so a loaded database has the same shapes as the one
// committed, not just the same contents.
//
//	store, _ := storage.Open("bolt", "medrec.db")
//	db, err := database.Open(ctx, store, database.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	_, err = db.Register("house", "vicodin", "Gregory House", "000-00-0000", 52, database.RoleDoctor)
//	...
//	err = db.Commit(ctx)
//
// A Database is not safe for concurrent use. Only the operation counters
// reported by Stats are updated atomically.
package database
