// Package persistent provides the ORM-aware collection wrappers.
//
// A wrapper tracks what the ORM needs to compute pending writes on flush: the owning
// entity, the collection role and owner key, a snapshot of the last clean state and a
// dirty flag. Six kinds exist, tagged by Kind:
//
//	Bag, List, Set, SortedSet   wrap a collection.Collection
//	HashMap, SortedMap          wrap a collection.Map
//
// Every kind has two constructors: one for an uninitialized wrapper (members are loaded
// later through Session.LoadCollection) and one taking already loaded content.
//
// # Usage
//
//	w, err := persistent.NewCollection(persistent.KindSet, session, loaded)
//	w.SetSnapshot(ownerID, "models.Customer.Tags", w.GetSnapshot(persister))
//	w.SetOwner(customer)
package persistent
