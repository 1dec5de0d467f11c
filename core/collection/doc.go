// Package collection provides the plain collections exchanged with remote clients.
//
// Clients never see ORM wrappers; they see these containers. Each concrete type has a
// stable class name so that a descriptor can name the backing collection of a wrapper
// and the server can instantiate an empty one again.
//
// # Kinds
//
//   - Bag: unordered, duplicates allowed
//   - List: ordered, duplicates allowed
//   - Set: no duplicates, equality membership
//   - SortedSet: no duplicates, comparator ordering
//   - HashMap / SortedMap: key/value containers
//
// # Equality and identity
//
// Equal uses Equaler when implemented, == for comparable values and reflect.DeepEqual
// otherwise. Same is reference identity, used where order and reference preservation matter.
package collection
