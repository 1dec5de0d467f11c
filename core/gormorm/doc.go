// Package gormorm implements the orm ports on top of GORM.
//
// # Metamodel
//
// Models are registered with Register[T]. The gorm schema of T provides the primary
// key and the associations; struct fields provide the property types:
//
//   - has-many and many2many associations are collections of the target entity
//   - has-one and belongs-to associations are entities
//   - fields whose type implements orm.UserType are user types
//   - embedded structs (anonymous or tagged `gorm:"embedded"`) are components
//   - everything else is a basic column
//
// Each collection association gets the role "<Entity>.<Field>". Has-many roles are bags
// and many2many roles are sets unless the field carries a `collection:"bag|list|set|sortedset"` tag.
//
// # Sessions
//
// Factory opens Sessions over a *gorm.DB. A Session keeps an identity map, so loading
// one row twice yields one pointer, and deduplicates concurrent loads with singleflight.
// Load returns orm.EntityProxy[T] values whose identifier is readable without a query.
//
// Wrap turns a loaded association into a persistent wrapper attached to the session;
// Flush saves queued entities and replaces the association of every dirty wrapper in
// one transaction.
//
// # Usage
//
//	meta := gormorm.NewMetamodel(intro)
//	gormorm.MustRegister[models.Customer](meta)
//	factory := gormorm.NewFactory(db, meta, logger)
//
//	session, _ := factory.Open(ctx)
//	defer session.Close()
//	tags, _ := session.Wrap(ctx, customer, "Tags")
package gormorm
