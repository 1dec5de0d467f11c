package bridge

import "errors"

var (
	// ErrNoSessionFactory is returned by every metadata operation of a Bridge built without a factory.
	ErrNoSessionFactory = errors.New("no session factory defined")
	// ErrNotPersistentObject is returned when an identifier is requested for a transient-only type.
	ErrNotPersistentObject = errors.New("not a persistent object")
	// ErrTransientObject is returned when an instance carries an unsaved identifier.
	ErrTransientObject = errors.New("transient object")
	// ErrComponentType is returned when a persistent type has no entity persister of its own.
	ErrComponentType = errors.New("component type has no identifier")
	// ErrUnableToCreateEntity is returned when a collection member cannot be rebuilt from its descriptor.
	ErrUnableToCreateEntity = errors.New("unable to create entity")
	// ErrInconsistentClassification is returned when a type is classified twice with different results.
	ErrInconsistentClassification = errors.New("inconsistent persistence classification")
	// ErrUnknownWrapper is returned when a descriptor names a wrapper class outside the known kinds.
	ErrUnknownWrapper = errors.New("unknown wrapper class")
	// ErrInvalidDescriptor is returned for malformed descriptors.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

// IsSkippable reports whether err only means the value has no usable identifier.
// Serializers treat such values as plain data.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrNotPersistentObject) ||
		errors.Is(err, ErrTransientObject) ||
		errors.Is(err, ErrComponentType)
}
