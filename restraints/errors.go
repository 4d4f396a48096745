package restraints

import "errors"

var (
	// ErrMalformedDefinition is returned when a restraint definition doesn't have the
	// required structure.
	ErrMalformedDefinition = errors.New("malformed restraint definition")
	// ErrUnsupportedRestraintType is returned when asked to read a kind of restraint
	// file that is not known.
	ErrUnsupportedRestraintType = errors.New("unsupported restraint type")
	// ErrNotImplemented is returned for known restraint kinds that can't be read yet.
	ErrNotImplemented = errors.New("not implemented")
	// ErrFileNotFound is returned when the restraint file doesn't exist.
	ErrFileNotFound = errors.New("restraint file not found")
)
