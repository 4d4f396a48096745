package mdsystem

import "errors"

var (
	// ErrUnknownRestraintType is returned when a restraint type was never initialized.
	ErrUnknownRestraintType = errors.New("unknown restraint type")
	// ErrInvalidInteractionList is returned when the interactions don't match the shape
	// the restraint expects.
	ErrInvalidInteractionList = errors.New("invalid interaction list")
	// ErrNoTopology is returned when atoms need to be resolved but the system has no topology.
	ErrNoTopology = errors.New("system has no topology")
	// ErrRestraintExists is returned by Registry.Insert when the key is already registered.
	ErrRestraintExists = errors.New("restraint type already registered")
	// ErrNoForce is returned when a force expected in the system is not there.
	ErrNoForce = errors.New("force not found")
)
