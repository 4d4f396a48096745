/*
Package mdsystem wraps an engine System together with the topology and
initial coordinates it was built from, and assembles restraint forces on it.

Restraints are built from declarative definitions (see package restraints):
InitializeRestraintForce constructs and configures the force and registers it
under its class name, AddRestraintInteractions resolves (residue, atom name)
pairs to atom indexes through the topology and adds one term per interaction,
and ApplyRestraintForce attaches the force to the system.

An OmmSystem is not safe for concurrent use.
*/
package mdsystem
