/*
 * doc.go, part of exafold.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*
Package chem is the root package of exafold. It provides the atom and
topology structures used to resolve restraint definitions into atom
indexes, a small selection language over those topologies, and readers
and writers for PDB structure files.

	**Capabilities**

    Reads/writes PDB files.

    Selects atoms with queries like "residue 12 and name CA", or by
	residue lists (Molecules2Atoms).

    Residue numbers (MolID) are the ones given in the input file and start,
	by convention, at 1. Atom indexes are 0-based positions in the topology.

The force/system side lives in the openmm package, the restraint
definitions and restraint files in the restraints package, and the
system wrapper that puts everything together in mdsystem.
*/
package chem
