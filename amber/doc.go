/*
 * doc.go, part of exafold
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
Amber is a package for reading the Amber files needed to set up a system:
the topology part of prmtop files (atom names, residues, masses, charges)
and inpcrd/restart coordinate files. Force-field terms are kept as raw
blocks, they are not turned into forces.
*/
package amber
