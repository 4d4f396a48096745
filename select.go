/*
 * select.go, part of exafold.
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

package chem

import (
	"fmt"
	"strconv"
	"strings"
)

//A very small subset of the usual MD-analysis selection languages.
//A query is a set of clauses joined by "and". Each clause is a keyword
//and a value:
//	residue N   residue number as given in the input file (1-based)
//	resid N     0-based residue index, in order of appearance
//	resname X   residue name
//	name X      atom name
//	chain X     chain identifier
//	index N     0-based atom index
//Names are compared case-sensitively, as the engines do.

type selClause struct {
	key string
	str string
	num int
}

func parseSelection(query string) ([]selClause, error) {
	f := strings.Fields(query)
	if len(f) == 0 {
		return nil, fmt.Errorf("empty selection query")
	}
	ret := make([]selClause, 0, 2)
	for i := 0; i < len(f); {
		if strings.EqualFold(f[i], "and") {
			i++
			continue
		}
		if i+1 >= len(f) {
			return nil, fmt.Errorf("selection %q: keyword %q has no value", query, f[i])
		}
		c := selClause{key: strings.ToLower(f[i]), str: f[i+1]}
		switch c.key {
		case "residue", "resid", "index":
			n, err := strconv.Atoi(f[i+1])
			if err != nil {
				return nil, fmt.Errorf("selection %q: %s needs an integer: %w", query, c.key, err)
			}
			c.num = n
		case "resname", "name", "chain":
		default:
			return nil, fmt.Errorf("selection %q: unknown keyword %q", query, f[i])
		}
		ret = append(ret, c)
		i += 2
	}
	return ret, nil
}

// Select returns the indexes of the atoms in T matching query, in increasing order.
// It returns an error only if the query can't be parsed. An empty result is not an error.
func (T *Topology) Select(query string) ([]int, error) {
	clauses, err := parseSelection(query)
	if err != nil {
		return nil, err
	}
	starts := residueStarts(T)
	ret := make([]int, 0, 1)
	resindex := -1
	next := 0
	for i, at := range T.Atoms {
		if next < len(starts) && starts[next] == i {
			resindex++
			next++
		}
		if matchesAll(clauses, at, i, resindex) {
			ret = append(ret, i)
		}
	}
	return ret, nil
}

func matchesAll(clauses []selClause, at *Atom, index, resindex int) bool {
	for _, c := range clauses {
		var ok bool
		switch c.key {
		case "residue":
			ok = at.MolID == c.num
		case "resid":
			ok = resindex == c.num
		case "index":
			ok = index == c.num
		case "resname":
			ok = at.MolName == c.str
		case "name":
			ok = at.Name == c.str
		case "chain":
			ok = at.Chain == c.str
		}
		if !ok {
			return false
		}
	}
	return true
}

// AtomIndex returns the index of the only atom in T with residue number residue and
// name name (the name is upper-cased before the search). It returns -1 if no atom, or
// more than one atom, matches.
func (T *Topology) AtomIndex(residue int, name string) int {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return -1
	}
	sel, err := T.Select(fmt.Sprintf("residue %d and name %s", residue, name))
	if err != nil || len(sel) != 1 {
		return -1
	}
	return sel[0]
}
