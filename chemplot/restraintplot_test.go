/*
 * restraintplot_test.go, part of exafold.
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

package chemplot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/plot/vg"
)

func testPoints() []RestraintPoint {
	return []RestraintPoint{
		{Target: 5.0, Measured: 4.2},
		{Target: 6.0, Measured: 6.0},
		{Target: 4.5, Measured: 7.5},
		{Target: 8.0, Measured: 8.3},
	}
}

func TestViolations(Te *testing.T) {
	points := testPoints()
	if v := points[0].Violation(); v != 0 {
		Te.Errorf("Point below target should not be violated, got %f", v)
	}
	if v := points[2].Violation(); v != 3.0 {
		Te.Errorf("Expected violation 3.0, got %f", v)
	}
	viol := Violations(points, 0.5)
	if len(viol) != 1 || viol[0] != 2 {
		Te.Errorf("Expected only point 2 violated, got %v", viol)
	}
	viol = Violations(points, 0)
	if len(viol) != 2 {
		Te.Errorf("Expected 2 violations with zero tolerance, got %v", viol)
	}
}

func TestRestraintPlot(Te *testing.T) {
	dir := Te.TempDir()
	for _, name := range []string{"restraints.png", "restraints.svg"} {
		name = filepath.Join(dir, name)
		if err := RestraintPlot(testPoints(), "Test restraints", "(A)", name); err != nil {
			Te.Fatal(err)
		}
		info, err := os.Stat(name)
		if err != nil {
			Te.Fatal(err)
		}
		if info.Size() == 0 {
			Te.Errorf("Empty plot file %s", name)
		}
	}
	err := RestraintPlot(nil, "empty", "", filepath.Join(dir, "empty.png"))
	if !errors.Is(err, ErrNoData) {
		Te.Errorf("Expected ErrNoData, got %v", err)
	}
}

func TestViolationColor(Te *testing.T) {
	ok := violationColor(0, 3)
	if ok.G == 0 || ok.R != 0 {
		Te.Errorf("Satisfied restraints should be green, got %v", ok)
	}
	bad := violationColor(3, 3)
	if bad.R != 255 || bad.G != 0 {
		Te.Errorf("Worst violation should be red, got %v", bad)
	}
}

func TestBasicRestraintPlot(Te *testing.T) {
	p := basicRestraintPlot("Restraints", "(A)", 9.5)
	if p.Title.Padding != 3*vg.Millimeter {
		Te.Errorf("Expected a title padding of 3 mm, got %v", p.Title.Padding)
	}
	if p.X.Min != 0 || p.X.Max != 9.5 || p.Y.Min != 0 || p.Y.Max != 9.5 {
		Te.Errorf("Both axes should span [0, 9.5], got x [%f, %f] y [%f, %f]", p.X.Min, p.X.Max, p.Y.Min, p.Y.Max)
	}
	if p.X.Label.Text != "Target (A)" || p.Y.Label.Text != "Measured (A)" {
		Te.Errorf("Wrong axis labels %q %q", p.X.Label.Text, p.Y.Label.Text)
	}
}
