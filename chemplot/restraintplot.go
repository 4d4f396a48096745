/*
 * restraintplot.go, part of exafold.
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

// Package chemplot produces plots to check how well a structure satisfies
// a set of restraints.
package chemplot

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("chemplot: no data to plot")

// RestraintPoint is one restraint: its target value and the value measured
// on a structure, both in the same units.
type RestraintPoint struct {
	Target   float64
	Measured float64
}

// Violation returns how far above its target the measured value is. Values
// at or below the target (the flat bottom of the restraint) give 0.
func (P RestraintPoint) Violation() float64 {
	return math.Max(0, P.Measured-P.Target)
}

// Violations returns the indexes of the points violated by more than tol.
func Violations(points []RestraintPoint, tol float64) []int {
	ret := make([]int, 0)
	for i, v := range points {
		if v.Violation() > tol {
			ret = append(ret, i)
		}
	}
	return ret
}

func basicRestraintPlot(title, units string, max float64) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Target " + units
	p.Y.Label.Text = "Measured " + units
	//both axes share the range so the diagonal is at 45 degrees
	p.X.Min = 0
	p.X.Max = max
	p.Y.Min = 0
	p.Y.Max = max
	p.Add(plotter.NewGrid())
	return p
}

// RestraintPlot writes a scatter plot of measured vs target values to
// plotname. The format is taken from the extension of plotname (png, svg,
// pdf...). Points are colored by how much they violate their restraint,
// and the y=x line marks exact satisfaction.
func RestraintPlot(points []RestraintPoint, title, units, plotname string) error {
	if len(points) == 0 {
		return ErrNoData
	}
	var max, worst float64
	for _, v := range points {
		max = math.Max(max, math.Max(v.Target, v.Measured))
		worst = math.Max(worst, v.Violation())
	}
	max *= 1.1
	if max == 0 {
		max = 1
	}
	p := basicRestraintPlot(title, units, max)
	diag := plotter.NewFunction(func(x float64) float64 { return x })
	diag.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(diag)
	p.Legend.Add("target", diag)
	temp := make(plotter.XYs, 1)
	for _, v := range points {
		temp[0].X = v.Target
		temp[0].Y = v.Measured
		s, err := plotter.NewScatter(temp)
		if err != nil {
			return fmt.Errorf("chemplot: %w", err)
		}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Color = violationColor(v.Violation(), worst)
		p.Add(s)
	}
	if err := p.Save(5*vg.Inch, 5*vg.Inch, plotname); err != nil {
		return fmt.Errorf("chemplot: saving %s: %w", plotname, err)
	}
	return nil
}
