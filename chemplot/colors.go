/*
 * colors.go, part of exafold.
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
	"image/color"
	"math"
)

// hsv takes hue (0-360), s and v (0-1), returns the RGBA color.
func hsv(h, s, v float64) color.RGBA {
	conv := 255.0 * v
	if s == 0 {
		c := uint8(conv)
		return color.RGBA{R: c, G: c, B: c, A: 255}
	}
	h = math.Mod(h, 360) / 60
	i := math.Floor(h)
	f := h - i
	p := 1 - s
	q := 1 - s*f
	t := 1 - s*(1-f)
	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = 1, t, p
	case 1:
		r, g, b = q, 1, p
	case 2:
		r, g, b = p, 1, t
	case 3:
		r, g, b = p, q, 1
	case 4:
		r, g, b = t, p, 1
	default:
		r, g, b = 1, p, q
	}
	return color.RGBA{R: uint8(r * conv), G: uint8(g * conv), B: uint8(b * conv), A: 255}
}

// violationColor goes from green (satisfied) to red (a violation of worst or
// more).
func violationColor(violation, worst float64) color.RGBA {
	if violation <= 0 || worst <= 0 {
		return hsv(120, 1, 0.8)
	}
	frac := math.Min(violation/worst, 1)
	return hsv(60*(1-frac), 1, 1)
}
