/*
 * gocoords.go, part of exafold.
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

package v3

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

//METHODS

// SubVec puts in the receiver (a 1x3 matrix) the vector i of A minus the vector j of A.
func (F *Matrix) SubVec(A *Matrix, i, j int) {
	if F.NVecs() != 1 {
		panic(ErrShape)
	}
	floats.SubTo(F.RawRowView(0), A.RawRowView(i), A.RawRowView(j))
}

// Cross puts the cross product of the first vecs of a and b in the first vec of F. Panics if error.
func (F *Matrix) Cross(a, b *Matrix) {
	if a.NVecs() < 1 || b.NVecs() < 1 || F.NVecs() < 1 {
		panic(ErrNoCrossProduct)
	}
	x := a.At(0, 1)*b.At(0, 2) - a.At(0, 2)*b.At(0, 1)
	y := a.At(0, 2)*b.At(0, 0) - a.At(0, 0)*b.At(0, 2)
	z := a.At(0, 0)*b.At(0, 1) - a.At(0, 1)*b.At(0, 0)
	F.Set(0, 0, x)
	F.Set(0, 1, y)
	F.Set(0, 2, z)
}

// Dot returns the dot product of the first vectors of F and B.
func (F *Matrix) Dot(B *Matrix) float64 {
	return floats.Dot(F.RawRowView(0), B.RawRowView(0))
}

// Norm returns the euclidean norm of the first vector of F.
func (F *Matrix) Norm() float64 {
	return floats.Norm(F.RawRowView(0), 2)
}

func (F *Matrix) String() string {
	r, c := F.Dims()
	v := make([]string, r+2)
	v[0] = "\n["
	v[len(v)-1] = " ]"
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		copyRow(F, row, i)
		if i == 0 {
			v[i+1] = fmt.Sprintf("%6.2f %6.2f %6.2f\n", row[0], row[1], row[2])
			continue
		} else if i == r-1 {
			v[i+1] = fmt.Sprintf(" %6.2f %6.2f %6.2f", row[0], row[1], row[2])
			continue
		} else {
			v[i+1] = fmt.Sprintf(" %6.2f %6.2f %6.2f\n", row[0], row[1], row[2])
		}
	}
	v[len(v)-2] = strings.Replace(v[len(v)-2], "\n", "", 1)
	return strings.Join(v, "")
}

func copyRow(F *Matrix, dst []float64, i int) {
	copy(dst, F.RawRowView(i))
}

//Geometry. Indexes refer to vectors in the given matrix.

// Distance returns the euclidean distance between the vectors i and j of coords.
func Distance(coords *Matrix, i, j int) float64 {
	return floats.Distance(coords.RawRowView(i), coords.RawRowView(j), 2)
}

// Angle returns the angle, in radians, formed by the vectors i, j and k of coords,
// with j at the vertex.
func Angle(coords *Matrix, i, j, k int) float64 {
	v1 := Zeros(1)
	v2 := Zeros(1)
	v1.SubVec(coords, i, j)
	v2.SubVec(coords, k, j)
	norms := v1.Norm() * v2.Norm()
	if norms == 0 {
		return 0
	}
	cos := v1.Dot(v2) / norms
	//floating point noise can take us slightly out of [-1,1]
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

// Dihedral returns the dihedral angle, in radians and in the [-pi,pi] range,
// defined by the vectors a, b, c and d of coords.
func Dihedral(coords *Matrix, a, b, c, d int) float64 {
	//bma=b minus a
	bma := Zeros(1)
	cmb := Zeros(1)
	dmc := Zeros(1)
	bma.SubVec(coords, b, a)
	cmb.SubVec(coords, c, b)
	dmc.SubVec(coords, d, c)
	bmascaled := Zeros(1)
	bmascaled.Scale(cmb.Norm(), bma)
	v1 := Zeros(1)
	v2 := Zeros(1)
	v1.Cross(bma, cmb)
	v2.Cross(cmb, dmc)
	first := bmascaled.Dot(v2)
	second := v1.Dot(v2)
	return math.Atan2(first, second)
}
