// Package mat4 implements column-major 4x4 transform matrices as used by
// the render pipeline. Element (row, col) lives at index col*4+row,
// matching the layout GPU APIs consume directly.
package mat4

// Mat4 is a column-major 4x4 matrix.
type Mat4 [16]float64

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Multiply returns a*b, so that the resulting transform applies b first.
func Multiply(a, b Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// Translate returns a translation by (x, y, z).
func Translate(x, y, z float64) Mat4 {
	m := Identity()
	m[12] = x
	m[13] = y
	m[14] = z
	return m
}

// Scale returns a scale by (x, y, z) about the origin.
func Scale(x, y, z float64) Mat4 {
	m := Identity()
	m[0] = x
	m[5] = y
	m[10] = z
	return m
}

// InvertRigid inverts a rigid transform (rotation plus translation).
// The upper-left 3x3 block is transposed and the translation is rotated
// back; scale or shear in m yields an undefined result.
func InvertRigid(m Mat4) Mat4 {
	out := Identity()
	// Transpose rotation.
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			out[col*4+row] = m[row*4+col]
		}
	}
	// t' = -R^T * t
	tx, ty, tz := m[12], m[13], m[14]
	out[12] = -(out[0]*tx + out[4]*ty + out[8]*tz)
	out[13] = -(out[1]*tx + out[5]*ty + out[9]*tz)
	out[14] = -(out[2]*tx + out[6]*ty + out[10]*tz)
	return out
}
