package math

import "math/rand"

// Grid generates size x size points on a 2 dimensional grid with the given step,
// starting at the given offset.
func Grid(x, y float64, size int, step float64) [][]float64 {
	xx := make([][]float64, 0, size*size)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			xx = append(xx, []float64{x + float64(i)*step, y + float64(j)*step})
		}
	}
	return xx
}

// Cloud generates n points normally distributed around the center.
func Cloud(rng *rand.Rand, center []float64, n int, spread float64) [][]float64 {
	xx := make([][]float64, n)
	for i := range xx {
		p := make([]float64, len(center))
		for j, c := range center {
			p[j] = c + rng.NormFloat64()*spread
		}
		xx[i] = p
	}
	return xx
}

// Repeat repeats the same point n times.
func Repeat(point []float64, n int) [][]float64 {
	xx := make([][]float64, n)
	for i := range xx {
		xx[i] = append([]float64{}, point...)
	}
	return xx
}
