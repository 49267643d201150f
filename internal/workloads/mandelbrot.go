package workloads

import (
	"fmt"
	"slices"

	"github.com/ZanzyTHEbar/taskgraph/internal/ports"
)

const mandelbrotIterations = 256

// Mandelbrot renders the escape-time image of the Mandelbrot set over
// [-2,1] x [-1,1]. Subtask i of n renders rows i, i+n, i+2n, ... so that
// expensive rows near the set are spread across workers.
type Mandelbrot struct {
	width, height int
	tasks         int
	output        []int
	reference     []int
}

// NewMandelbrot creates an image of size rows and 3/2*size columns.
func NewMandelbrot(size int) *Mandelbrot {
	m := &Mandelbrot{
		width:  max(1, size*3/2),
		height: size,
		tasks:  min(size, 64),
	}
	m.output = make([]int, m.width*m.height)
	return m
}

func (m *Mandelbrot) Name() string { return "mandelbrot" }

func (m *Mandelbrot) Groups() int { return 1 }

func (m *Mandelbrot) Reset() { clear(m.output) }

func (m *Mandelbrot) Run(ts ports.TaskSystem) {
	ts.Run(m, m.tasks)
}

// RunTask renders every n-th row starting at row i.
func (m *Mandelbrot) RunTask(i, n int) {
	m.renderRows(m.output, i, n)
}

func (m *Mandelbrot) renderRows(out []int, start, step int) {
	const x0, x1, y0, y1 = float32(-2), float32(1), float32(-1), float32(1)
	dx := (x1 - x0) / float32(m.width)
	dy := (y1 - y0) / float32(m.height)
	for row := start; row < m.height; row += step {
		for col := 0; col < m.width; col++ {
			x := x0 + float32(col)*dx
			y := y0 + float32(row)*dy
			out[row*m.width+col] = escapeTime(x, y, mandelbrotIterations)
		}
	}
}

func escapeTime(cRe, cIm float32, limit int) int {
	zRe, zIm := cRe, cIm
	for i := 0; i < limit; i++ {
		if zRe*zRe+zIm*zIm > 4 {
			return i
		}
		re := zRe*zRe - zIm*zIm
		im := 2 * zRe * zIm
		zRe = cRe + re
		zIm = cIm + im
	}
	return limit
}

func (m *Mandelbrot) Verify() error {
	if m.reference == nil {
		m.reference = make([]int, len(m.output))
		m.renderRows(m.reference, 0, 1)
	}
	if i := firstMismatch(m.output, m.reference); i >= 0 {
		return fmt.Errorf("mandelbrot: pixel (%d,%d) = %d, want %d",
			i%m.width, i/m.width, m.output[i], m.reference[i])
	}
	return nil
}

func firstMismatch[T comparable](got, want []T) int {
	if slices.Equal(got, want) {
		return -1
	}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			return i
		}
	}
	return len(want)
}
