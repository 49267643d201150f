package workloads

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ZanzyTHEbar/taskgraph/internal/ports"
)

const (
	sqrtChunk     = 1024
	sqrtThreshold = float32(0.00001)
)

// Sqrt computes square roots by Newton iteration on 1/sqrt(x), one chunk of
// sqrtChunk elements per subtask. Inputs are drawn from (0, 3), where the
// iteration count varies a lot between elements.
type Sqrt struct {
	values    []float32
	output    []float32
	reference []float32
}

// NewSqrt creates a workload over size*sqrtChunk inputs.
func NewSqrt(size int) *Sqrt {
	rng := rand.New(rand.NewPCG(1, 2))
	values := make([]float32, size*sqrtChunk)
	for i := range values {
		values[i] = 0.001 + 2.998*rng.Float32()
	}
	return &Sqrt{values: values, output: make([]float32, len(values))}
}

func (s *Sqrt) Name() string { return "sqrt" }

func (s *Sqrt) Groups() int { return 1 }

func (s *Sqrt) Reset() { clear(s.output) }

func (s *Sqrt) Run(ts ports.TaskSystem) {
	ts.Run(s, len(s.values)/sqrtChunk)
}

func (s *Sqrt) RunTask(i, _ int) {
	lo := i * sqrtChunk
	newtonSqrt(s.values[lo:lo+sqrtChunk], s.output[lo:lo+sqrtChunk])
}

func newtonSqrt(values, out []float32) {
	for i, x := range values {
		guess := float32(1)
		for abs32(guess*guess*x-1) > sqrtThreshold {
			guess = (3*guess - x*guess*guess*guess) * 0.5
		}
		out[i] = x * guess
	}
}

func abs32(f float32) float32 {
	return math.Float32frombits(math.Float32bits(f) &^ (1 << 31))
}

func (s *Sqrt) Verify() error {
	if s.reference == nil {
		s.reference = make([]float32, len(s.values))
		newtonSqrt(s.values, s.reference)
	}
	if i := firstMismatch(s.output, s.reference); i >= 0 {
		return fmt.Errorf("sqrt: element %d = %v, want %v", i, s.output[i], s.reference[i])
	}
	for i, x := range s.values {
		if d := math.Abs(float64(s.output[i]) - math.Sqrt(float64(x))); d > 1e-3 {
			return fmt.Errorf("sqrt: element %d off by %g", i, d)
		}
	}
	return nil
}
