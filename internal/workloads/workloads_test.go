package workloads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/taskgraph/internal/adapters/tasksys"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"chain", "fanin", "mandelbrot", "spin", "sqrt"}, Names())
}

func TestNewRejectsUnknownAndBadSize(t *testing.T) {
	_, err := New("raytrace", 10)
	assert.ErrorContains(t, err, "unknown workload")
	_, err = New("spin", 0)
	assert.ErrorContains(t, err, "size must be positive")
}

func TestWorkloadsVerifyUnderEveryStrategy(t *testing.T) {
	sizes := map[string]int{"mandelbrot": 40, "sqrt": 4, "spin": 16, "chain": 32, "fanin": 100}
	for _, name := range Names() {
		w, err := New(name, sizes[name])
		require.NoError(t, err)
		for _, kind := range tasksys.Kinds() {
			t.Run(name+"/"+string(kind), func(t *testing.T) {
				ts, err := tasksys.New(kind, 4)
				require.NoError(t, err)
				defer ts.Close()

				w.Reset()
				w.Run(ts)
				require.NoError(t, w.Verify())
			})
		}
	}
}

func TestVerifyDetectsMissingWork(t *testing.T) {
	for _, name := range Names() {
		w, err := New(name, 8)
		require.NoError(t, err)
		w.Reset()
		assert.Error(t, w.Verify(), name)
	}
}

func TestChainGroups(t *testing.T) {
	c := NewChain(4, 50)
	assert.Equal(t, 54, c.Groups())

	ts, err := tasksys.NewSleeping(4)
	require.NoError(t, err)
	defer ts.Close()

	c.Run(ts)
	require.NoError(t, c.Verify())
	assert.Len(t, ts.Snapshot(), 54)
}
