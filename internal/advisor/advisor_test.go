package advisor

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	deep "github.com/patrikeh/go-deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNet(inputs int) *deep.Neural {
	return deep.NewNeural(&deep.Config{
		Inputs:     inputs,
		Layout:     []int{3, 1},
		Activation: deep.ActivationSigmoid,
		Mode:       deep.ModeRegression,
		Weight:     deep.NewNormal(1.0, 0.0),
	})
}

func TestStaticAndFunc(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, None.Advise(0.9, 0.5))
	assert.Equal(t, 0.25, Static(0.25).Advise(0.1, 0.1))

	f := Func(func(mean, risk float64) float64 { return mean * risk })
	assert.InDelta(t, 0.35, f.Advise(0.7, 0.5), 1e-12)
}

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()
	net := newTestNet(2)
	data, err := net.Marshal()
	require.NoError(t, err)

	adv, err := Parse(data)
	require.NoError(t, err)

	for _, in := range [][2]float64{{0.1, 0.5}, {0.7, 0.2}, {0.95, 0.9}} {
		want := net.Predict([]float64{in[0], in[1]})[0]
		assert.InDelta(t, want, adv.Advise(in[0], in[1]), 1e-9)
	}
}

func TestParseRejectsWrongShape(t *testing.T) {
	t.Parallel()
	data, err := newTestNet(3).Marshal()
	require.NoError(t, err)

	_, err = Parse(data)
	assert.ErrorContains(t, err, "two inputs")

	_, err = Parse([]byte("not json"))
	assert.Error(t, err)
}

func TestLoadOnceCachesByPath(t *testing.T) {
	t.Parallel()
	data, err := newTestNet(2).Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "advisor.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	var wg sync.WaitGroup
	got := make([]Advisor, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := LoadOnce(path)
			assert.NoError(t, err)
			got[i] = a
		}()
	}
	wg.Wait()
	for _, a := range got[1:] {
		assert.Same(t, got[0], a)
	}

	require.NoError(t, os.Remove(path))
	again, err := LoadOnce(path)
	require.NoError(t, err)
	assert.Same(t, got[0], again)

	empty, err := LoadOnce("")
	require.NoError(t, err)
	assert.Equal(t, None, empty)

	_, err = LoadOnce(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()
	adv := NewNetwork(newTestNet(2))
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, adv.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, adv.Advise(0.7, 0.2), loaded.Advise(0.7, 0.2), 1e-12)
}

func TestNetworkIsSafeForConcurrentUse(t *testing.T) {
	t.Parallel()
	adv := NewNetwork(newTestNet(2))
	want := adv.Advise(0.6, 0.4)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				assert.InDelta(t, want, adv.Advise(0.6, 0.4), 1e-12)
			}
		}()
	}
	wg.Wait()
}
