// Package advisor suggests how much of a bankroll to put in given a win
// probability and the caller's risk tolerance.
package advisor

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	deep "github.com/patrikeh/go-deep"

	"github.com/lox/pokerequity/internal/fileutil"
)

// Advisor maps (mean win probability, risk tolerance) to a suggested stake
// as a fraction of holdings. Callers clamp negative suggestions to zero.
type Advisor interface {
	Advise(mean, risk float64) float64
}

// Func adapts a plain function to Advisor.
type Func func(mean, risk float64) float64

func (f Func) Advise(mean, risk float64) float64 { return f(mean, risk) }

// Static always suggests the same stake.
type Static float64

func (s Static) Advise(float64, float64) float64 { return float64(s) }

// None suggests nothing. It is used when no model is configured.
var None Advisor = Static(0)

// Network is a feed-forward network with two inputs (mean, risk) and one
// output (stake fraction).
type Network struct {
	mu  sync.Mutex
	net *deep.Neural
}

// Parse reads a network from the JSON produced by deep.Neural.Marshal.
func Parse(data []byte) (*Network, error) {
	net, err := deep.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode advisor model: %w", err)
	}
	if net.Config == nil || net.Config.Inputs != 2 {
		return nil, errors.New("advisor model must take exactly two inputs (mean, risk)")
	}
	if layout := net.Config.Layout; len(layout) == 0 || layout[len(layout)-1] != 1 {
		return nil, errors.New("advisor model must have a single output")
	}
	return &Network{net: net}, nil
}

// Load reads a network dump from path.
func Load(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read advisor model: %w", err)
	}
	return Parse(data)
}

// NewNetwork wraps an in-memory network.
func NewNetwork(net *deep.Neural) *Network {
	return &Network{net: net}
}

// Save writes the network to path in the format Load reads.
func (n *Network) Save(path string) error {
	n.mu.Lock()
	data, err := n.net.Marshal()
	n.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode advisor model: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// Advise runs the network forward. Prediction mutates neuron state, so calls
// are serialized.
func (n *Network) Advise(mean, risk float64) float64 {
	n.mu.Lock()
	out := n.net.Predict([]float64{mean, risk})
	n.mu.Unlock()
	if len(out) == 0 || math.IsNaN(out[0]) {
		return 0
	}
	return out[0]
}

var (
	loadMu sync.Mutex
	loaded = map[string]*Network{}
)

// LoadOnce returns the network at path, reading it only the first time a
// given path is requested in this process. An empty path returns None.
func LoadOnce(path string) (Advisor, error) {
	if path == "" {
		return None, nil
	}
	loadMu.Lock()
	defer loadMu.Unlock()
	if n, ok := loaded[path]; ok {
		return n, nil
	}
	n, err := Load(path)
	if err != nil {
		return nil, err
	}
	loaded[path] = n
	return n, nil
}
