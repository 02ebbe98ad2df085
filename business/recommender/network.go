package recommender

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	activationReLU    = "relu"
	activationSigmoid = "sigmoid"

	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// DenseLayer is a fully connected layer; Weights is out x in.
type DenseLayer struct {
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation string      `json:"activation"`
}

func (l DenseLayer) in() int  { return len(l.Weights[0]) }
func (l DenseLayer) out() int { return len(l.Weights) }

// Network is a small feed-forward regressor: ReLU hidden layers and a
// single sigmoid output neuron.
type Network struct {
	Layers []DenseLayer `json:"layers"`
}

// newNetwork builds layers of the given sizes (input first) with He
// initialisation for ReLU layers and Xavier for the sigmoid output.
func newNetwork(sizes []int, rng *rand.Rand) *Network {
	n := &Network{Layers: make([]DenseLayer, 0, len(sizes)-1)}
	for l := 0; l < len(sizes)-1; l++ {
		in, out := sizes[l], sizes[l+1]
		act := activationReLU
		std := math.Sqrt(2.0 / float64(in))
		if l == len(sizes)-2 {
			act = activationSigmoid
			std = math.Sqrt(1.0 / float64(in))
		}

		w := make([][]float64, out)
		for i := range w {
			w[i] = make([]float64, in)
			for j := range w[i] {
				w[i][j] = rng.NormFloat64() * std
			}
		}
		n.Layers = append(n.Layers, DenseLayer{
			Weights:    w,
			Biases:     make([]float64, out),
			Activation: act,
		})
	}
	return n
}

// validate checks the network maps inputWidth features to one output.
func (n *Network) validate(inputWidth int) error {
	if n == nil || len(n.Layers) == 0 {
		return fmt.Errorf("network has no layers")
	}
	width := inputWidth
	for i, l := range n.Layers {
		if len(l.Weights) == 0 || len(l.Weights) != len(l.Biases) {
			return fmt.Errorf("layer %d: weights/biases mismatch", i)
		}
		for _, row := range l.Weights {
			if len(row) != width {
				return fmt.Errorf("layer %d: expected input width %d, got %d", i, width, len(row))
			}
		}
		if l.Activation != activationReLU && l.Activation != activationSigmoid {
			return fmt.Errorf("layer %d: unknown activation %q", i, l.Activation)
		}
		width = l.out()
	}
	if width != 1 {
		return fmt.Errorf("network output width %d, want 1", width)
	}
	return nil
}

// forward returns the activations of every layer; acts[0] is the input.
func (n *Network) forward(x []float64) [][]float64 {
	acts := make([][]float64, len(n.Layers)+1)
	acts[0] = x
	for l, layer := range n.Layers {
		out := make([]float64, layer.out())
		for i, row := range layer.Weights {
			z := layer.Biases[i] + dot(row, acts[l])
			out[i] = activate(layer.Activation, z)
		}
		acts[l+1] = out
	}
	return acts
}

// Predict runs a forward pass and returns the single output in [0,1].
func (n *Network) Predict(x []float64) float64 {
	acts := n.forward(x)
	return acts[len(acts)-1][0]
}

func activate(kind string, z float64) float64 {
	if kind == activationSigmoid {
		return 1 / (1 + math.Exp(-z))
	}
	return math.Max(0, z)
}

// derivative expressed in terms of the activation output a
func activationGrad(kind string, a float64) float64 {
	if kind == activationSigmoid {
		return a * (1 - a)
	}
	if a > 0 {
		return 1
	}
	return 0
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// gradients mirrors the network's parameter shapes.
type gradients struct {
	w [][][]float64
	b [][]float64
}

func zeroGradients(n *Network) *gradients {
	g := &gradients{
		w: make([][][]float64, len(n.Layers)),
		b: make([][]float64, len(n.Layers)),
	}
	for l, layer := range n.Layers {
		g.w[l] = make([][]float64, layer.out())
		for i := range g.w[l] {
			g.w[l][i] = make([]float64, layer.in())
		}
		g.b[l] = make([]float64, layer.out())
	}
	return g
}

func (g *gradients) reset() {
	for l := range g.w {
		for i := range g.w[l] {
			clear(g.w[l][i])
		}
		clear(g.b[l])
	}
}

// backprop accumulates dLoss/dParams for one sample, where the loss is
// scale * (prediction - target)^2. It returns the squared error.
func (n *Network) backprop(x []float64, target, scale float64, g *gradients) float64 {
	acts := n.forward(x)
	last := len(n.Layers) - 1
	pred := acts[last+1][0]
	diff := pred - target

	delta := []float64{2 * diff * scale * activationGrad(n.Layers[last].Activation, pred)}

	for l := last; l >= 0; l-- {
		layer := n.Layers[l]
		input := acts[l]
		for i := range layer.Weights {
			g.b[l][i] += delta[i]
			for j, a := range input {
				g.w[l][i][j] += delta[i] * a
			}
		}
		if l == 0 {
			break
		}

		prevAct := n.Layers[l-1].Activation
		next := make([]float64, layer.in())
		for j := range next {
			sum := 0.0
			for i, row := range layer.Weights {
				sum += row[j] * delta[i]
			}
			next[j] = sum * activationGrad(prevAct, input[j])
		}
		delta = next
	}

	return diff * diff
}

// adam holds first and second moment estimates per parameter.
type adam struct {
	lr   float64
	step int
	m    *gradients
	v    *gradients
}

func newAdam(n *Network, lr float64) *adam {
	return &adam{lr: lr, m: zeroGradients(n), v: zeroGradients(n)}
}

func (o *adam) apply(n *Network, g *gradients) {
	o.step++
	c1 := 1 - math.Pow(adamBeta1, float64(o.step))
	c2 := 1 - math.Pow(adamBeta2, float64(o.step))

	update := func(param *float64, grad float64, m, v *float64) {
		*m = adamBeta1*(*m) + (1-adamBeta1)*grad
		*v = adamBeta2*(*v) + (1-adamBeta2)*grad*grad
		mHat := *m / c1
		vHat := *v / c2
		*param -= o.lr * mHat / (math.Sqrt(vHat) + adamEpsilon)
	}

	for l := range n.Layers {
		layer := &n.Layers[l]
		for i := range layer.Weights {
			for j := range layer.Weights[i] {
				update(&layer.Weights[i][j], g.w[l][i][j], &o.m.w[l][i][j], &o.v.w[l][i][j])
			}
			update(&layer.Biases[i], g.b[l][i], &o.m.b[l][i], &o.v.b[l][i])
		}
	}
}
