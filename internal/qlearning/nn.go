package qlearning

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/att-innovate/rainman2/internal/cellular"
)

// Adam hyperparameters, the usual defaults.
const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// NNConfig sizes the neural-network function approximator.
type NNConfig struct {
	L1HiddenUnits int
	L2HiddenUnits int
	LearningRate  float64
	Seed          int64
}

// NN approximates Q with a two-hidden-layer relu MLP whose output
// layer has one linear head per action, trained with MSE on the TD
// target and the Adam optimizer. A second, single-head MLP scores
// handoff candidates.
type NN struct {
	qNet  *mlp
	apNet *mlp

	seenStates   map[cellular.NetworkState]struct{}
	seenAPStates map[cellular.UEAPState]struct{}
}

// NewNN builds the neural-network agent.
func NewNN(cfg NNConfig) *NN {
	rng := rand.New(rand.NewSource(cfg.Seed))
	return &NN{
		qNet: newMLP(
			[]int{cellular.StateDim, cfg.L1HiddenUnits, cfg.L2HiddenUnits,
				cellular.NumActions},
			cfg.LearningRate, rng),
		apNet: newMLP(
			[]int{cellular.APStateDim, cfg.L1HiddenUnits, cfg.L2HiddenUnits, 1},
			cfg.LearningRate, rng),
		seenStates:   make(map[cellular.NetworkState]struct{}),
		seenAPStates: make(map[cellular.UEAPState]struct{}),
	}
}

func (a *NN) Name() string { return AgentNN }

func (a *NN) QValues(state cellular.NetworkState) []float64 {
	return a.qNet.predict(state.Vector())
}

func (a *NN) Learn(state cellular.NetworkState, action cellular.Action, target float64) {
	a.seenStates[state] = struct{}{}
	a.qNet.update(state.Vector(), int(action), target)
}

func (a *NN) APValue(state cellular.UEAPState) float64 {
	return a.apNet.predict(state.Vector())[0]
}

func (a *NN) LearnAP(state cellular.UEAPState, reward float64) {
	a.seenAPStates[state] = struct{}{}
	a.apNet.update(state.Vector(), 0, reward)
}

func (a *NN) States() int   { return len(a.seenStates) }
func (a *NN) APStates() int { return len(a.seenAPStates) }

// mlp is a fully connected relu network with a linear output layer.
// Layer i maps layers[i] inputs to layers[i+1] outputs.
type mlp struct {
	layers []int
	w      []*mat.Dense
	b      []*mat.VecDense

	// Adam state, same shapes as w and b.
	mw, vw []*mat.Dense
	mb, vb []*mat.VecDense
	step   int

	lr float64
}

func newMLP(layers []int, lr float64, rng *rand.Rand) *mlp {
	n := len(layers) - 1
	net := &mlp{
		layers: layers,
		w:      make([]*mat.Dense, n),
		b:      make([]*mat.VecDense, n),
		mw:     make([]*mat.Dense, n),
		vw:     make([]*mat.Dense, n),
		mb:     make([]*mat.VecDense, n),
		vb:     make([]*mat.VecDense, n),
		lr:     lr,
	}
	for i := 0; i < n; i++ {
		rows, cols := layers[i+1], layers[i]
		data := make([]float64, rows*cols)
		// He initialization suits relu layers.
		scale := math.Sqrt(2 / float64(cols))
		for j := range data {
			data[j] = rng.NormFloat64() * scale
		}
		net.w[i] = mat.NewDense(rows, cols, data)
		net.b[i] = mat.NewVecDense(rows, nil)
		net.mw[i] = mat.NewDense(rows, cols, nil)
		net.vw[i] = mat.NewDense(rows, cols, nil)
		net.mb[i] = mat.NewVecDense(rows, nil)
		net.vb[i] = mat.NewVecDense(rows, nil)
	}
	return net
}

// forward runs the network, returning the pre-activation and
// post-activation vectors of every layer. activations[0] is the
// input.
func (n *mlp) forward(input []float64) (pre, activations []*mat.VecDense) {
	activations = make([]*mat.VecDense, len(n.w)+1)
	pre = make([]*mat.VecDense, len(n.w))
	activations[0] = mat.NewVecDense(len(input), append([]float64(nil), input...))

	for i := range n.w {
		z := mat.NewVecDense(n.layers[i+1], nil)
		z.MulVec(n.w[i], activations[i])
		z.AddVec(z, n.b[i])
		pre[i] = z

		a := mat.NewVecDense(z.Len(), nil)
		if i == len(n.w)-1 {
			// Linear output layer.
			a.CopyVec(z)
		} else {
			for j := 0; j < z.Len(); j++ {
				a.SetVec(j, math.Max(0, z.AtVec(j)))
			}
		}
		activations[i+1] = a
	}
	return pre, activations
}

func (n *mlp) predict(input []float64) []float64 {
	_, activations := n.forward(input)
	out := activations[len(activations)-1]
	values := make([]float64, out.Len())
	copy(values, out.RawVector().Data)
	return values
}

// update performs one SGD-with-Adam step pushing output head toward
// target; the other heads contribute no gradient.
func (n *mlp) update(input []float64, head int, target float64) {
	pre, activations := n.forward(input)
	last := len(n.w) - 1

	// MSE gradient at the selected head only.
	out := activations[len(activations)-1]
	delta := mat.NewVecDense(out.Len(), nil)
	delta.SetVec(head, out.AtVec(head)-target)

	n.step++
	for i := last; i >= 0; i-- {
		// Weight and bias gradients for layer i.
		gw := mat.NewDense(n.layers[i+1], n.layers[i], nil)
		gw.Outer(1, delta, activations[i])
		n.adamStep(n.w[i], gw, n.mw[i], n.vw[i])
		n.adamStepVec(n.b[i], delta, n.mb[i], n.vb[i])

		if i == 0 {
			break
		}
		// Backpropagate through layer i's weights and the previous
		// layer's relu.
		next := mat.NewVecDense(n.layers[i], nil)
		next.MulVec(n.w[i].T(), delta)
		for j := 0; j < next.Len(); j++ {
			if pre[i-1].AtVec(j) <= 0 {
				next.SetVec(j, 0)
			}
		}
		delta = next
	}
}

func adamScale(step int) (float64, float64) {
	c1 := 1 - math.Pow(adamBeta1, float64(step))
	c2 := 1 - math.Pow(adamBeta2, float64(step))
	return c1, c2
}

func (n *mlp) adamStep(w, grad, m, v *mat.Dense) {
	c1, c2 := adamScale(n.step)
	rows, cols := w.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g := grad.At(r, c)
			mHat := adamBeta1*m.At(r, c) + (1-adamBeta1)*g
			vHat := adamBeta2*v.At(r, c) + (1-adamBeta2)*g*g
			m.Set(r, c, mHat)
			v.Set(r, c, vHat)
			w.Set(r, c, w.At(r, c)-
				n.lr*(mHat/c1)/(math.Sqrt(vHat/c2)+adamEpsilon))
		}
	}
}

func (n *mlp) adamStepVec(b, grad, m, v *mat.VecDense) {
	c1, c2 := adamScale(n.step)
	for i := 0; i < b.Len(); i++ {
		g := grad.AtVec(i)
		mHat := adamBeta1*m.AtVec(i) + (1-adamBeta1)*g
		vHat := adamBeta2*v.AtVec(i) + (1-adamBeta2)*g*g
		m.SetVec(i, mHat)
		v.SetVec(i, vHat)
		b.SetVec(i, b.AtVec(i)-
			n.lr*(mHat/c1)/(math.Sqrt(vHat/c2)+adamEpsilon))
	}
}
