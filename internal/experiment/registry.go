package experiment

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Function is a synthetic simulator over the unit hypercube. Eval writes
// Outputs values for input x into out.
type Function struct {
	Name     string
	Doc      string
	Inputs   int
	Outputs  int
	Eval     func(x, out []float64)
	Beta     []float64 // correlation strength per input for the fixed posterior
	InputIDs []string
}

type Registry struct {
	functions map[string]func() Function
}

func NewRegistry() *Registry {
	r := &Registry{
		functions: make(map[string]func() Function),
	}

	r.functions["linear"] = func() Function {
		coef := []float64{1, 0.5, 0.1}
		return Function{
			Name:    "linear",
			Doc:     "x1 + 0.5*x2 + 0.1*x3",
			Inputs:  3,
			Outputs: 1,
			Eval:    func(x, out []float64) { out[0] = floats.Dot(coef, x) },
			Beta:    []float64{0.5, 0.5, 0.5},
		}
	}
	r.functions["additive"] = func() Function {
		return Function{
			Name:    "additive",
			Doc:     "2*x1 + sin(pi*x2)",
			Inputs:  2,
			Outputs: 1,
			Eval: func(x, out []float64) {
				out[0] = 2*x[0] + math.Sin(math.Pi*x[1])
			},
			Beta: []float64{0.5, 3},
		}
	}
	r.functions["ishigami"] = func() Function {
		return Function{
			Name:    "ishigami",
			Doc:     "sin(z1) + 7*sin(z2)^2 + 0.1*z3^4*sin(z1), z = 2*pi*x - pi",
			Inputs:  3,
			Outputs: 1,
			Eval: func(x, out []float64) {
				z := make([]float64, 3)
				for k := range z {
					z[k] = 2*math.Pi*x[k] - math.Pi
				}
				s2 := math.Sin(z[1])
				out[0] = math.Sin(z[0]) + 7*s2*s2 + 0.1*math.Pow(z[2], 4)*math.Sin(z[0])
			},
			Beta: []float64{4, 12, 2},
		}
	}
	r.functions["product"] = func() Function {
		return Function{
			Name:    "product",
			Doc:     "4*(x1-0.5)*(x2-0.5) + 0.2*x3",
			Inputs:  3,
			Outputs: 1,
			Eval: func(x, out []float64) {
				out[0] = 4*(x[0]-0.5)*(x[1]-0.5) + 0.2*x[2]
			},
			Beta: []float64{2, 2, 0.2},
		}
	}
	r.functions["multi"] = func() Function {
		const ell = 12
		return Function{
			Name:    "multi",
			Doc:     "x1*sin(pi*s) + x2^2*cos(pi*s) + 0.2*x3*s over 12 indices s in [0, 1]",
			Inputs:  3,
			Outputs: ell,
			Eval: func(x, out []float64) {
				for j := range out {
					s := float64(j) / float64(ell-1)
					out[j] = x[0]*math.Sin(math.Pi*s) + x[1]*x[1]*math.Cos(math.Pi*s) + 0.2*x[2]*s
				}
			},
			Beta: []float64{0.5, 1.5, 0.2},
		}
	}

	return r
}

func (r *Registry) Get(name string) (Function, error) {
	fn, ok := r.functions[name]
	if !ok {
		return Function{}, fmt.Errorf("unknown function: %s", name)
	}
	f := fn()
	if f.InputIDs == nil {
		f.InputIDs = make([]string, f.Inputs)
		for k := range f.InputIDs {
			f.InputIDs[k] = fmt.Sprintf("x%d", k+1)
		}
	}
	return f, nil
}

// List returns the registered function names in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
