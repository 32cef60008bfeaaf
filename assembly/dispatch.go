package assembly

import (
	"context"
	"fmt"

	"github.com/notargets/BEMKernel/kernel"
	"github.com/notargets/BEMKernel/space"
	"github.com/notargets/BEMKernel/utils"
)

type PDEKind uint8

const (
	LaplacePDE PDEKind = iota
	HelmholtzPDE
)

func (p PDEKind) String() string {
	switch p {
	case LaplacePDE:
		return "Laplace"
	case HelmholtzPDE:
		return "Helmholtz"
	default:
		return fmt.Sprintf("PDEKind(%d)", uint8(p))
	}
}

// PDE names the equation whose Green's function defines the operators
type PDE struct {
	Kind       PDEKind
	Wavenumber float64 // Helmholtz only
}

func Laplace() PDE                     { return PDE{Kind: LaplacePDE} }
func Helmholtz(wavenumber float64) PDE { return PDE{Kind: HelmholtzPDE, Wavenumber: wavenumber} }

func (p PDE) String() string {
	if p.Kind == HelmholtzPDE {
		return fmt.Sprintf("Helmholtz(k=%g)", p.Wavenumber)
	}
	return p.Kind.String()
}

// Operator is a boundary integral operator
type Operator uint8

const (
	SingleLayer Operator = iota
	DoubleLayer
	AdjointDoubleLayer
	Hypersingular
	ElectricField
	MagneticField
)

func (o Operator) String() string {
	switch o {
	case SingleLayer:
		return "SingleLayer"
	case DoubleLayer:
		return "DoubleLayer"
	case AdjointDoubleLayer:
		return "AdjointDoubleLayer"
	case Hypersingular:
		return "Hypersingular"
	case ElectricField:
		return "ElectricField"
	case MagneticField:
		return "MagneticField"
	default:
		return fmt.Sprintf("Operator(%d)", uint8(o))
	}
}

// Dispatch is the resolved recipe of a (PDE, operator) combination
type Dispatch struct {
	PDE              PDE
	Operator         Operator
	Variant          kernel.Variant // Kernel evaluated at the point pairs
	Integrand        Integrand
	NeedsTrialNormal bool
	NeedsTestNormal  bool
}

type dispatchKey struct {
	pde PDEKind
	op  Operator
}

var dispatchTable = map[dispatchKey]Dispatch{
	{LaplacePDE, SingleLayer}:          {Variant: kernel.SingleLayer, Integrand: KernelIntegrand},
	{LaplacePDE, DoubleLayer}:          {Variant: kernel.DoubleLayer, Integrand: KernelIntegrand, NeedsTrialNormal: true},
	{LaplacePDE, AdjointDoubleLayer}:   {Variant: kernel.AdjointDoubleLayer, Integrand: KernelIntegrand, NeedsTestNormal: true},
	{LaplacePDE, Hypersingular}:        {Variant: kernel.SingleLayer, Integrand: HypersingularIntegrand},
	{HelmholtzPDE, SingleLayer}:        {Variant: kernel.SingleLayer, Integrand: KernelIntegrand},
	{HelmholtzPDE, DoubleLayer}:        {Variant: kernel.DoubleLayer, Integrand: KernelIntegrand, NeedsTrialNormal: true},
	{HelmholtzPDE, AdjointDoubleLayer}: {Variant: kernel.AdjointDoubleLayer, Integrand: KernelIntegrand, NeedsTestNormal: true},
	{HelmholtzPDE, Hypersingular}:      {Variant: kernel.SingleLayer, Integrand: HypersingularIntegrand, NeedsTrialNormal: true, NeedsTestNormal: true},
}

// Resolve looks up the recipe of a (PDE, operator) combination. Combinations
// without a kernel are configuration errors.
func Resolve(pde PDE, op Operator) (Dispatch, error) {
	d, ok := dispatchTable[dispatchKey{pde.Kind, op}]
	if !ok {
		return Dispatch{}, fmt.Errorf("%w: %v has no %v operator", ErrConfiguration, pde.Kind, op)
	}
	if pde.Kind == HelmholtzPDE && !(pde.Wavenumber > 0) {
		return Dispatch{}, fmt.Errorf("%w: Helmholtz wavenumber must be positive, got %g", ErrConfiguration, pde.Wavenumber)
	}
	d.PDE, d.Operator = pde, op
	return d, nil
}

// NewAssemblerFor builds the assembler of a (PDE, operator) combination in
// the scalar type T. Helmholtz operators are complex and cannot be assembled
// into real outputs.
func NewAssemblerFor[T utils.Scalar](pde PDE, op Operator, opts Options) (*Assembler[T], error) {
	d, err := Resolve(pde, op)
	if err != nil {
		return nil, err
	}
	var k kernel.Kernel[T]
	switch pde.Kind {
	case LaplacePDE:
		lk := kernel.NewLaplace[T](d.Variant)
		lk.SetTolerance(opts.CoincidenceTolerance)
		k = lk
	case HelmholtzPDE:
		hk := kernel.NewHelmholtz(d.Variant, pde.Wavenumber)
		hk.SetTolerance(opts.CoincidenceTolerance)
		var ok bool
		if k, ok = any(hk).(kernel.Kernel[T]); !ok {
			return nil, fmt.Errorf("%w: %v %v is complex valued, output is real", ErrConfiguration, pde, op)
		}
	}
	return NewAssembler(k, d.Integrand, pde.Wavenumber, opts), nil
}

// NewLaplaceAssembler builds a Laplace operator assembler
func NewLaplaceAssembler[T utils.Scalar](op Operator, opts Options) (*Assembler[T], error) {
	return NewAssemblerFor[T](Laplace(), op, opts)
}

// NewHelmholtzAssembler builds a Helmholtz operator assembler for wavenumber k
func NewHelmholtzAssembler(op Operator, k float64, opts Options) (*Assembler[complex128], error) {
	return NewAssemblerFor[complex128](Helmholtz(k), op, opts)
}

// AssembleDense is the single-shot entry: resolve the operator, then add its
// matrix into out. Options default to DefaultOptions.
func AssembleDense[T utils.Scalar](ctx context.Context, out Matrix[T], op Operator, pde PDE,
	trial, test space.FunctionSpace, opts ...Options) error {
	o := DefaultOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	a, err := NewAssemblerFor[T](pde, op, o)
	if err != nil {
		return err
	}
	return a.AssembleIntoDense(ctx, out, trial, test)
}
