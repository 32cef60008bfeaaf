package assembly

import (
	"fmt"
	"os"
	"runtime"

	"github.com/notargets/BEMKernel/kernel"
	"github.com/notargets/BEMKernel/quadrature"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Options configures quadrature orders and the worker fan-out of an
// assembly call
type Options struct {
	RegularOrder         int                      `yaml:"regular_order"`  // Points per direction on disjoint pairs
	SingularOrder        quadrature.SingularOrder `yaml:"singular_order"` // Points per direction of the 4D singular rules
	BatchSize            int                      `yaml:"batch_size"`     // Cell pairs per kernel call
	Workers              int                      `yaml:"workers"`
	CoincidenceTolerance float64                  `yaml:"coincidence_tolerance"`

	Logger *zap.Logger `yaml:"-"`
}

func DefaultOptions() Options {
	return Options{
		RegularOrder:         6,
		SingularOrder:        quadrature.SingularOrder{Vertex: 4, Edge: 4, Identical: 4},
		BatchSize:            128,
		Workers:              runtime.NumCPU(),
		CoincidenceTolerance: kernel.DefaultTolerance,
		Logger:               zap.NewNop(),
	}
}

// LoadOptions reads options from a YAML file on top of the defaults
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read options: %w", err)
	}
	if err = yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse options: %w: %w", ErrConfiguration, err)
	}
	return opts, opts.Validate()
}

func (o Options) Validate() error {
	switch {
	case o.RegularOrder < 1:
		return fmt.Errorf("%w: regular order %d", ErrConfiguration, o.RegularOrder)
	case o.SingularOrder.Vertex < 1 || o.SingularOrder.Edge < 1 || o.SingularOrder.Identical < 1:
		return fmt.Errorf("%w: singular orders %+v", ErrConfiguration, o.SingularOrder)
	case o.BatchSize < 1:
		return fmt.Errorf("%w: batch size %d", ErrConfiguration, o.BatchSize)
	case o.Workers < 1:
		return fmt.Errorf("%w: %d workers", ErrConfiguration, o.Workers)
	case !(o.CoincidenceTolerance > 0):
		return fmt.Errorf("%w: coincidence tolerance %g", ErrConfiguration, o.CoincidenceTolerance)
	}
	return nil
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
