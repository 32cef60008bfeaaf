package distributed

import (
	"context"

	"github.com/notargets/BEMKernel/assembly"
	"github.com/notargets/BEMKernel/element"
	"github.com/notargets/BEMKernel/grid"
	"github.com/notargets/BEMKernel/partitions"
	"github.com/notargets/BEMKernel/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Ranks    int
	Strategy partitions.PartitionStrategy
	Options  assembly.Options // Per rank assembly options
}

// AssembleRank assembles the singular rows of the owned cells of r in its
// local numbering
func AssembleRank[T utils.Scalar](ctx context.Context, r *Rank, a *assembly.Assembler[T]) (Part[T], error) {
	m, err := a.AssembleSingularCells(ctx, r.Space, r.Space, r.Owned)
	if err != nil {
		return Part[T]{}, err
	}
	return Part[T]{Report: r.Report(), Matrix: m}, nil
}

// AssembleSingular runs the singular assembly of an operator on cfg.Ranks
// concurrent ranks. Every rank numbers its dofs on its own; the numbering is
// reconciled from the rank reports before any matrix entry is merged.
func AssembleSingular[T utils.Scalar](ctx context.Context, g grid.Grid, family element.LagrangeFamily,
	pde assembly.PDE, op assembly.Operator, cfg Config) (*assembly.Triplets[T], *Numbering, error) {
	a, err := assembly.NewAssemblerFor[T](pde, op, cfg.Options)
	if err != nil {
		return nil, nil, err
	}
	d, err := Decompose(g, cfg.Ranks, cfg.Strategy)
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.Options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("decomposed grid",
		zap.Int("ranks", d.NumRanks()),
		zap.Stringer("strategy", cfg.Strategy),
		zap.Float64("imbalance", d.Layout.PartitionStatistics().Imbalance))

	parts := make([]Part[T], d.NumRanks())
	eg, gctx := errgroup.WithContext(ctx)
	for p := range parts {
		p := p
		eg.Go(func() error {
			r, err := d.NewRank(p, family)
			if err != nil {
				return err
			}
			parts[p], err = AssembleRank(gctx, r, a)
			return err
		})
	}
	if err = eg.Wait(); err != nil {
		return nil, nil, err
	}

	reports := make([]DofReport, len(parts))
	for p := range parts {
		reports[p] = parts[p].Report
	}
	n, err := Reconcile(reports)
	if err != nil {
		return nil, nil, err
	}
	out, err := Merge(n, parts, logger)
	if err != nil {
		return nil, nil, err
	}
	return out, n, nil
}
