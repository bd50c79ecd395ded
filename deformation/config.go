package deformation

import (
	"log/slog"

	"github.com/notargets/godeform/utils"
)

// Config carries every threshold explicitly; nothing is read from package state.
type Config struct {
	DegenerateTolerance float64 // face normal magnitude at or below this is degenerate
	SingularTolerance   float64 // |det| of an edge matrix at or below this is singular
	ParallelDegree      int     // number of go routines for per-triangle assembly
	PinTranslation      bool    // carry the source centroid displacement onto the target
	Solver              utils.LSQRSettings
	Logger              *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		DegenerateTolerance: utils.NODETOL,
		SingularTolerance:   utils.SINGULARTOL,
		ParallelDegree:      utils.DefaultParallelDegree(),
		PinTranslation:      true,
		Solver:              utils.DefaultLSQRSettings(),
	}
}

func (cfg Config) logger() *slog.Logger {
	if cfg.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return cfg.Logger
}

func (cfg Config) partitions(K int) *utils.PartitionMap {
	return utils.NewPartitionMap(cfg.ParallelDegree, K)
}
