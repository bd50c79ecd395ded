package laplacian

import (
	"log/slog"

	"github.com/notargets/godeform/utils"
)

// Config carries the anchor weight and solver thresholds of an edit.
type Config struct {
	AnchorWeight        float64
	DegenerateTolerance float64
	ParallelDegree      int
	Solver              utils.LSQRSettings
	Logger              *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		AnchorWeight:        1,
		DegenerateTolerance: utils.NODETOL,
		ParallelDegree:      utils.DefaultParallelDegree(),
		Solver:              utils.DefaultLSQRSettings(),
	}
}

func (cfg Config) logger() *slog.Logger {
	if cfg.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return cfg.Logger
}
