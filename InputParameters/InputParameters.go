package InputParameters

import (
	"fmt"
	"log/slog"

	"github.com/ghodss/yaml"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/godeform/deformation"
	"github.com/notargets/godeform/laplacian"
	"github.com/notargets/godeform/utils"
)

// LSQR controls shared by both run types
type SolverParameters struct {
	MaxIterations int     `json:"MaxIterations"` // 0 selects max(4*columns, 100)
	ATol          float64 `json:"ATol"`
	BTol          float64 `json:"BTol"`
	ConLim        float64 `json:"ConLim"`
}

func defaultSolver() SolverParameters {
	s := utils.DefaultLSQRSettings()
	return SolverParameters{
		MaxIterations: s.MaxIterations,
		ATol:          s.ATol,
		BTol:          s.BTol,
		ConLim:        s.ConLim,
	}
}

func (sp SolverParameters) Settings() utils.LSQRSettings {
	return utils.LSQRSettings{
		ATol:          sp.ATol,
		BTol:          sp.BTol,
		ConLim:        sp.ConLim,
		MaxIterations: sp.MaxIterations,
	}
}

func (sp SolverParameters) print() {
	fmt.Printf("[%d]\t\t\t\t= Max Iterations\n", sp.MaxIterations)
	fmt.Printf("%8.3e\t\t= ATol\n", sp.ATol)
	fmt.Printf("%8.3e\t\t= BTol\n", sp.BTol)
	fmt.Printf("%8.3e\t\t= ConLim\n", sp.ConLim)
}

// Parameters obtained from the YAML input file of a transfer run
type TransferParameters struct {
	Title               string           `json:"Title"`
	FlipZSource         bool             `json:"FlipZSource"`
	FlipZTarget         bool             `json:"FlipZTarget"`
	PinTranslation      bool             `json:"PinTranslation"`
	DegenerateTolerance float64          `json:"DegenerateTolerance"`
	SingularTolerance   float64          `json:"SingularTolerance"`
	Solver              SolverParameters `json:"Solver"`
}

// NewTransferParameters returns the defaults, any key in a parsed file overrides them.
func NewTransferParameters() *TransferParameters {
	return &TransferParameters{
		Title:               "Deformation Transfer",
		PinTranslation:      true,
		DegenerateTolerance: utils.NODETOL,
		SingularTolerance:   utils.SINGULARTOL,
		Solver:              defaultSolver(),
	}
}

func (ip *TransferParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *TransferParameters) Config(parallelDegree int, logger *slog.Logger) deformation.Config {
	return deformation.Config{
		DegenerateTolerance: ip.DegenerateTolerance,
		SingularTolerance:   ip.SingularTolerance,
		ParallelDegree:      parallelDegree,
		PinTranslation:      ip.PinTranslation,
		Solver:              ip.Solver.Settings(),
		Logger:              logger,
	}
}

func (ip *TransferParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%v]\t\t\t= FlipZ Source\n", ip.FlipZSource)
	fmt.Printf("[%v]\t\t\t= FlipZ Target\n", ip.FlipZTarget)
	fmt.Printf("[%v]\t\t\t= Pin Translation\n", ip.PinTranslation)
	fmt.Printf("%8.3e\t\t= Degenerate Tolerance\n", ip.DegenerateTolerance)
	fmt.Printf("%8.3e\t\t= Singular Tolerance\n", ip.SingularTolerance)
	ip.Solver.print()
}

type AnchorParameters struct {
	Vertex   int        `json:"Vertex"`
	Position [3]float64 `json:"Position"`
}

// Parameters obtained from the YAML input file of an anchor editing run
type LaplaceParameters struct {
	Title               string             `json:"Title"`
	FlipZ               bool               `json:"FlipZ"`
	AnchorWeight        float64            `json:"AnchorWeight"`
	DegenerateTolerance float64            `json:"DegenerateTolerance"`
	Anchors             []AnchorParameters `json:"Anchors"`
	Solver              SolverParameters   `json:"Solver"`
}

func NewLaplaceParameters() *LaplaceParameters {
	return &LaplaceParameters{
		Title:               "Laplacian Editing",
		AnchorWeight:        1,
		DegenerateTolerance: utils.NODETOL,
		Solver:              defaultSolver(),
	}
}

func (ip *LaplaceParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *LaplaceParameters) Config(parallelDegree int, logger *slog.Logger) laplacian.Config {
	return laplacian.Config{
		AnchorWeight:        ip.AnchorWeight,
		DegenerateTolerance: ip.DegenerateTolerance,
		ParallelDegree:      parallelDegree,
		Solver:              ip.Solver.Settings(),
		Logger:              logger,
	}
}

// AnchorList converts the file anchors, negating Z targets when the mesh is flipped.
func (ip *LaplaceParameters) AnchorList() (anchors []laplacian.Anchor) {
	anchors = make([]laplacian.Anchor, len(ip.Anchors))
	for i, a := range ip.Anchors {
		p := r3.Vec{X: a.Position[0], Y: a.Position[1], Z: a.Position[2]}
		if ip.FlipZ {
			p.Z = -p.Z
		}
		anchors[i] = laplacian.Anchor{Vertex: a.Vertex, Position: p}
	}
	return
}

func (ip *LaplaceParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%v]\t\t\t= FlipZ\n", ip.FlipZ)
	fmt.Printf("%8.5f\t\t= Anchor Weight\n", ip.AnchorWeight)
	fmt.Printf("%8.3e\t\t= Degenerate Tolerance\n", ip.DegenerateTolerance)
	ip.Solver.print()
	for _, a := range ip.Anchors {
		fmt.Printf("Anchors[%d] = %v\n", a.Vertex, a.Position)
	}
}
