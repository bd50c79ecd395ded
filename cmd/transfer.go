/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/notargets/godeform/InputParameters"
	"github.com/notargets/godeform/deformation"
	"github.com/notargets/godeform/mesh"
	"github.com/notargets/godeform/readfiles"
)

type TransferRun struct {
	SourceMesh   string
	SourceFrames string
	TargetMesh   string
	Output       string
	ParamFile    string
	Perf         bool
}

// TransferCmd represents the transfer command
var TransferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer the deformation of an animated source mesh onto a target mesh",
	Long: `
Solves the target pose of every source frame in order, each frame starting from
the previous target frame, and writes the target animation.

godeform transfer --sourceMesh horse.off --sourceFrames gallop.gdfa --targetMesh camel.off --output camel.gdfa`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		tr := &TransferRun{}
		tr.SourceMesh, _ = cmd.Flags().GetString("sourceMesh")
		tr.SourceFrames, _ = cmd.Flags().GetString("sourceFrames")
		tr.TargetMesh, _ = cmd.Flags().GetString("targetMesh")
		tr.Output, _ = cmd.Flags().GetString("output")
		tr.ParamFile, _ = cmd.Flags().GetString("inputConditionsFile")
		tr.Perf, _ = cmd.Flags().GetBool("perf")
		var ip *InputParameters.TransferParameters
		if ip, err = processTransferInput(tr); err != nil {
			return
		}
		ip.Print()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return RunTransfer(ctx, tr, ip, parallelDegree(), newLogger())
	},
}

func init() {
	rootCmd.AddCommand(TransferCmd)
	TransferCmd.Flags().StringP("sourceMesh", "S", "", "source reference mesh in OFF format")
	TransferCmd.Flags().StringP("sourceFrames", "F", "", "source animation frames, the source mesh alone is used if omitted")
	TransferCmd.Flags().StringP("targetMesh", "T", "", "target reference mesh in OFF format")
	TransferCmd.Flags().StringP("output", "o", "target.gdfa", "output file for the target animation frames")
	TransferCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file with transfer parameters")
	TransferCmd.Flags().Bool("perf", false, "count the CPU instructions spent solving (linux only)")
}

func processTransferInput(tr *TransferRun) (ip *InputParameters.TransferParameters, err error) {
	if len(tr.SourceMesh) == 0 || len(tr.TargetMesh) == 0 {
		err = fmt.Errorf("must supply a source mesh (-S, --sourceMesh) and a target mesh (-T, --targetMesh) in OFF format")
		return
	}
	ip = InputParameters.NewTransferParameters()
	if len(tr.ParamFile) == 0 {
		return
	}
	var data []byte
	if data, err = os.ReadFile(tr.ParamFile); err != nil {
		err = fmt.Errorf("unable to read input parameters file %s: %w", tr.ParamFile, err)
		return
	}
	if err = ip.Parse(data); err != nil {
		exampleFile := `
########################################
Title: "Horse to Camel"
FlipZSource: false
FlipZTarget: true
PinTranslation: true
Solver:
  MaxIterations: 0 # 0 selects max(4*columns, 100)
  ATol: 1.e-12
  BTol: 1.e-12
########################################
`
		err = fmt.Errorf("unable to parse %s: %w\nexample input file:%s", tr.ParamFile, err, exampleFile)
	}
	return
}

func RunTransfer(ctx context.Context, tr *TransferRun, ip *InputParameters.TransferParameters,
	parallelDegree int, logger *slog.Logger) (err error) {
	var (
		source, target *mesh.Mesh
		frames         *mesh.Sequence
		corr           *mesh.Correspondence
		solver         *deformation.Transfer
		out            *mesh.Sequence
		reports        []deformation.StepReport
	)
	if source, err = readfiles.ReadOFF(tr.SourceMesh, ip.FlipZSource); err != nil {
		return
	}
	if target, err = readfiles.ReadOFF(tr.TargetMesh, ip.FlipZTarget); err != nil {
		return
	}
	if len(tr.SourceFrames) == 0 {
		frames = mesh.StaticSequence(source)
	} else {
		if frames, err = readfiles.ReadFrames(tr.SourceFrames); err != nil {
			return
		}
		if ip.FlipZSource {
			if frames, err = flipSequence(frames); err != nil {
				return
			}
		}
	}
	if corr, err = mesh.NewCorrespondence(source, target); err != nil {
		return
	}
	if solver, err = deformation.NewTransfer(corr, frames, target.Vertices(), ip.Config(parallelDegree, logger)); err != nil {
		return
	}
	start := time.Now()
	instructions, err := countInstructions(tr.Perf, func() (err error) {
		out, reports, err = solver.Run(ctx, nil)
		return
	})
	if out != nil && out.Len() > 0 {
		if werr := readfiles.WriteFrames(tr.Output, out); werr != nil && err == nil {
			err = werr
		}
	}
	if err != nil {
		return
	}
	var maxResidual float64
	for _, r := range reports {
		maxResidual = max(maxResidual, r.MaxResidual())
	}
	fmt.Printf("Transferred %d frames to %s in %v, max residual %8.3e\n",
		out.Len(), tr.Output, time.Since(start), maxResidual)
	if tr.Perf {
		fmt.Printf("%d CPU instructions\n", instructions)
	}
	return
}

func flipSequence(seq *mesh.Sequence) (*mesh.Sequence, error) {
	frames := make([]mesh.Pose, seq.Len())
	for i := range frames {
		frames[i] = seq.Frame(i).FlipZ()
	}
	return mesh.NewSequence(seq.NumVertices(), frames...)
}
