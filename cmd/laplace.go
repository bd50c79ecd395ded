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
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/notargets/godeform/InputParameters"
	"github.com/notargets/godeform/laplacian"
	"github.com/notargets/godeform/mesh"
	"github.com/notargets/godeform/readfiles"
)

type LaplaceRun struct {
	MeshFile  string
	ParamFile string
	Output    string
}

// LaplaceCmd represents the laplace command
var LaplaceCmd = &cobra.Command{
	Use:   "laplace",
	Short: "Move anchor vertices of a mesh, preserving its cotangent Laplacian detail",
	Long: `
Reads the anchors from the input parameters file and writes the edited mesh.

godeform laplace --mesh bar.off -I anchors.yaml --output bent.off`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		lr := &LaplaceRun{}
		lr.MeshFile, _ = cmd.Flags().GetString("mesh")
		lr.ParamFile, _ = cmd.Flags().GetString("inputConditionsFile")
		lr.Output, _ = cmd.Flags().GetString("output")
		var ip *InputParameters.LaplaceParameters
		if ip, err = processLaplaceInput(lr); err != nil {
			return
		}
		ip.Print()
		return RunLaplace(lr, ip, parallelDegree(), newLogger())
	},
}

func init() {
	rootCmd.AddCommand(LaplaceCmd)
	LaplaceCmd.Flags().StringP("mesh", "M", "", "mesh to edit in OFF format")
	LaplaceCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file with the anchors and solver parameters")
	LaplaceCmd.Flags().StringP("output", "o", "out.off", "output file for the edited mesh")
}

func processLaplaceInput(lr *LaplaceRun) (ip *InputParameters.LaplaceParameters, err error) {
	if len(lr.MeshFile) == 0 {
		err = fmt.Errorf("must supply a mesh (-M, --mesh) in OFF format")
		return
	}
	if len(lr.ParamFile) == 0 {
		exampleFile := `
########################################
Title: "Drag the handle"
AnchorWeight: 1.
Anchors:
  - Vertex: 0
    Position: [0., 0., 0.]
  - Vertex: 41
    Position: [1., 0.5, 0.25]
########################################
`
		err = fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) listing the anchors, like this:%s",
			exampleFile)
		return
	}
	var data []byte
	if data, err = os.ReadFile(lr.ParamFile); err != nil {
		err = fmt.Errorf("unable to read input parameters file %s: %w", lr.ParamFile, err)
		return
	}
	ip = InputParameters.NewLaplaceParameters()
	if err = ip.Parse(data); err != nil {
		ip = nil
		err = fmt.Errorf("unable to parse %s: %w", lr.ParamFile, err)
	}
	return
}

func RunLaplace(lr *LaplaceRun, ip *InputParameters.LaplaceParameters, parallelDegree int,
	logger *slog.Logger) (err error) {
	var (
		m   *mesh.Mesh
		res *laplacian.Result
	)
	if m, err = readfiles.ReadOFF(lr.MeshFile, ip.FlipZ); err != nil {
		return
	}
	pose := m.Vertices()
	if res, err = laplacian.Solve(m, pose, ip.AnchorList(), ip.Config(parallelDegree, logger)); err != nil {
		return
	}
	out := res.Positions
	if ip.FlipZ {
		out = out.FlipZ()
	}
	if err = readfiles.WriteOFF(lr.Output, m, out); err != nil {
		return
	}
	fmt.Printf("Edited %d vertices with %d anchors, area %8.5f -> %8.5f, written to %s\n",
		m.NumVertices(), len(ip.Anchors),
		totalArea(pose, m.Triangles()), totalArea(res.Positions, m.Triangles()), lr.Output)
	for axis, r := range res.Axes {
		fmt.Printf("axis %d: %s\n", axis, r.String())
	}
	return
}

func totalArea(pose mesh.Pose, tris []mesh.Triangle) (a float64) {
	// Every triangle area is counted once per vertex
	for _, va := range laplacian.VertexAreas(pose, tris) {
		a += va
	}
	return a / 3
}
