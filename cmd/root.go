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

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/godeform/utils"
)

var (
	cfgFile  string
	profiler interface{ Stop() }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "godeform",
	Short: "Mesh deformation transfer and Laplacian anchor editing",
	Long: `
Retargets an animated source triangle mesh onto a target mesh with the same
triangle connectivity, or edits a single mesh by dragging anchor vertices while
preserving its cotangent Laplacian detail.

godeform transfer --sourceMesh horse.off --sourceFrames gallop.gdfa --targetMesh camel.off --output camel.gdfa
godeform laplace --mesh bar.off -I anchors.yaml --output bent.off`,
	SilenceUsage:      true,
	PersistentPreRunE: startProfile,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { stopProfile() },
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.godeform.yaml)")
	pf.BoolP("verbose", "v", false, "log solver progress for every frame")
	pf.IntP("parallel", "p", 0, "number of go routines for per triangle assembly, 0 selects the CPU count")
	pf.String("profile", "", "write a profile of the run to the working directory: cpu or mem")
	for _, name := range []string{"verbose", "parallel", "profile"} {
		if err := viper.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		// Search config in home directory with name ".godeform" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".godeform")
	}
	viper.SetEnvPrefix("GODEFORM")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func parallelDegree() int {
	if np := viper.GetInt("parallel"); np > 0 {
		return np
	}
	return utils.DefaultParallelDegree()
}

func startProfile(cmd *cobra.Command, args []string) (err error) {
	switch mode := viper.GetString("profile"); mode {
	case "":
	case "cpu":
		profiler = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "mem":
		profiler = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	default:
		err = fmt.Errorf("unknown profile mode [%s], use cpu or mem", mode)
	}
	return
}

func stopProfile() {
	if profiler != nil {
		profiler.Stop()
		profiler = nil
	}
}
