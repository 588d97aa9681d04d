/*
Copyright © 2025 Your Name

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
	"os"

	"github.com/spf13/cobra"

	"kgpack/internal/config"
	"kgpack/internal/security"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kgpack",
	Short: "kgpack builds, queries, and distributes knowledge packs.",
	Long: `kgpack crawls a content source into a graph-structured knowledge
pack, then answers questions over it with vector-primary retrieval,
optional graph-aware expansion, and LLM synthesis.

Typical usage:
  kgpack expand --seeds urls.txt --pack pack.db
  kgpack query --pack pack.db "What is the capital of France?"
  kgpack pack build ./my-pack
  kgpack pack install my-pack.tar.gz`,
}

// Execute adds all child commands to the root command and runs it. Called
// once from main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, security.SanitizeError(err.Error()))
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.kgpack.yaml, then $HOME/.kgpack.yaml)")

	rootCmd.AddCommand(NewExpandCmd())
	rootCmd.AddCommand(NewQueryCmd())
	rootCmd.AddCommand(NewPackCmd())
	rootCmd.AddCommand(NewBrowseCmd())
}

// initConfig loads configuration from file, environment, and defaults via
// the centralized config module.
func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %s\n", security.SanitizeError(err.Error()))
		os.Exit(1)
	}
}
