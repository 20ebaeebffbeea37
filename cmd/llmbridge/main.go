// Command llmbridge runs the LLM-to-LLM extraction server and offers a few
// offline helpers for inspecting protocol envelopes and the model catalog.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "llmbridge",
	Short: "Host/target LLM extraction bridge",
	Long: `llmbridge pairs a host model with a target model and runs extraction
exchanges between them, encoding the host's query with one of four
protocols (mcp, gibberlink, droidspeak, natural).

Queries containing "demo" or "test" are answered from canned text and never
contact a provider.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(modelsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
