package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/llmbridge/protocol"
)

var encodeProtocol string

// encodeCmd prints a protocol envelope without contacting any model
var encodeCmd = &cobra.Command{
	Use:   "encode [text...]",
	Short: "Print the envelope a protocol applies to text",
	Example: `  llmbridge encode --protocol droidspeak "What are your capabilities?"
  llmbridge encode -p gibberlink Explain transformers`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeProtocol, "protocol", "p", protocol.MCP.String(),
		"Protocol: mcp, gibberlink, droidspeak or natural")
}

func runEncode(cmd *cobra.Command, args []string) error {
	kind, err := protocol.Parse(encodeProtocol)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), protocol.Encode(kind, strings.Join(args, " ")))
	return nil
}
