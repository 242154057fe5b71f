package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"unblock-hq/corsair/pkg/cli"
	"unblock-hq/corsair/pkg/codec"
)

var encodeCmd = &cobra.Command{
	Use:   "encode <url>",
	Short: "Encode a URL for the /service/{encoded} endpoint",
	Long: `Encode an absolute http/https URL into the path-safe form the
/service/{encoded} endpoint accepts.

Example:
  corsair encode https://example.com/a?b=c`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), codec.Encode(args[0]))
		return nil
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <encoded>",
	Short: "Decode an encoded URL back to its original form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decoded, err := codec.Decode(args[0])
		if err != nil {
			return cli.NewCommandError("decode", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), decoded)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
}
