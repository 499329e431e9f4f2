package main

import (
	"os"

	"github.com/spf13/cobra"

	"iiifhub/internal/importer"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "import <manifest-url>",
		Short: "List the images of a remote IIIF manifest (Presentation 2 or 3)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resources, err := ctx.normalizer().Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResources(cmd.OutOrStdout(), resources, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print resources as JSON")
	return cmd
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <manifest-file>",
		Short: "List the images of a manifest stored on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			resources, err := importer.Extract(body, ctx.log())
			if err != nil {
				return err
			}
			return printResources(cmd.OutOrStdout(), resources, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print resources as JSON")
	return cmd
}
