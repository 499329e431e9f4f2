package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"iiifhub/internal/manifest"
	"iiifhub/pkg/models"
)

func newAssembleCommand(ctx *commandContext) *cobra.Command {
	var (
		title   string
		baseURL string
		from    []string
		meta    []string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Build a Presentation 3 manifest from the images of other manifests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(from) == 0 {
				return fmt.Errorf("at least one --from manifest url is required")
			}

			md := models.DescriptiveMetadata{Title: title}
			for _, kv := range meta {
				name, value, ok := strings.Cut(kv, "=")
				if !ok || !md.Set(strings.TrimSpace(name), strings.TrimSpace(value)) {
					return fmt.Errorf("invalid --meta %q: expected <element>=<value> with element one of %s", kv, strings.Join(models.Elements, ", "))
				}
			}

			n := ctx.normalizer()
			var resources []models.ImageResource
			for i, u := range from {
				imported, err := n.Import(cmd.Context(), u)
				if err != nil {
					return err
				}
				// ids restart at external-0 for every document
				for _, r := range imported {
					r.ID = fmt.Sprintf("m%d-%s", i, r.ID)
					resources = append(resources, r)
				}
			}

			m, err := manifest.NewAssembler().Assemble(resources, md, baseURL)
			if err != nil {
				return err
			}
			body, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return err
			}
			body = append(body, '\n')

			if outPath == "" || outPath == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(outPath, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d canvases)\n", outPath, len(m.Items))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Manifest title (required)")
	cmd.Flags().StringVar(&baseURL, "base", "http://localhost:8080", "Public base URL used for manifest and canvas ids")
	cmd.Flags().StringArrayVar(&from, "from", nil, "Manifest URL to import images from (repeatable)")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "Dublin Core element as key=value (repeatable)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the manifest to this file instead of stdout")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
