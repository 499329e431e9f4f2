package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"iiifhub/pkg/models"
)

func renderResources(resources []models.ImageResource) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Label", "Size", "Type", "URL"})
	for _, r := range resources {
		tw.AppendRow(table.Row{
			r.ID,
			text.Trim(r.Label, 40),
			strconv.Itoa(r.Width) + "x" + strconv.Itoa(r.Height),
			r.MediaType,
			r.URL,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.AppendFooter(table.Row{"", "", "", "images", len(resources)})
	return tw.Render()
}

func printResources(out io.Writer, resources []models.ImageResource, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if resources == nil {
			resources = []models.ImageResource{}
		}
		return enc.Encode(resources)
	}
	if len(resources) == 0 {
		fmt.Fprintln(out, "No images found")
		return nil
	}
	fmt.Fprintln(out, renderResources(resources))
	return nil
}
