package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mangarecap/internal/panels"
)

func newPanelsCommand(ctx *commandContext) *cobra.Command {
	var saveDir string
	var pageIndex int

	cmd := &cobra.Command{
		Use:   "panels <image>",
		Short: "Print the panels detected on one page image, in reading order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			img, err := panels.DecodeFile(args[0])
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			detector := panels.NewDetector(panels.OptionsFromConfig(cfg))
			found := detector.Detect(img, pageIndex)
			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "No panels detected")
				return nil
			}

			if saveDir != "" {
				found = panels.Crop(img, found)
				if err := panels.SaveCrops(saveDir, found); err != nil {
					return fmt.Errorf("save crops: %w", err)
				}
			}

			rows := make([][]string, 0, len(found))
			for i, p := range found {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					strconv.Itoa(p.PanelIndex),
					strconv.Itoa(p.X),
					strconv.Itoa(p.Y),
					strconv.Itoa(p.Width),
					strconv.Itoa(p.Height),
					strconv.Itoa(p.Area),
					p.ImagePath,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Order", "Found", "X", "Y", "Width", "Height", "Area", "Crop"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&saveDir, "save", "", "Write each panel crop as PNG into this directory")
	cmd.Flags().IntVar(&pageIndex, "page", 0, "Page index used in crop file names")
	return cmd
}
