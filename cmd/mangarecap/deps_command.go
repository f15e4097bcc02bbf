package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mangarecap/internal/ocr"
	"mangarecap/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Report external tools and workspace health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statuses := preflight.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses)+1)
			var missing []string
			for _, s := range statuses {
				status := "ok"
				if !s.Available {
					status = "missing"
					if !s.Optional {
						missing = append(missing, s.Name)
					}
				}
				rows = append(rows, []string{s.Name, s.Command, requirementLabel(s.Optional), status, s.Detail})
			}
			rows = append(rows, ocrRow(ocr.New(cfg), cfg.OCR.Languages))
			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "Command", "Need", "Status", "Detail"},
				rows,
				nil,
			))

			checks := preflight.RunAll(cfg, strings.TrimSpace(output))
			checkRows := make([][]string, 0, len(checks))
			var failed []string
			for _, c := range checks {
				checkRows = append(checkRows, []string{c.Name, passLabel(c.Passed), c.Detail})
				if !c.Passed {
					failed = append(failed, c.Name)
				}
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Result", "Detail"}, checkRows, nil))

			if len(missing) > 0 {
				return fmt.Errorf("missing required dependencies: %s", strings.Join(missing, ", "))
			}
			if len(failed) > 0 {
				return fmt.Errorf("failed checks: %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also check that this output path is writable")
	return cmd
}

func ocrRow(r ocr.Recognizer, languages string) []string {
	if r.Name() == "none" {
		return []string{"Tesseract", "-", "optional", "disabled", "ocr.enabled = false"}
	}
	if err := r.Available(); err != nil {
		return []string{"Tesseract", r.Name(), "optional", "missing", err.Error()}
	}
	return []string{"Tesseract", r.Name(), "optional", "ok", "languages: " + languages}
}

func requirementLabel(optional bool) string {
	if optional {
		return "optional"
	}
	return "required"
}

func passLabel(passed bool) string {
	if passed {
		return "pass"
	}
	return "FAIL"
}
