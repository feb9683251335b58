package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bstardust/piclabel/internal/fshelper"
	"github.com/bstardust/piclabel/internal/imageinfo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type infoReport struct {
	File     string          `json:"file" yaml:"file"`
	Info     *imageinfo.Info `json:"info" yaml:"info"`
	Warnings []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newInfoCommand(load configLoader) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "info [flags] <image|dir|zip|glob>...",
		Short: "Show the caption data piclabel would use for images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd, nil)
			if err != nil {
				return err
			}
			extractor, err := newExtractor(cfg)
			if err != nil {
				return err
			}

			sources, err := fshelper.Collect(args)
			if err != nil {
				return err
			}
			defer fshelper.CloseAll(sources)

			var reports []infoReport
			for _, src := range sources {
				for _, path := range src.Paths {
					if err := cmd.Context().Err(); err != nil {
						return err
					}
					info, err := extractor.ExtractFile(cmd.Context(), src.FS, path)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
						continue
					}
					reports = append(reports, infoReport{File: path, Info: info, Warnings: info.Warnings()})
				}
			}
			return writeReports(cmd.OutOrStdout(), format, reports)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml)")
	return cmd
}

func writeReports(w io.Writer, format string, reports []infoReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(reports)
	case "text":
		for i, r := range reports {
			if i > 0 {
				fmt.Fprintln(w)
			}
			writeText(w, r)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeText(w io.Writer, r infoReport) {
	fmt.Fprintf(w, "File:        %s\n", r.File)
	fmt.Fprintf(w, "Date/time:   %s\n", r.Info.DateTime)
	fmt.Fprintf(w, "Location:    %s\n", r.Info.Location)
	if c := r.Info.Coordinates; c != nil {
		fmt.Fprintf(w, "Coordinates: %s\n", c)
	}
	fmt.Fprintf(w, "Size:        %dx%d (orientation %d)\n", r.Info.Width, r.Info.Height, r.Info.Orientation)
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "Warning:     %s\n", warning)
	}
}
