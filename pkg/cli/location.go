package cli

import (
	"fmt"
	"time"

	"github.com/bstardust/piclabel/internal/location"
	"github.com/bstardust/piclabel/pkg/common"
	"github.com/spf13/cobra"
)

func newLocationCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Manage the device location used when photos carry no GPS data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <lat,lon>",
		Short: "Record the current location in the configured location file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd, nil)
			if err != nil {
				return err
			}
			if cfg.Location.File == "" {
				return common.NewConfigError("location.file is not configured")
			}
			coords, err := location.ParseCoordinates(args[0])
			if err != nil {
				return err
			}
			if err := location.WriteFile(cfg.Location.File, location.FileRecord{
				Coordinates: coords,
				UpdatedAt:   time.Now().UTC(),
			}); err != nil {
				return fmt.Errorf("failed to write location file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Location set to %s\n", coords)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the device location and its address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd, nil)
			if err != nil {
				return err
			}
			extractor, err := newExtractor(cfg)
			if err != nil {
				return err
			}

			info := extractor.Resolve(cmd.Context(), nil)
			if info.Coordinates == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No device location available")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Coordinates: %s\n", info.Coordinates)
			if info.ReverseGeocodeProblem {
				fmt.Fprintln(cmd.OutOrStdout(), "Address:     (cannot reverse geocode the location)")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Address:     %s\n", info.Location)
			}
			return nil
		},
	})

	return cmd
}
