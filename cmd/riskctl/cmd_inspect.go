package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mkdev28/Cropp/internal/domain/bundle"
	"github.com/mkdev28/Cropp/internal/infrastructure/artifact"
)

func newInspectCommand(c *cli) *cobra.Command {
	var (
		path string
		id   string
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a bundle's summary",
		Long: `Print the summary of a bundle: metrics, feature lists, importance and
the training configuration. Read it from an artifact file with --bundle or
from the registry with --id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				b   *bundle.Bundle
				err error
			)
			switch {
			case path != "" && id != "":
				return errors.New("--bundle and --id are mutually exclusive")
			case path != "":
				if b, err = artifact.LoadFile(path); err != nil {
					return fmt.Errorf("loading bundle %s: %w", path, err)
				}
			case id != "":
				if b, err = c.findBundle(cmd, id); err != nil {
					return err
				}
			default:
				return errors.New("one of --bundle or --id is required")
			}
			return printJSON(cmd.OutOrStdout(), b.Summary())
		},
	}

	cmd.Flags().StringVar(&path, "bundle", "", "Bundle artifact file")
	cmd.Flags().StringVar(&id, "id", "", "Bundle ID in the registry")

	return cmd
}

func (c *cli) findBundle(cmd *cobra.Command, raw string) (*bundle.Bundle, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid bundle id %q: %w", raw, err)
	}
	stores, err := c.openStores(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer stores.Close()
	return stores.Bundles.FindByID(cmd.Context(), id)
}
