package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/application/usecase"
	"github.com/mkdev28/Cropp/internal/domain/event"
	"github.com/mkdev28/Cropp/internal/domain/model"
)

func newListCommand(c *cli) *cobra.Command {
	var (
		limit  int
		offset int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored bundles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			stores, err := c.openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer stores.Close()

			infos, err := stores.Bundles.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tACTIVATED\tACTIVE\tAUC\tBRIER\tCALIBRATED") //nolint:errcheck
			for _, info := range infos {
				activated := "-"
				if info.ActivatedAt != nil {
					activated = info.ActivatedAt.Format(time.RFC3339)
				}
				active := ""
				if info.Active {
					active = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.4f\t%.4f\t%s\n", //nolint:errcheck
					info.ID,
					info.CreatedAt.Format(time.RFC3339),
					activated,
					active,
					info.AUC,
					info.Brier,
					strconv.FormatBool(!info.CalibrationFallback),
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of bundles")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of bundles to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

func newActivateCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <bundle-id>",
		Short: "Make a stored bundle the serving bundle",
		Long: `Mark a stored bundle active. Running risk-service replicas pick the
change up from the bundle events topic when Kafka is configured, and at
their next start otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid bundle id %q: %w", args[0], err)
			}

			stores, err := c.openStores(ctx)
			if err != nil {
				return err
			}
			defer stores.Close()
			pub, closePub, err := c.publisher()
			if err != nil {
				return fmt.Errorf("creating kafka producer: %w", err)
			}
			defer closePub()

			uc := usecase.NewActivateBundle(stores.Bundles, usecase.NewActiveBundle(nil), pub, nil, c.logger)
			if err := uc.LoadActive(ctx); err != nil {
				return err
			}
			resp, err := uc.Execute(ctx, dto.ActivateBundleRequest{BundleID: id})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newRollbackCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Reactivate the previously active bundle",
		Long: `Reactivate the bundle that was active before the current one. Only the
SQLite registry keeps the activation history this needs; with Postgres use
"activate" with an explicit ID.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			stores, err := c.openStores(ctx)
			if err != nil {
				return err
			}
			defer stores.Close()
			if stores.Registry == nil {
				return errors.New("rollback needs the SQLite registry; unset DATABASE_URL or use activate")
			}

			var previous uuid.UUID
			current, err := stores.Bundles.FindActive(ctx)
			switch {
			case err == nil:
				previous = current.ID()
			case !errors.Is(err, model.ErrBundleNotFound):
				return err
			}

			id, err := stores.Registry.Rollback(ctx)
			if err != nil {
				return err
			}
			activated := event.BundleActivated{
				BundleID:         id,
				PreviousBundleID: previous,
				ActivatedAt:      time.Now().UTC(),
			}

			pub, closePub, err := c.publisher()
			if err != nil {
				return fmt.Errorf("creating kafka producer: %w", err)
			}
			defer closePub()
			if pub != nil {
				if err := pub.Publish(ctx, activated); err != nil {
					return fmt.Errorf("publishing activation: %w", err)
				}
			}

			c.logger.Info("bundle rolled back", "bundle_id", id, "previous_bundle_id", previous)
			return printJSON(cmd.OutOrStdout(), dto.ActivateBundleResponse{
				BundleID:         activated.BundleID,
				PreviousBundleID: activated.PreviousBundleID,
				ActivatedAt:      activated.ActivatedAt,
			})
		},
	}
}
