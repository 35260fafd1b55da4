package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/application/usecase"
	"github.com/mkdev28/Cropp/internal/domain/service"
	"github.com/mkdev28/Cropp/internal/infrastructure/artifact"
	"github.com/mkdev28/Cropp/internal/infrastructure/config"
	"github.com/mkdev28/Cropp/internal/infrastructure/dataset"
)

type trainOptions struct {
	data     string
	config   string
	out      string
	activate bool
}

func newTrainCommand(c *cli) *cobra.Command {
	opts := &trainOptions{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a bundle from a labelled CSV table",
		Long: `Train a calibrated bundle from a labelled farm-season table.

The table needs the state, season, crop_type and irrigation_type columns
plus a claim_filed label. The bundle is stored in the registry and written
as an artifact to --out. With --activate it also becomes the serving bundle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.train(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.data, "data", "", "Labelled CSV table (required)")
	cmd.Flags().StringVar(&opts.config, "config", "", "Training config YAML (default $TRAINING_CONFIG)")
	cmd.Flags().StringVar(&opts.out, "out", "", "Artifact directory (default $ARTIFACT_DIR)")
	cmd.Flags().BoolVar(&opts.activate, "activate", false, "Activate the bundle once stored")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func (c *cli) train(cmd *cobra.Command, opts *trainOptions) error {
	ctx := cmd.Context()

	records, err := dataset.LoadLabeled(opts.data)
	if err != nil {
		return err
	}
	tcfg, err := config.LoadTrainingConfig(cmpOr(opts.config, c.cfg.TrainingConfig))
	if err != nil {
		return err
	}
	trainer, err := service.NewTrainer(tcfg, c.logger)
	if err != nil {
		return err
	}

	stores, err := c.openStores(ctx)
	if err != nil {
		return err
	}
	defer stores.Close()

	exporter, err := artifact.NewFileStore(cmpOr(opts.out, c.cfg.ArtifactDir))
	if err != nil {
		return err
	}
	pub, closePub, err := c.publisher()
	if err != nil {
		return fmt.Errorf("creating kafka producer: %w", err)
	}
	defer closePub()

	activate := usecase.NewActivateBundle(stores.Bundles, usecase.NewActiveBundle(nil), pub, nil, c.logger)
	uc := usecase.NewTrainBundle(trainer, stores.Bundles, exporter, pub, activate, nil, c.logger)

	c.logger.Info("training bundle", "records", len(records), "data", opts.data)
	resp, err := uc.Execute(ctx, dto.TrainBundleRequest{Records: records, Activate: opts.activate})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

// cmpOr returns the first of its arguments that is not the zero value, or
// the zero value if all are. Equivalent to cmp.Or (Go 1.22+).
func cmpOr[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}
