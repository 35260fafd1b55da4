package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkdev28/Cropp/internal/application/dto"
	"github.com/mkdev28/Cropp/internal/application/usecase"
	"github.com/mkdev28/Cropp/internal/domain/bundle"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/internal/infrastructure/artifact"
	"github.com/mkdev28/Cropp/internal/infrastructure/dataset"
	"github.com/mkdev28/Cropp/internal/presentation/schema"
)

type scoreOptions struct {
	bundle  string
	input   string
	explain bool
}

func newScoreCommand(c *cli) *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score farm records offline",
		Long: `Score farm records without a running service.

--input takes a JSON record, a JSON array of records, a {"inputs": [...]}
batch or a CSV table; "-" reads JSON from stdin. Records are scored with the
artifact given by --bundle, or with the registry's active bundle when
--bundle is omitted. --explain prints the per-feature breakdown instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.score(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.bundle, "bundle", "", "Bundle artifact file (default: active bundle)")
	cmd.Flags().StringVar(&opts.input, "input", "", "Record file: .json or .csv, or - for stdin (required)")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Print feature contributions instead of reports")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (c *cli) score(cmd *cobra.Command, opts *scoreOptions) error {
	ctx := cmd.Context()

	records, single, err := readRecords(cmd.InOrStdin(), opts.input)
	if err != nil {
		return err
	}
	b, err := c.loadBundle(ctx, opts.bundle)
	if err != nil {
		return err
	}
	active := usecase.NewActiveBundle(b)
	out := cmd.OutOrStdout()

	if opts.explain {
		uc := usecase.NewExplainFarm(active)
		explanations := make([]dto.ExplainFarmResponse, 0, len(records))
		for _, r := range records {
			resp, err := uc.Execute(ctx, dto.ScoreFarmRequest{Record: r})
			if err != nil {
				return err
			}
			explanations = append(explanations, resp)
		}
		if single {
			return printJSON(out, explanations[0])
		}
		return printJSON(out, explanations)
	}

	uc := usecase.NewScoreBatch(active, nil, c.logger)
	reports := make([]model.RiskReport, 0, len(records))
	for start := 0; start < len(records); start += usecase.MaxBatchSize {
		end := min(start+usecase.MaxBatchSize, len(records))
		resp, err := uc.Execute(ctx, dto.ScoreBatchRequest{Records: records[start:end]})
		if err != nil {
			return err
		}
		reports = append(reports, resp.Reports...)
	}
	if single {
		return printJSON(out, reports[0])
	}
	return printJSON(out, reports)
}

// loadBundle reads an artifact file, or the registry's active bundle when
// path is empty.
func (c *cli) loadBundle(ctx context.Context, path string) (*bundle.Bundle, error) {
	if path != "" {
		b, err := artifact.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading bundle %s: %w", path, err)
		}
		return b, nil
	}

	stores, err := c.openStores(ctx)
	if err != nil {
		return nil, err
	}
	defer stores.Close()

	b, err := stores.Bundles.FindActive(ctx)
	if errors.Is(err, model.ErrBundleNotFound) {
		return nil, fmt.Errorf("%w: no active bundle, pass --bundle or activate one", model.ErrNotReady)
	}
	return b, err
}

// readRecords decodes the records at path. single reports whether the
// input was one JSON object rather than a collection.
func readRecords(stdin io.Reader, path string) (records []model.FarmRecord, single bool, err error) {
	var data []byte
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading input: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		records, err = dataset.ReadFarms(bytes.NewReader(data))
		if err != nil {
			return nil, false, err
		}
		if len(records) == 0 {
			return nil, false, fmt.Errorf("%s has no records", path)
		}
		return records, false, nil
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return nil, false, err
	}

	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("[")) {
		data = append(append([]byte(`{"inputs":`), data...), '}')
		records, err = validator.DecodeBatch(data)
		return records, false, err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, false, fmt.Errorf("%w: %v", schema.ErrMalformed, err)
	}
	if _, ok := envelope["inputs"]; ok {
		records, err = validator.DecodeBatch(data)
		return records, false, err
	}
	rec, err := validator.DecodeRecord(data)
	if err != nil {
		return nil, false, err
	}
	return []model.FarmRecord{rec}, true, nil
}
