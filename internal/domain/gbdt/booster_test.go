package gbdt_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdev28/Cropp/internal/domain/evaluation"
	"github.com/mkdev28/Cropp/internal/domain/features"
	"github.com/mkdev28/Cropp/internal/domain/gbdt"
	"github.com/mkdev28/Cropp/internal/domain/model"
	"github.com/mkdev28/Cropp/pkg/testutil"
)

func farmDataset(t *testing.T, n int, seed int64, e *features.Engineer) gbdt.Dataset {
	t.Helper()
	labeled := testutil.LabeledFarms(n, seed)
	records := make([]model.FarmRecord, n)
	labels := make([]float64, n)
	for i, l := range labeled {
		records[i] = l.Record
		if l.Claimed {
			labels[i] = 1
		}
	}
	m, err := e.Transform(records)
	require.NoError(t, err)
	return gbdt.Dataset{Rows: m.Rows, Labels: labels}
}

func engineerFor(t *testing.T, n int, seed int64) *features.Engineer {
	t.Helper()
	labeled := testutil.LabeledFarms(n, seed)
	records := make([]model.FarmRecord, n)
	for i := range labeled {
		records[i] = labeled[i].Record
	}
	st, err := features.FitStats(records)
	require.NoError(t, err)
	return features.NewEngineer(st)
}

func smallConfig() gbdt.Config {
	cfg := gbdt.DefaultConfig()
	cfg.Iterations = 80
	cfg.Depth = 4
	cfg.LearningRate = 0.1
	cfg.EarlyStoppingRounds = 20
	return cfg
}

func fitFarmModel(t *testing.T) (*gbdt.Model, gbdt.Dataset) {
	t.Helper()
	e := engineerFor(t, 1500, 1)
	train := farmDataset(t, 1500, 1, e)
	valid := farmDataset(t, 400, 2, e)

	m, err := gbdt.Fit(context.Background(), smallConfig(), e.Schema(), train, valid)
	require.NoError(t, err)
	return m, valid
}

func TestFit_LearnsSignal(t *testing.T) {
	m, valid := fitFarmModel(t)

	margins := make([]float64, valid.Len())
	for i, row := range valid.Rows {
		margins[i] = m.Margin(row)
		p := m.PredictProba(row)
		assert.True(t, p > 0 && p < 1)
	}
	assert.Greater(t, evaluation.AUC(margins, valid.Labels), 0.7)
	assert.InDelta(t, m.ValidationAUC, evaluation.AUC(margins, valid.Labels), 1e-9)
}

func TestFit_TruncatesToBestIteration(t *testing.T) {
	m, _ := fitFarmModel(t)

	assert.Len(t, m.Trees, m.BestIteration+1)
	assert.LessOrEqual(t, m.BestIteration, m.Iterations-1)
}

func TestFit_Deterministic(t *testing.T) {
	a, valid := fitFarmModel(t)
	b, _ := fitFarmModel(t)

	require.Equal(t, len(a.Trees), len(b.Trees))
	for _, row := range valid.Rows[:50] {
		assert.Equal(t, a.Margin(row), b.Margin(row))
	}
}

func TestFit_ImportanceSumsTo100(t *testing.T) {
	m, _ := fitFarmModel(t)

	var total float64
	for _, v := range m.Importance {
		assert.GreaterOrEqual(t, v, 0.0)
		total += v
	}
	assert.InDelta(t, 100, total, 1e-6)
	assert.Len(t, m.Importance, m.Schema.Len())
}

func TestExplain_LocalAccuracy(t *testing.T) {
	m, valid := fitFarmModel(t)

	for _, row := range valid.Rows[:40] {
		exp := m.Explain(row)
		sum := exp.Bias
		for _, c := range exp.Contributions {
			sum += c
		}
		assert.InDelta(t, m.Margin(row), sum, 1e-6)
	}
}

func TestExplain_SingleSplit(t *testing.T) {
	schema := features.Schema{Names: []string{"x"}, Kinds: []features.Kind{features.Numeric}}
	m := &gbdt.Model{
		Schema:    schema,
		BaseScore: 0.2,
		Trees: []gbdt.Tree{{Nodes: []gbdt.Node{
			{Feature: 0, Threshold: 0.5, Left: 1, Right: 2, Cover: 4},
			{Feature: -1, Value: -1, Cover: 1},
			{Feature: -1, Value: 1, Cover: 3},
		}}},
	}

	exp := m.Explain(features.Vector{{Num: 0}})
	assert.InDelta(t, 0.7, exp.Bias, 1e-12)
	assert.InDelta(t, -1.5, exp.Contributions[0], 1e-12)

	exp = m.Explain(features.Vector{{Num: 1}})
	assert.InDelta(t, 0.5, exp.Contributions[0], 1e-12)
}

func TestFit_CategoricalSplit(t *testing.T) {
	schema := features.Schema{
		Names: []string{"crop", "noise"},
		Kinds: []features.Kind{features.Categorical, features.Numeric},
	}
	var train gbdt.Dataset
	for i := 0; i < 300; i++ {
		crop, y := "wheat", 0.0
		if i%3 == 0 {
			crop, y = "cotton", 1.0
		}
		train.Rows = append(train.Rows, features.Vector{{Cat: crop}, {Num: float64(i % 7)}})
		train.Labels = append(train.Labels, y)
	}

	cfg := smallConfig()
	cfg.EarlyStoppingRounds = 0
	m, err := gbdt.Fit(context.Background(), cfg, schema, train, gbdt.Dataset{})
	require.NoError(t, err)

	cotton := m.PredictProba(features.Vector{{Cat: "cotton"}, {Num: 3}})
	wheat := m.PredictProba(features.Vector{{Cat: "wheat"}, {Num: 3}})
	unseen := m.PredictProba(features.Vector{{Cat: "millet"}, {Num: 3}})

	assert.Greater(t, cotton, 0.8)
	assert.Less(t, wheat, 0.2)
	assert.True(t, unseen > 0 && unseen < 1)
	assert.Greater(t, m.Importance[0], m.Importance[1])
}

func TestFit_Cancelled(t *testing.T) {
	e := engineerFor(t, 300, 3)
	train := farmDataset(t, 300, 3, e)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gbdt.Fit(ctx, smallConfig(), e.Schema(), train, gbdt.Dataset{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, gbdt.DefaultConfig().Validate())

	cfg := gbdt.DefaultConfig()
	cfg.Depth = 0
	assert.Error(t, cfg.Validate())

	cfg = gbdt.DefaultConfig()
	cfg.LearningRate = 0
	assert.Error(t, cfg.Validate())
}
