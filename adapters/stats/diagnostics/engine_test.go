package diagnostics

import (
	"context"
	"testing"

	"spreaddiag/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func suiteFrameInput(t *testing.T) DiagnosticInput {
	t.Helper()
	config := testkit.DefaultSpreadConfig()
	config.Hours = 24 * 60
	return DiagnosticInput{
		Frame:   testkit.NewSpreadDataGenerator(config).GenerateFrame(),
		Options: DefaultSuiteOptions(),
	}
}

func TestEngine_RunAllPreservesOrder(t *testing.T) {
	engine := NewEngine()
	outcomes := engine.RunAll(context.Background(), suiteFrameInput(t))

	require.Len(t, outcomes, 5)
	assert.Equal(t, []string{"adf", "autocorrelation", "hac_mean", "variance_trend", "variance_ratio"}, engine.List())
	for i, name := range engine.List() {
		assert.Equal(t, name, outcomes[i].Name)
		require.NoError(t, outcomes[i].Err, name)
		require.NotNil(t, outcomes[i].Result, name)
		assert.Equal(t, name, outcomes[i].Result.TestName())
	}
}

func TestEngine_FailuresAreIsolated(t *testing.T) {
	input := suiteFrameInput(t)
	input.Options.SplitRatio = 2

	outcomes := NewEngine().RunAll(context.Background(), input)
	for _, o := range outcomes {
		if o.Name == "variance_ratio" {
			assert.Error(t, o.Err)
			assert.Nil(t, o.Result)
			continue
		}
		assert.NoError(t, o.Err, o.Name)
	}
}

func TestEngine_RunSingle(t *testing.T) {
	engine := NewEngine()
	input := suiteFrameInput(t)

	outcome, ok := engine.RunSingle(context.Background(), "hac_mean", input)
	require.True(t, ok)
	require.NoError(t, outcome.Err)
	assert.Contains(t, outcome.Result.Fields(), "t_stat")

	_, ok = engine.RunSingle(context.Background(), "granger", input)
	assert.False(t, ok)
}

func TestEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, o := range NewEngine().RunAll(ctx, suiteFrameInput(t)) {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestEngine_Describe(t *testing.T) {
	engine := NewEngine()
	infos := engine.Describe()
	require.Len(t, infos, len(engine.List()))
	for i, info := range infos {
		assert.Equal(t, engine.List()[i], info.Name)
		assert.NotEmpty(t, info.Description)
	}
}
