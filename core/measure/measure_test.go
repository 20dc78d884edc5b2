package measure

import (
	"testing"

	"github.com/huangsam/caliper/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureValues(t *testing.T) {
	n, ok := NewInt(12).Number()
	require.True(t, ok)
	assert.Equal(t, 12.0, n)

	n, _ = NewDouble(18.1818, 1).Number()
	assert.Equal(t, 18.2, n)
	n, _ = NewDouble(39.3939, 1).Number()
	assert.Equal(t, 39.4, n)

	b, _ := NewBool(true).Number()
	assert.Equal(t, 1.0, b)

	_, ok = NewString("x").Number()
	assert.False(t, ok)
	s, ok := NewString("x").Text()
	require.True(t, ok)
	assert.Equal(t, "x", s)

	lvl, ok := NewLevel(schema.ErrorStatus).Level()
	require.True(t, ok)
	assert.Equal(t, schema.ErrorStatus, lvl)
	_, ok = NewInt(1).Level()
	assert.False(t, ok)

	assert.False(t, NewNoValue().HasValue())
	assert.Equal(t, NoValue, NewNoValue().Kind())
}

func TestMeasureIsImmutable(t *testing.T) {
	base := NewInt(3)
	withVariation := base.WithVariation(2)
	_, ok := base.Variation()
	assert.False(t, ok)
	v, ok := withVariation.Variation()
	require.True(t, ok)
	assert.Equal(t, 2.0, v)

	gated := withVariation.WithQualityGateStatus(QualityGateStatus{Status: schema.OKStatus, Text: "fine"})
	_, ok = withVariation.QualityGateStatus()
	assert.False(t, ok)
	g, ok := gated.QualityGateStatus()
	require.True(t, ok)
	assert.Equal(t, "fine", g.Text)
	assert.Equal(t, "3 (variation=2) [OK]", gated.String())
}

func TestFromNumber(t *testing.T) {
	assert.Equal(t, IntValue, FromNumber(schema.IntMetric, 3).Kind())
	assert.Equal(t, LongValue, FromNumber(schema.MillisecMetric, 3).Kind())
	assert.Equal(t, DoubleValue, FromNumber(schema.PercentMetric, 3).Kind())
	assert.Equal(t, BoolValue, FromNumber(schema.BoolMetric, 1).Kind())
}

func TestMeasureFormat(t *testing.T) {
	assert.Equal(t, "", NewNoValue().Format(1))
	assert.Equal(t, "42", NewLong(42).Format(2))
	assert.Equal(t, "7.50", NewDouble(7.5, 1).Format(2))
	assert.Equal(t, "true", NewBool(true).Format(1))
	assert.Equal(t, "ERROR", NewLevel(schema.ErrorStatus).Format(1))
}

func TestMetricRepository(t *testing.T) {
	r := DefaultMetricRepository()
	d, err := r.ByKey(NclocKey)
	require.NoError(t, err)
	assert.Equal(t, schema.IntMetric, d.Type)

	_, err = r.ByKey("nope")
	assert.EqualError(t, err, "Metric with key 'nope' does not exist")

	assert.Len(t, r.All(), len(CoreMetrics()))
	keys := r.Keys()
	assert.IsNonDecreasing(t, keys)

	_, err = NewMetricRepository(schema.MetricDefinition{Key: "a"}, schema.MetricDefinition{Key: "a"})
	assert.Error(t, err)
	_, err = NewMetricRepository(schema.MetricDefinition{})
	assert.Error(t, err)
}

func TestIsScannerMetric(t *testing.T) {
	assert.True(t, IsScannerMetric(NclocKey))
	assert.True(t, IsScannerMetric(TestsKey))
	assert.False(t, IsScannerMetric(LinesKey))
	assert.False(t, IsScannerMetric(DuplicatedLinesKey))
}
