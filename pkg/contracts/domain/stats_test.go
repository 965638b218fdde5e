package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethodology(t *testing.T) {
	tests := []struct {
		input   string
		want    Methodology
		wantErr bool
	}{
		{input: "session", want: MethodologySession},
		{input: "normalized", want: MethodologyNormalized},
		{input: "", want: MethodologySession},
		{input: "Session", wantErr: true},
		{input: "vwap", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMethodology(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMethodology_Behaviour(t *testing.T) {
	assert.False(t, MethodologySession.ResetsAtDayBoundary())
	assert.False(t, MethodologySession.NormalizesImpact())
	assert.True(t, MethodologyNormalized.ResetsAtDayBoundary())
	assert.True(t, MethodologyNormalized.NormalizesImpact())
}

func TestTraderStatColumns(t *testing.T) {
	assert.Equal(t, []string{"volume_pct", "price_impact_pct", "metaorder_duration", "day_std"}, TraderStatColumns)
}
