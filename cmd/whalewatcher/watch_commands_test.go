package main

import (
	"testing"

	"github.com/itchyny/gojq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squidish/solana-whale-watcher/service/solana"
)

func testChange() solana.BalanceChange {
	return solana.BalanceChange{
		Account:       "So11111111111111111111111111111111111111112",
		DeltaLamports: -1_500_000_000,
		DeltaSOL:      -1.5,
		Direction:     solana.DirectionLoss,
		Reason:        solana.ReasonSentOrFee,
	}
}

func TestFormatBalanceChange_Text(t *testing.T) {
	line, err := formatBalanceChange(testChange(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, "So11111111111111111111111111111111111111112: loss 1.500000000 SOL (sent SOL or fee)", line)
}

func TestFormatBalanceChange_JSON(t *testing.T) {
	line, err := formatBalanceChange(testChange(), true, nil)
	require.NoError(t, err)
	assert.Contains(t, line, `"account":"So11111111111111111111111111111111111111112"`)
	assert.Contains(t, line, `"delta_lamports":-1500000000`)
	assert.Contains(t, line, `"direction":"loss"`)
}

func TestFormatBalanceChange_JQ(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{
			name: "select field",
			expr: ".account",
			want: `"So11111111111111111111111111111111111111112"`,
		},
		{
			name: "project object",
			expr: "{account, delta_sol}",
			want: `{"account":"So11111111111111111111111111111111111111112","delta_sol":-1.5}`,
		},
		{
			name: "boolean result",
			expr: ".delta_sol < 0",
			want: "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := gojq.Parse(tt.expr)
			require.NoError(t, err)
			code, err := gojq.Compile(query)
			require.NoError(t, err)

			line, err := formatBalanceChange(testChange(), true, code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, line)
		})
	}
}

func TestFormatBalanceChange_JQNoOutput(t *testing.T) {
	query, err := gojq.Parse(`empty`)
	require.NoError(t, err)
	code, err := gojq.Compile(query)
	require.NoError(t, err)

	line, err := formatBalanceChange(testChange(), true, code)
	require.NoError(t, err)
	assert.Empty(t, line)
}
