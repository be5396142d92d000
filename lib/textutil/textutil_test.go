package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrailingDigits(t *testing.T) {
	require.Equal(t, "1300771234567", TrailingDigits("户号2: 1300771234567"))
	require.Equal(t, "42", TrailingDigits("abc 17 def 42"))
	require.Equal(t, "", TrailingDigits("no numbers here"))
}

func TestMatchLabel(t *testing.T) {
	require.True(t, MatchLabel("用电户号：", "用电户号"))
	require.True(t, MatchLabel("  用电户号 : ", "用电户号"))
	// one-glyph glitch still matches
	require.True(t, MatchLabel("用电户水", "用电户号"))
	require.False(t, MatchLabel("缴费记录", "用电户号"))
	require.False(t, MatchLabel("", "用电户号"))
}

func TestExtractNumber(t *testing.T) {
	require.Equal(t, "320.5", ExtractNumber("320.5元"))
	require.Equal(t, "-12.3", ExtractNumber("-12.3"))
	require.Equal(t, "1234.56", ExtractNumber("1,234.56 kWh"))
	require.Equal(t, "", ExtractNumber("暂无数据"))
}

func TestParseNumber(t *testing.T) {
	v, ok := ParseNumber("1,234.56 kWh")
	require.True(t, ok)
	require.Equal(t, 1234.56, v)

	_, ok = ParseNumber("暂无数据")
	require.False(t, ok)
}
