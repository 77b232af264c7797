package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMicro_TruncatesNotRounds(t *testing.T) {
	m, err := ParseMicro("1.2345675")
	require.NoError(t, err)
	assert.Equal(t, Micro(1_234_567), m)

	m, err = ParseMicro("0.9999999")
	require.NoError(t, err)
	assert.Equal(t, Micro(999_999), m)
}

func TestParseMicro_Valid(t *testing.T) {
	cases := map[string]Micro{
		"0":        0,
		"1":        1_000_000,
		"  2.5 ":   2_500_000,
		"0.000001": 1,
		"12.34":    12_340_000,
		"0.000000": 0,
	}
	for in, want := range cases {
		got, err := ParseMicro(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseMicro_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "1.2.3", "99999999999999999999"} {
		_, err := ParseMicro(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestTotalFor_UsesFlooredPerShare(t *testing.T) {
	price, err := ParseMicro("1.2345675")
	require.NoError(t, err)

	total, err := TotalFor(price, 3)
	require.NoError(t, err)
	// 1234567 * 3, no 3.7037025 redondeado por separado
	assert.Equal(t, Micro(3_703_701), total)
}

func TestTotalFor_Overflow(t *testing.T) {
	_, err := TotalFor(Micro(math.MaxUint64/2), 3)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMicro_String(t *testing.T) {
	assert.Equal(t, "1.234567", Micro(1_234_567).String())
	assert.Equal(t, "0.000001", Micro(1).String())
	assert.Equal(t, "0.000000", Micro(0).String())
	assert.Equal(t, "1.234567", Micro(1_234_567).Decimal().StringFixed(6))
}

func TestMicro_PerShare(t *testing.T) {
	assert.Equal(t, Micro(333_333), Micro(1_000_000).PerShare(3))
	assert.Equal(t, Micro(0), Micro(1_000_000).PerShare(0))
}

func TestSlippage(t *testing.T) {
	assert.Equal(t, Micro(950), SlippageFloor(1000, 5))
	assert.Equal(t, Micro(1050), SlippageCeil(1000, 5))
	assert.Equal(t, Micro(1000), SlippageFloor(1000, 0))
	assert.Equal(t, Micro(0), SlippageFloor(1000, 100))
	assert.Equal(t, Micro(0), SlippageFloor(1000, 150))
	// integer math like the engine: 999*3/100 = 29
	assert.Equal(t, Micro(970), SlippageFloor(999, 3))
	assert.Equal(t, Micro(1028), SlippageCeil(999, 3))
	assert.Equal(t, Micro(math.MaxUint64), SlippageCeil(Micro(math.MaxUint64), 1))
}
