package value

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func wei(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "bad test literal %q", s)
	return n
}

func TestCostOf_SingleAttack(t *testing.T) {
	v := NewAttributeVector([AttributeCount]uint64{1})
	assert.Equal(t, int64(35), CostOf(v).Int64())
}

func TestCostOf_SingleHealingShielding(t *testing.T) {
	v := NewAttributeVector([AttributeCount]uint64{11: 1})
	assert.Equal(t, int64(18), CostOf(v).Int64())
}

func TestCostOf_AllTwos(t *testing.T) {
	v := NewAttributeVector([AttributeCount]uint64{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2})
	assert.Equal(t, int64(614), CostOf(v).Int64())
}

func TestCostOf_NilAndNegativeReadAsZero(t *testing.T) {
	var v AttributeVector
	v[0] = big.NewInt(-10)
	v[1] = big.NewInt(1)
	assert.Equal(t, int64(22), CostOf(v).Int64())
}

func TestCostOf_BeyondUint64(t *testing.T) {
	var v AttributeVector
	v[10] = wei(t, "18446744073709551616") // 2^64
	assert.Equal(t, "922337203685477580800", CostOf(v).String())
}

func TestCostOf_DoesNotMutateInput(t *testing.T) {
	v := NewAttributeVector([AttributeCount]uint64{3, 4})
	_ = CostOf(v)
	assert.Equal(t, int64(3), v.At(0).Int64())
	assert.Equal(t, int64(4), v.At(1).Int64())
}

func TestParseAttributes_WrongLength(t *testing.T) {
	_, err := ParseAttributes([]string{"1", "2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAttributeCount))
}

func TestParseAttributes_CoercesEachEntry(t *testing.T) {
	v, err := ParseAttributes([]string{"1", "abc", "", "-4", "2.9", "7x", "0", "0", "0", "0", "0", " 3 "})
	require.NoError(t, err)
	want := []int64{1, 0, 0, 0, 2, 7, 0, 0, 0, 0, 0, 3}
	for i, w := range want {
		assert.Equal(t, w, v.At(i).Int64(), "index %d", i)
	}
	assert.Equal(t, int64(35+80+105+54), CostOf(v).Int64())
}

func TestCoerceOrZero(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"abc", "0"},
		{"12abc", "12"},
		{"3.7", "3"},
		{"-5", "0"},
		{" 42 ", "42"},
		{"+7", "7"},
		{"007", "7"},
		{"1e3", "1"},
		{"123456789012345678901234567890", "123456789012345678901234567890"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CoerceOrZero(c.in).String(), "input %q", c.in)
	}
}

func TestToDisplayString(t *testing.T) {
	cases := []struct {
		amount string
		want   string
	}{
		{"0", "0"},
		{"1", "0.000000000000000001"},
		{"1500000000000000000", "1.5"},
		{"1000000000000000000", "1"},
		{"123000000000000000000", "123"},
		{"100000000000000001", "0.100000000000000001"},
	}
	for _, c := range cases {
		got, err := ToDisplayString(wei(t, c.amount), EtherDecimals)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "amount %s", c.amount)
	}
}

func TestToDisplayString_Nil(t *testing.T) {
	got, err := ToDisplayString(nil, EtherDecimals)
	require.NoError(t, err)
	assert.Equal(t, "0", got)
}

func TestToDisplayString_OtherDecimals(t *testing.T) {
	got, err := ToDisplayString(big.NewInt(12345), 2)
	require.NoError(t, err)
	assert.Equal(t, "123.45", got)

	got, err = ToDisplayString(big.NewInt(12300), 2)
	require.NoError(t, err)
	assert.Equal(t, "123", got)

	got, err = ToDisplayString(big.NewInt(12300), 0)
	require.NoError(t, err)
	assert.Equal(t, "12300", got)
}

func TestToDisplayString_RejectsNegative(t *testing.T) {
	_, err := ToDisplayString(big.NewInt(-1), EtherDecimals)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNegativeAmount))
}

func TestCoefficients_ReturnsCopy(t *testing.T) {
	c := Coefficients()
	c[0] = 999
	assert.Equal(t, int64(35), Coefficient(0))
	assert.Equal(t, int64(18), Coefficient(AttributeCount-1))
	assert.Equal(t, int64(0), Coefficient(-1))
	assert.Equal(t, int64(0), Coefficient(AttributeCount))
	assert.Equal(t, big.NewInt(35), CostOf(NewAttributeVector([AttributeCount]uint64{1})))
}

func TestConversions_RejectExcessiveDecimals(t *testing.T) {
	_, err := ToDisplayString(big.NewInt(1), 4000000000)
	require.ErrorIs(t, err, ErrDecimals)

	_, err = ToSmallestUnit("1", MaxDecimals+1)
	require.ErrorIs(t, err, ErrDecimals)

	got, err := ToSmallestUnit("1", MaxDecimals)
	require.NoError(t, err)
	display, err := ToDisplayString(got, MaxDecimals)
	require.NoError(t, err)
	assert.Equal(t, "1", display)
}

func TestToSmallestUnit(t *testing.T) {
	cases := []struct {
		display string
		want    string
	}{
		{"1.5", "1500000000000000000"},
		{"0", "0"},
		{"1", "1000000000000000000"},
		{"1.", "1000000000000000000"},
		{".5", "500000000000000000"},
		{"0.000000000000000001", "1"},
		{"007", "7000000000000000000"},
		{" 2.25 ", "2250000000000000000"},
	}
	for _, c := range cases {
		got, err := ToSmallestUnit(c.display, EtherDecimals)
		require.NoError(t, err, "display %q", c.display)
		assert.Equal(t, c.want, got.String(), "display %q", c.display)
	}
}

func TestToSmallestUnit_TruncatesBeyondDecimals(t *testing.T) {
	got, err := ParseEther("1.0000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", got.String())

	got, err = ParseEther("0.0000000000000000019")
	require.NoError(t, err)
	assert.Equal(t, "1", got.String(), "truncation must not round up")

	got, err = ToSmallestUnit("1.239", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(123), got.Int64())
}

func TestToSmallestUnit_ZeroDecimals(t *testing.T) {
	got, err := ToSmallestUnit("42.9", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Int64())

	got, err = ToSmallestUnit(".9", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Int64())
}

func TestToSmallestUnit_Malformed(t *testing.T) {
	for _, in := range []string{"", " ", ".", "abc", "1.2.3", "-1", "+1", "1e18", "1,5", "0x10", "1. 5"} {
		_, err := ToSmallestUnit(in, EtherDecimals)
		require.Error(t, err, "input %q", in)
		assert.True(t, errors.Is(err, ErrFormat), "input %q", in)
		var fe *FormatError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, in, fe.Input)
	}
}

// Property: cost -> display -> smallest unit reproduces the cost exactly.
func TestProperty_CostDisplayRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var raw [AttributeCount]uint64
		for i := range raw {
			raw[i] = rapid.Uint64().Draw(t, "attr")
		}
		cost := CostOf(NewAttributeVector(raw))

		display, err := FormatEther(cost)
		if err != nil {
			t.Fatalf("FormatEther(%s): %v", cost, err)
		}
		back, err := ParseEther(display)
		if err != nil {
			t.Fatalf("ParseEther(%q): %v", display, err)
		}
		if back.Cmp(cost) != 0 {
			t.Fatalf("roundtrip: %s -> %q -> %s", cost, display, back)
		}
	})
}

// Property: arbitrarily large amounts survive a display roundtrip.
func TestProperty_LargeAmountRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limbs := rapid.SliceOfN(rapid.Uint64(), 1, 5).Draw(t, "limbs")
		amount := new(big.Int)
		for _, l := range limbs {
			amount.Lsh(amount, 64)
			amount.Add(amount, new(big.Int).SetUint64(l))
		}
		decimals := uint(rapid.IntRange(0, 30).Draw(t, "decimals"))

		display, err := ToDisplayString(amount, decimals)
		if err != nil {
			t.Fatalf("ToDisplayString: %v", err)
		}
		back, err := ToSmallestUnit(display, decimals)
		if err != nil {
			t.Fatalf("ToSmallestUnit(%q): %v", display, err)
		}
		if back.Cmp(amount) != 0 {
			t.Fatalf("roundtrip: %s -> %q -> %s", amount, display, back)
		}
	})
}

// Property: display strings never carry trailing fractional zeros or a bare point.
func TestProperty_DisplayIsMinimal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := new(big.Int).SetUint64(rapid.Uint64().Draw(t, "amount"))
		display, err := FormatEther(amount)
		if err != nil {
			t.Fatalf("FormatEther: %v", err)
		}
		if strings.HasSuffix(display, ".") {
			t.Fatalf("bare decimal point in %q", display)
		}
		if strings.Contains(display, ".") && strings.HasSuffix(display, "0") {
			t.Fatalf("trailing zero in %q", display)
		}
	})
}

// Property: swapping two unequal values at indices with unequal coefficients changes the cost.
func TestProperty_CostKeepsIndexPairing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		i := rapid.IntRange(0, AttributeCount-1).Draw(t, "i")
		j := rapid.IntRange(0, AttributeCount-1).Draw(t, "j")
		if coefficients[i] == coefficients[j] {
			t.Skip("equal coefficients")
		}
		a := rapid.Uint64Range(0, 1_000_000).Draw(t, "a")
		b := rapid.Uint64Range(0, 1_000_000).Draw(t, "b")
		if a == b {
			t.Skip("equal values")
		}

		var raw [AttributeCount]uint64
		raw[i], raw[j] = a, b
		before := CostOf(NewAttributeVector(raw))
		raw[i], raw[j] = b, a
		after := CostOf(NewAttributeVector(raw))

		if before.Cmp(after) == 0 {
			t.Fatalf("swap of index %d and %d left cost unchanged at %s", i, j, before)
		}
	})
}

// Property: CoerceOrZero never yields a negative value.
func TestProperty_CoerceNonNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "raw")
		if CoerceOrZero(s).Sign() < 0 {
			t.Fatalf("CoerceOrZero(%q) is negative", s)
		}
	})
}
