package configorm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastRaw(t *testing.T) {
	t.Run("Scalars", func(t *testing.T) {
		v, err := castRaw(KindInteger, 0, " 42 ")
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)

		v, err = castRaw(KindFloat, 0, "2.5")
		require.NoError(t, err)
		assert.Equal(t, 2.5, v)

		v, err = castRaw(KindString, 0, "  padded  ")
		require.NoError(t, err)
		assert.Equal(t, "padded", v)

		_, err = castRaw(KindInteger, 0, "4.2")
		assert.Error(t, err)
		_, err = castRaw(KindFloat, 0, "abc")
		assert.Error(t, err)
	})

	t.Run("Booleans", func(t *testing.T) {
		cases := map[string]bool{
			"True":  true,
			"true":  true,
			"1":     true,
			"False": false,
			"false": false,
			"0":     false,
			"":      false,
			"yes":   true,
			"nope":  true,
		}
		for raw, want := range cases {
			v, err := castRaw(KindBoolean, 0, raw)
			require.NoError(t, err)
			assert.Equal(t, want, v, "raw %q", raw)
		}
	})

	t.Run("Lists", func(t *testing.T) {
		v, err := castRaw(KindList, KindInteger, "[1, 2, 3]")
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, v)

		v, err = castRaw(KindList, KindString, "['a', \"b\", c]")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, v)

		v, err = castRaw(KindList, KindFloat, "[0.5, 2]")
		require.NoError(t, err)
		assert.Equal(t, []float64{0.5, 2}, v)

		v, err = castRaw(KindList, KindBoolean, "[True, False]")
		require.NoError(t, err)
		assert.Equal(t, []bool{true, false}, v)

		v, err = castRaw(KindList, KindInteger, "[]")
		require.NoError(t, err)
		assert.Equal(t, []int64{}, v)

		_, err = castRaw(KindList, KindInteger, "[1, x]")
		assert.ErrorContains(t, err, "element 1")
	})
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "42", formatValue(KindInteger, int64(42)))
	assert.Equal(t, "-7", formatValue(KindInteger, int64(-7)))
	assert.Equal(t, "True", formatValue(KindBoolean, true))
	assert.Equal(t, "False", formatValue(KindBoolean, false))
	assert.Equal(t, "text", formatValue(KindString, "text"))

	assert.Equal(t, "3.0", formatValue(KindFloat, 3.0))
	assert.Equal(t, "0.25", formatValue(KindFloat, 0.25))
	assert.Equal(t, "1e-05", formatValue(KindFloat, 0.00001))
	assert.Equal(t, "1e+16", formatValue(KindFloat, 1e16))
	assert.Equal(t, "nan", formatValue(KindFloat, math.NaN()))
	assert.Equal(t, "-inf", formatValue(KindFloat, math.Inf(-1)))

	assert.Equal(t, "[11, 22, 33]", formatValue(KindList, []int64{11, 22, 33}))
	assert.Equal(t, "['a', 'b']", formatValue(KindList, []string{"a", "b"}))
	assert.Equal(t, "[1.0, 2.5]", formatValue(KindList, []float64{1, 2.5}))
	assert.Equal(t, "[True]", formatValue(KindList, []bool{true}))
	assert.Equal(t, "[]", formatValue(KindList, []int64{}))
}

func TestFormatRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1.5, -2.25, 1e-7, 123456789.125, 5e20} {
		v, err := castRaw(KindFloat, 0, formatValue(KindFloat, f))
		require.NoError(t, err)
		assert.Equal(t, f, v)
	}
}

func TestListRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		elem Kind
		list any
	}{
		{"Integers", KindInteger, []int64{-3, 0, 42, math.MaxInt64}},
		{"Floats", KindFloat, []float64{0, 1.5, -2.25, 1e-7}},
		{"Strings", KindString, []string{"alpha", "two words", ""}},
		{"Booleans", KindBoolean, []bool{true, false, true}},
		{"Empty", KindInteger, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := castRaw(KindList, tt.elem, formatValue(KindList, tt.list))
			require.NoError(t, err)
			assert.Equal(t, tt.list, v)
		})
	}
}

func TestCloneValue(t *testing.T) {
	src := []string{"a", "b"}
	dup := cloneValue(src).([]string)
	dup[0] = "z"
	assert.Equal(t, []string{"a", "b"}, src)
	assert.Equal(t, int64(7), cloneValue(int64(7)))
}

func TestCoerceValue(t *testing.T) {
	v, ok := coerceValue(KindInteger, 0, 7, false)
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)

	v, ok = coerceValue(KindInteger, 0, uint8(3), false)
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)

	_, ok = coerceValue(KindInteger, 0, uint64(math.MaxUint64), false)
	assert.False(t, ok)

	_, ok = coerceValue(KindFloat, 0, 3, false)
	assert.False(t, ok, "integers are not floats on write")

	v, ok = coerceValue(KindFloat, 0, 3, true)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = coerceValue(KindString, 0, 5, false)
	assert.False(t, ok)

	v, ok = coerceValue(KindList, KindInteger, []int{1, 2}, false)
	assert.True(t, ok)
	assert.Equal(t, []int64{1, 2}, v)

	v, ok = coerceValue(KindList, KindString, []any{"a", "b"}, false)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)

	_, ok = coerceValue(KindList, KindString, []any{"a", 1}, false)
	assert.False(t, ok)

	_, ok = coerceValue(KindList, KindInteger, "not a list", false)
	assert.False(t, ok)
}

func TestKindOf(t *testing.T) {
	k, e, ok := kindOf[[]bool]()
	assert.True(t, ok)
	assert.Equal(t, KindList, k)
	assert.Equal(t, KindBoolean, e)

	_, _, ok = kindOf[int]()
	assert.False(t, ok)
	_, _, ok = kindOf[[]complex128]()
	assert.False(t, ok)

	assert.Equal(t, "list", KindList.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
