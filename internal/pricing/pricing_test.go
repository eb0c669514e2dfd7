package pricing

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/equipment-market/internal/value"
)

func TestVerify_Default(t *testing.T) {
	assert.NoError(t, Verify(Default()))
}

func TestLoad_CheckedInArtifactMatches(t *testing.T) {
	table, err := Load(filepath.Join("..", "..", "configs", "pricing.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, table.Version)
	assert.NoError(t, Verify(table))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestVerify_SwappedCoefficients(t *testing.T) {
	table := Default()
	table.Coefficients[0], table.Coefficients[1] = table.Coefficients[1], table.Coefficients[0]

	err := Verify(table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMismatch))

	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	require.Len(t, mismatch.Divergences, 2)
	assert.Equal(t, Divergence{Index: 0, Artifact: 22, Compiled: 35}, mismatch.Divergences[0])
	assert.Equal(t, Divergence{Index: 1, Artifact: 35, Compiled: 22}, mismatch.Divergences[1])
	assert.Nil(t, mismatch.Decimals)
}

func TestVerify_DecimalsMismatch(t *testing.T) {
	table := Default()
	table.Decimals = 9

	var mismatch *MismatchError
	require.True(t, errors.As(Verify(table), &mismatch))
	require.NotNil(t, mismatch.Decimals)
	assert.Equal(t, [2]uint{9, 18}, *mismatch.Decimals)
	assert.Contains(t, mismatch.Error(), "decimals 9 != 18")
}

func TestVerify_InvalidTableFailsValidation(t *testing.T) {
	table := Default()
	table.Coefficients = table.Coefficients[:11]
	err := Verify(table)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMismatch))
	assert.Contains(t, err.Error(), "coefficients must have 12 entries")
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	table := Table{Decimals: 80, Coefficients: []int64{0}}
	err := table.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version must not be empty")
	assert.Contains(t, err.Error(), "decimals must be 0-77")
	assert.Contains(t, err.Error(), "coefficients must have 12 entries")
	assert.Contains(t, err.Error(), "coefficients[0] must be positive")
}

func TestParse(t *testing.T) {
	table, err := Parse([]byte(`
version: "v2"
decimals: 18
coefficients: [35, 22, 25, 20, 40, 15, 30, 30, 10, 12, 50, 18]
`))
	require.NoError(t, err)
	assert.Equal(t, "v2", table.Version)
	assert.NoError(t, Verify(table))
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("coefficients: [1, 2"))
	assert.Error(t, err)
}

func TestLoad_FromTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "drifted"
decimals: 18
coefficients: [35, 22, 25, 20, 40, 15, 30, 30, 10, 12, 50, 19]
`), 0o644))

	table, err := Load(path)
	require.NoError(t, err)

	var mismatch *MismatchError
	require.True(t, errors.As(Verify(table), &mismatch))
	assert.Equal(t, []Divergence{{Index: 11, Artifact: 19, Compiled: 18}}, mismatch.Divergences)
}

func TestDefault_IsACopy(t *testing.T) {
	table := Default()
	table.Coefficients[0] = 999
	assert.Equal(t, int64(35), value.Coefficient(0))
}

// Property: perturbing any single coefficient is reported at exactly that index.
func TestProperty_VerifyReportsPerturbedIndex(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		idx := rapid.IntRange(0, value.AttributeCount-1).Draw(t, "idx")
		delta := rapid.Int64Range(1, 1000).Draw(t, "delta")

		table := Default()
		table.Coefficients[idx] += delta

		var mismatch *MismatchError
		if !errors.As(Verify(table), &mismatch) {
			t.Fatalf("expected mismatch for index %d", idx)
		}
		if len(mismatch.Divergences) != 1 || mismatch.Divergences[0].Index != idx {
			t.Fatalf("expected single divergence at %d, got %+v", idx, mismatch.Divergences)
		}
	})
}
