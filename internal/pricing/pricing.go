// Package pricing loads the versioned pricing artifact shared with the
// marketplace contract and checks it against the compiled-in constants.
package pricing

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/equipment-market/internal/value"
)


// ErrMismatch is matched by every *MismatchError.
var ErrMismatch = errors.New("pricing table does not match compiled constants")

// Table is one version of the pricing formula.
type Table struct {
	Version      string  `yaml:"version"`
	Decimals     uint    `yaml:"decimals"`
	Coefficients []int64 `yaml:"coefficients"`
}

// Default returns the table this binary was compiled with.
func Default() Table {
	compiled := value.Coefficients()
	coeffs := make([]int64, value.AttributeCount)
	copy(coeffs, compiled[:])
	return Table{
		Version:      "compiled",
		Decimals:     value.EtherDecimals,
		Coefficients: coeffs,
	}
}

// Validate checks the structural invariants of t.
//
// Postcondition: Returns nil if t is well formed, or an error describing all violations.
func (t Table) Validate() error {
	var errs []string
	if t.Version == "" {
		errs = append(errs, "version must not be empty")
	}
	if t.Decimals > value.MaxDecimals {
		errs = append(errs, fmt.Sprintf("decimals must be 0-%d, got %d", value.MaxDecimals, t.Decimals))
	}
	if len(t.Coefficients) != value.AttributeCount {
		errs = append(errs, fmt.Sprintf("coefficients must have %d entries, got %d", value.AttributeCount, len(t.Coefficients)))
	}
	for i, c := range t.Coefficients {
		if c <= 0 {
			errs = append(errs, fmt.Sprintf("coefficients[%d] must be positive, got %d", i, c))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid pricing table: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Divergence is one coefficient that differs from the compiled constant.
type Divergence struct {
	Index    int
	Artifact int64
	Compiled int64
}

// MismatchError lists every way a table diverges from the compiled constants.
type MismatchError struct {
	Version     string
	Decimals    *[2]uint
	Divergences []Divergence
}

func (e *MismatchError) Error() string {
	var parts []string
	if e.Decimals != nil {
		parts = append(parts, fmt.Sprintf("decimals %d != %d", e.Decimals[0], e.Decimals[1]))
	}
	for _, d := range e.Divergences {
		parts = append(parts, fmt.Sprintf("coefficients[%d] %d != %d", d.Index, d.Artifact, d.Compiled))
	}
	return fmt.Sprintf("pricing table %q diverges: %s", e.Version, strings.Join(parts, "; "))
}

// Is reports whether target is ErrMismatch.
func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

// Verify checks t against value.Coefficients() and value.EtherDecimals.
//
// Precondition: t.Validate() returns nil.
// Postcondition: Returns nil on an exact match, or a *MismatchError.
func Verify(t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	mismatch := &MismatchError{Version: t.Version}
	if t.Decimals != value.EtherDecimals {
		mismatch.Decimals = &[2]uint{t.Decimals, value.EtherDecimals}
	}
	compiled := value.Coefficients()
	for i, c := range t.Coefficients {
		if c != compiled[i] {
			mismatch.Divergences = append(mismatch.Divergences, Divergence{
				Index:    i,
				Artifact: c,
				Compiled: compiled[i],
			})
		}
	}
	if mismatch.Decimals != nil || len(mismatch.Divergences) > 0 {
		return mismatch
	}
	return nil
}

// Parse decodes and validates a YAML pricing table.
func Parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("decoding pricing table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Load reads and validates the pricing table at path.
//
// Postcondition: Returns a valid Table or a non-nil error.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("reading pricing table: %w", err)
	}
	return Parse(data)
}
