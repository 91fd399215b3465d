package sqlite

import (
	"database/sql/driver"
	"fmt"
	"math"
	"sync"

	"github.com/pgvector/pgvector-go"
	msqlite "modernc.org/sqlite"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// registerFunctions installs cosine_similarity(a, b) on the driver. Both
// arguments are embeddings in pgvector text form ("[1,2,3]"). It yields NULL
// when either side is missing, empty or of a different dimension.
func registerFunctions() error {
	registerOnce.Do(func() {
		registerErr = msqlite.RegisterDeterministicScalarFunction("cosine_similarity", 2,
			func(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				a, ok, err := vectorArg(args[0])
				if err != nil || !ok {
					return nil, err
				}
				b, ok, err := vectorArg(args[1])
				if err != nil || !ok {
					return nil, err
				}
				sim, ok := cosine(a.Slice(), b.Slice())
				if !ok {
					return nil, nil
				}
				return sim, nil
			})
	})
	return registerErr
}

func vectorArg(v driver.Value) (pgvector.Vector, bool, error) {
	if v == nil {
		return pgvector.Vector{}, false, nil
	}
	var vec pgvector.Vector
	switch v.(type) {
	case string, []byte:
		if err := vec.Scan(v); err != nil {
			return pgvector.Vector{}, false, fmt.Errorf("cosine_similarity: %w", err)
		}
	default:
		return pgvector.Vector{}, false, fmt.Errorf("cosine_similarity: unsupported argument %T", v)
	}
	return vec, true, nil
}

func cosine(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}

// nullVector converts an optional embedding into a column value.
func nullVector(v *pgvector.Vector) any {
	if v == nil || len(v.Slice()) == 0 {
		return nil
	}
	return *v
}

// scanVector reads an optional embedding column.
func scanVector(raw *string) (*pgvector.Vector, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var vec pgvector.Vector
	if err := vec.Scan(*raw); err != nil {
		return nil, fmt.Errorf("failed to decode embedding: %w", err)
	}
	return &vec, nil
}
