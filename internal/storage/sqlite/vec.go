package sqlite

import (
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/sandevgo/samara/internal/core"
)

// serializeVector encodes v as the float32 blob vec0 columns and MATCH expect.
func serializeVector(v []float32) ([]byte, error) {
	blob, err := sqlite_vec.SerializeFloat32(v)
	if err != nil {
		return nil, fmt.Errorf("%w: serialize embedding: %v", core.ErrVectorStore, err)
	}
	return blob, nil
}
