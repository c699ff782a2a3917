package dataset

import (
	"fmt"
	"io"

	"github.com/sbinet/npyio/npy"
)

// ReadNpy decodes a C ordered numeric .npy array into a flat float32 buffer and its shape.
func ReadNpy(r io.Reader) ([]float32, []int64, error) {
	reader, err := npy.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading npy header: %w", err)
	}
	descr := reader.Header.Descr
	if descr.Fortran {
		return nil, nil, fmt.Errorf("fortran ordered arrays are not supported")
	}

	n := 1
	shape := make([]int64, len(descr.Shape))
	for i, d := range descr.Shape {
		n *= d
		shape[i] = int64(d)
	}

	switch descr.Type {
	case "<f4":
		data := make([]float32, n)
		if err := reader.Read(&data); err != nil {
			return nil, nil, fmt.Errorf("error reading npy data: %w", err)
		}
		return data, shape, nil
	case "<f8":
		data := make([]float64, n)
		if err := reader.Read(&data); err != nil {
			return nil, nil, fmt.Errorf("error reading npy data: %w", err)
		}
		return convert(data), shape, nil
	case "<i8":
		data := make([]int64, n)
		if err := reader.Read(&data); err != nil {
			return nil, nil, fmt.Errorf("error reading npy data: %w", err)
		}
		return convert(data), shape, nil
	case "<i4":
		data := make([]int32, n)
		if err := reader.Read(&data); err != nil {
			return nil, nil, fmt.Errorf("error reading npy data: %w", err)
		}
		return convert(data), shape, nil
	case "|u1":
		data := make([]uint8, n)
		if err := reader.Read(&data); err != nil {
			return nil, nil, fmt.Errorf("error reading npy data: %w", err)
		}
		return convert(data), shape, nil
	default:
		return nil, nil, fmt.Errorf("unsupported npy dtype %q", descr.Type)
	}
}

func convert[T float64 | int64 | int32 | uint8](data []T) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v)
	}
	return out
}
