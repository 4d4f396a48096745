package openmm

import (
	"fmt"

	"github.com/spf13/cast"
)

// Method arguments come from YAML catalogs or from Go code, so a number may
// arrive as int, float64, or string. These helpers take whatever is
// reasonable and return the engine's types.

func toInt(a any) (int, error) {
	if f, ok := a.(float64); ok && f != float64(int(f)) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return cast.ToIntE(a)
}

func toFloat(a any) (float64, error) {
	return cast.ToFloat64E(a)
}

func toString(a any) (string, error) {
	return cast.ToStringE(a)
}

func toBool(a any) (bool, error) {
	return cast.ToBoolE(a)
}

// toFloats converts a parameter group (a slice of numbers) into []float64.
func toFloats(a any) ([]float64, error) {
	switch v := a.(type) {
	case []float64:
		return append([]float64(nil), v...), nil
	case []int:
		ret := make([]float64, len(v))
		for i, n := range v {
			ret[i] = float64(n)
		}
		return ret, nil
	case []any:
		ret := make([]float64, len(v))
		for i, n := range v {
			f, err := cast.ToFloat64E(n)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			ret[i] = f
		}
		return ret, nil
	}
	return nil, fmt.Errorf("%v (%T) is not a list of numbers", a, a)
}

// toInts converts the first n arguments in args to integers.
func toInts(args []any, n int) ([]int, error) {
	ret := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := toInt(args[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		ret[i] = v
	}
	return ret, nil
}

// spreadParams expands a trailing parameter group, the way restraint
// interactions pass their parameters, into single arguments. args is
// returned as is if it isn't nparticles indexes plus one group.
func spreadParams(args []any, nparticles int) []any {
	if len(args) != nparticles+1 {
		return args
	}
	vals, err := toFloats(args[nparticles])
	if err != nil {
		return args
	}
	ret := make([]any, 0, nparticles+len(vals))
	ret = append(ret, args[:nparticles]...)
	for _, v := range vals {
		ret = append(ret, v)
	}
	return ret
}

func argError(class, method string, err error) error {
	return fmt.Errorf("%s.%s: %w: %w", class, method, ErrArguments, err)
}

// nargs checks that args has exactly n elements.
func nargs(class, method string, args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s.%s: %w: expected %d arguments, got %d", class, method, ErrArguments, n, len(args))
	}
	return nil
}
