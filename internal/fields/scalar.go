package fields

import (
	"fmt"
	"reflect"
	"strconv"
)

// setScalar assigns a parsed literal into rv, which must be an addressable
// scalar of matching numeric kind.
func setScalar(rv reflect.Value, literal string) error {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(literal, 10, rv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer default %q: %w", literal, err)
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(literal, 10, rv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer default %q: %w", literal, err)
		}
		rv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(literal, rv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float default %q: %w", literal, err)
		}
		rv.SetFloat(f)
	default:
		return fmt.Errorf("unsupported scalar kind %s", rv.Kind())
	}

	return nil
}
