package primitive

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/reeflective/typedcli/internal/markers"
	"github.com/reeflective/typedcli/internal/normalize"
)

// BuiltinRules returns the default rule set. A registry tries the last
// element of this slice first (spec.md §4.B's LIFO lookup, so a caller's
// own PushPrimitive rule always gets first refusal), so the most specific
// rules — the ones that must shadow a generic numeric/string match, like
// time.Duration shadowing the plain int64 rule — are listed last here and
// the generic fallbacks first. Callers that want to override a built-in
// push their own rule after acquiring the registry.
func BuiltinRules() []Rule {
	return []Rule{
		floatRule,
		uintRule,
		intRule,
		stringRule,
		pathRule,
		mapRule,
		sliceRule,
		arrayRule,
		enumRule,
		timeRule,
		durationRule,
		counterRule,
		boolRule,
	}
}

func boolRule(t normalize.Type, _ Resolver) (Spec, bool, error) {
	if t.Go.Kind() != reflect.Bool {
		return Spec{}, false, nil
	}

	return Spec{
		Nargs:   Fixed(0),
		Metavar: "",
		Action:  ActionStoreTrue,
		Instantiate: func(tokens []string) (any, error) {
			if len(tokens) == 0 {
				return true, nil
			}

			b, err := strconv.ParseBool(tokens[0])
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInstantiate, err)
			}

			return b, nil
		},
		Predicate: func(v any) bool { _, ok := v.(bool); return ok },
		Print: func(v any) ([]string, error) {
			if v.(bool) {
				return []string{"true"}, nil
			}

			return []string{"false"}, nil
		},
	}, true, nil
}

// counterRule matches an integer field carrying markers.UseCounterAction,
// turning each occurrence (-v, --verbose, or a bundled -vvv the driver
// expands) into a zero-arity increment rather than a value to parse.
func counterRule(t normalize.Type, _ Resolver) (Spec, bool, error) {
	if !t.Markers.Has(markers.UseCounterAction) {
		return Spec{}, false, nil
	}

	switch t.Go.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return Spec{}, false, nil
	}

	return Spec{
		Nargs:  Fixed(0),
		Action: ActionCount,
		Instantiate: func([]string) (any, error) {
			return 1, nil
		},
		Predicate: func(v any) bool { _, ok := v.(int); return ok },
		Print: func(v any) ([]string, error) {
			return []string{fmt.Sprint(v)}, nil
		},
	}, true, nil
}

// Path is a string distinguished at the type level as a filesystem path
// (spec.md §4.C's "filesystem path" row). It carries no validation of its
// own — typedcli only resolves its argument shape, not whether the path
// exists — but its distinct named type is what lets pathRule shadow the
// generic string rule, and is the hook a completion emitter would use to
// pick a path-aware shell suggestion instead of a plain string one.
type Path string

var pathType = reflect.TypeOf(Path(""))

// pathRule matches the Path named type, wrapping exactly like stringRule
// but with a metavar that advertises the filesystem-path shape to help
// text and, eventually, shell completion.
func pathRule(t normalize.Type, _ Resolver) (Spec, bool, error) {
	if t.Go != pathType {
		return Spec{}, false, nil
	}

	return Spec{
		Nargs:   Fixed(1),
		Metavar: "PATH",
		Instantiate: func(tokens []string) (any, error) {
			return Path(tokens[0]), nil
		},
		Predicate: func(v any) bool { _, ok := v.(Path); return ok },
		Print: func(v any) ([]string, error) {
			return []string{string(v.(Path))}, nil
		},
	}, true, nil
}

func stringRule(t normalize.Type, _ Resolver) (Spec, bool, error) {
	if t.Go.Kind() != reflect.String {
		return Spec{}, false, nil
	}

	return Spec{
		Nargs:   Fixed(1),
		Metavar: "STR",
		Choices: t.Config.Choices,
		Instantiate: func(tokens []string) (any, error) {
			return reflect.ValueOf(tokens[0]).Convert(t.Go).Interface(), nil
		},
		Predicate: func(v any) bool { return reflect.TypeOf(v) != nil && reflect.TypeOf(v).Kind() == reflect.String },
		Print: func(v any) ([]string, error) {
			return []string{reflect.ValueOf(v).String()}, nil
		},
	}, true, nil
}

func intRule(t normalize.Type, _ Resolver) (Spec, bool, error) {
	switch t.Go.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return Spec{}, false, nil
	}

	bits := t.Go.Bits()
	goType := t.Go

	return Spec{
		Nargs:   Fixed(1),
		Metavar: "INT",
		Choices: t.Config.Choices,
		Instantiate: func(tokens []string) (any, error) {
			n, err := strconv.ParseInt(tokens[0], 10, bits)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInstantiate, err)
			}

			return reflect.ValueOf(n).Convert(goType).Interface(), nil
		},
		Predicate: func(v any) bool {
			rt := reflect.TypeOf(v)
			return rt != nil && rt.ConvertibleTo(goType) && reflect.ValueOf(v).CanInt()
		},
		Print: func(v any) ([]string, error) {
			return []string{strconv.FormatInt(reflect.ValueOf(v).Int(), 10)}, nil
		},
	}, true, nil
}

func uintRule(t normalize.Type, _ Resolver) (Spec, bool, error) {
	switch t.Go.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return Spec{}, false, nil
	}

	bits := t.Go.Bits()
	goType := t.Go

	return Spec{
		Nargs:   Fixed(1),
		Metavar: "UINT",
		Choices: t.Config.Choices,
		Instantiate: func(tokens []string) (any, error) {
			n, err := strconv.ParseUint(tokens[0], 10, bits)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInstantiate, err)
			}

			return reflect.ValueOf(n).Convert(goType).Interface(), nil
		},
		Predicate: func(v any) bool {
			rt := reflect.TypeOf(v)
			return rt != nil && rt.ConvertibleTo(goType) && reflect.ValueOf(v).CanUint()
		},
		Print: func(v any) ([]string, error) {
			return []string{strconv.FormatUint(reflect.ValueOf(v).Uint(), 10)}, nil
		},
	}, true, nil
}

func floatRule(t normalize.Type, _ Resolver) (Spec, bool, error) {
	switch t.Go.Kind() {
	case reflect.Float32, reflect.Float64:
	default:
		return Spec{}, false, nil
	}

	bits := t.Go.Bits()
	goType := t.Go

	return Spec{
		Nargs:   Fixed(1),
		Metavar: "FLOAT",
		Instantiate: func(tokens []string) (any, error) {
			f, err := strconv.ParseFloat(tokens[0], bits)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInstantiate, err)
			}

			return reflect.ValueOf(f).Convert(goType).Interface(), nil
		},
		Predicate: func(v any) bool {
			rt := reflect.TypeOf(v)
			return rt != nil && rt.ConvertibleTo(goType) && reflect.ValueOf(v).CanFloat()
		},
		Print: func(v any) ([]string, error) {
			return []string{strconv.FormatFloat(reflect.ValueOf(v).Float(), 'g', -1, bits)}, nil
		},
	}, true, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func durationRule(t normalize.Type, _ Resolver) (Spec, bool, error) {
	if t.Go != durationType {
		return Spec{}, false, nil
	}

	return Spec{
		Nargs:   Fixed(1),
		Metavar: "DURATION",
		Instantiate: func(tokens []string) (any, error) {
			d, err := time.ParseDuration(tokens[0])
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInstantiate, err)
			}

			return d, nil
		},
		Predicate: func(v any) bool { _, ok := v.(time.Duration); return ok },
		Print: func(v any) ([]string, error) {
			return []string{v.(time.Duration).String()}, nil
		},
	}, true, nil
}

var timeType = reflect.TypeOf(time.Time{})

func timeRule(t normalize.Type, _ Resolver) (Spec, bool, error) {
	if t.Go != timeType {
		return Spec{}, false, nil
	}

	const layout = time.RFC3339

	return Spec{
		Nargs:   Fixed(1),
		Metavar: "RFC3339",
		Instantiate: func(tokens []string) (any, error) {
			ts, err := time.Parse(layout, tokens[0])
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInstantiate, err)
			}

			return ts, nil
		},
		Predicate: func(v any) bool { _, ok := v.(time.Time); return ok },
		Print: func(v any) ([]string, error) {
			return []string{v.(time.Time).Format(layout)}, nil
		},
	}, true, nil
}

// enumRule matches a named integer or string type carrying an explicit
// choices configuration (either tag-declared, or — with
// markers.EnumChoicesFromValues — derived by the caller ahead of time and
// placed on Config.Choices). It must run before the generic int/string
// rules since those would otherwise shadow it.
func enumRule(t normalize.Type, _ Resolver) (Spec, bool, error) {
	if t.AliasName == "" || len(t.Config.Choices) == 0 {
		return Spec{}, false, nil
	}

	switch t.Go.Kind() {
	case reflect.String:
		goType := t.Go

		return Spec{
			Nargs:   Fixed(1),
			Metavar: t.AliasName,
			Choices: t.Config.Choices,
			Instantiate: func(tokens []string) (any, error) {
				return reflect.ValueOf(tokens[0]).Convert(goType).Interface(), nil
			},
			Predicate: func(v any) bool { return reflect.TypeOf(v) == goType },
			Print: func(v any) ([]string, error) {
				return []string{reflect.ValueOf(v).String()}, nil
			},
		}, true, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		goType := t.Go
		bits := t.Go.Bits()

		return Spec{
			Nargs:   Fixed(1),
			Metavar: t.AliasName,
			Choices: t.Config.Choices,
			Instantiate: func(tokens []string) (any, error) {
				n, err := strconv.ParseInt(tokens[0], 10, bits)
				if err != nil {
					return nil, fmt.Errorf("%w: %w", ErrInstantiate, err)
				}

				return reflect.ValueOf(n).Convert(goType).Interface(), nil
			},
			Predicate: func(v any) bool { return reflect.TypeOf(v) == goType },
			Print: func(v any) ([]string, error) {
				return []string{strconv.FormatInt(reflect.ValueOf(v).Int(), 10)}, nil
			},
		}, true, nil
	}

	return Spec{}, false, nil
}

// arrayRule matches fixed-size arrays as a tuple: one-shot backtracking
// over |t.Go.Len()| identical element specs.
func arrayRule(t normalize.Type, resolve Resolver) (Spec, bool, error) {
	if t.Go.Kind() != reflect.Array {
		return Spec{}, false, nil
	}

	elemSpec, err := resolve(t.Args[0])
	if err != nil {
		return Spec{}, false, err
	}

	n := t.Go.Len()
	elemType := t.Go.Elem()
	goType := t.Go

	specs := make([]Spec, n)
	for i := range specs {
		specs[i] = elemSpec
	}

	total := Fixed(n)
	if elemSpec.Nargs.Variable {
		total = Star
	}

	return Spec{
		Nargs:   total,
		Metavar: elemSpec.Metavar,
		Instantiate: func(tokens []string) (any, error) {
			matches, err := Backtrack(specs, tokens, false)
			if err != nil {
				return nil, err
			}

			out := reflect.New(goType).Elem()
			for i, m := range matches {
				out.Index(i).Set(reflect.ValueOf(m.Value).Convert(elemType))
			}

			return out.Interface(), nil
		},
		Predicate: func(v any) bool { rt := reflect.TypeOf(v); return rt != nil && rt == goType },
		Print: func(v any) ([]string, error) {
			rv := reflect.ValueOf(v)

			var out []string

			for i := 0; i < rv.Len(); i++ {
				tokens, err := elemSpec.Print(rv.Index(i).Interface())
				if err != nil {
					return nil, err
				}

				out = append(out, tokens...)
			}

			return out, nil
		},
	}, true, nil
}

// sliceRule matches variable-length sequences: repeating backtracking
// over a single element spec, cyclically, until input is exhausted.
func sliceRule(t normalize.Type, resolve Resolver) (Spec, bool, error) {
	if t.Go.Kind() != reflect.Slice {
		return Spec{}, false, nil
	}

	elemSpec, err := resolve(t.Args[0])
	if err != nil {
		return Spec{}, false, err
	}

	elemType := t.Go.Elem()
	goType := t.Go

	return Spec{
		Nargs:   Star,
		Metavar: elemSpec.Metavar,
		Instantiate: func(tokens []string) (any, error) {
			matches, err := Backtrack([]Spec{elemSpec}, tokens, true)
			if err != nil {
				return nil, err
			}

			out := reflect.MakeSlice(goType, 0, len(matches))
			for _, m := range matches {
				out = reflect.Append(out, reflect.ValueOf(m.Value).Convert(elemType))
			}

			return out.Interface(), nil
		},
		Predicate: func(v any) bool { rt := reflect.TypeOf(v); return rt != nil && rt == goType },
		Print: func(v any) ([]string, error) {
			rv := reflect.ValueOf(v)

			var out []string

			for i := 0; i < rv.Len(); i++ {
				tokens, err := elemSpec.Print(rv.Index(i).Interface())
				if err != nil {
					return nil, err
				}

				out = append(out, tokens...)
			}

			return out, nil
		},
	}, true, nil
}

// mapRule matches maps of any key type the registry can resolve: repeating
// backtracking over a [key, value] pair of specs, so a flat token run of
// alternating keys and values ("a 1 b 2") resolves into key/value pairs.
func mapRule(t normalize.Type, resolve Resolver) (Spec, bool, error) {
	if t.Go.Kind() != reflect.Map {
		return Spec{}, false, nil
	}

	keySpec, err := resolve(t.Args[0])
	if err != nil {
		return Spec{}, false, err
	}

	valSpec, err := resolve(t.Args[1])
	if err != nil {
		return Spec{}, false, err
	}

	keyType := t.Go.Key()
	valType := t.Go.Elem()
	goType := t.Go

	return Spec{
		Nargs:   Star,
		Metavar: fmt.Sprintf("%s %s", keySpec.Metavar, valSpec.Metavar),
		Instantiate: func(tokens []string) (any, error) {
			matches, err := Backtrack([]Spec{keySpec, valSpec}, tokens, true)
			if err != nil {
				return nil, err
			}

			out := reflect.MakeMapWithSize(goType, len(matches)/2)

			for i := 0; i+1 < len(matches); i += 2 {
				k := reflect.ValueOf(matches[i].Value).Convert(keyType)
				v := reflect.ValueOf(matches[i+1].Value).Convert(valType)
				out.SetMapIndex(k, v)
			}

			return out.Interface(), nil
		},
		Predicate: func(v any) bool { rt := reflect.TypeOf(v); return rt != nil && rt == goType },
		Print: func(v any) ([]string, error) {
			rv := reflect.ValueOf(v)

			var out []string

			iter := rv.MapRange()
			for iter.Next() {
				kt, err := keySpec.Print(iter.Key().Interface())
				if err != nil {
					return nil, err
				}

				vt, err := valSpec.Print(iter.Value().Interface())
				if err != nil {
					return nil, err
				}

				out = append(out, kt...)
				out = append(out, vt...)
			}

			return out, nil
		},
	}, true, nil
}
