package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ignite/sendgrid-source/internal/catalog"
)

// ErrConversion is returned when a remote value cannot be read as the field type.
var ErrConversion = errors.New("cannot convert value")

// Coerce converts a decoded JSON value to the Go value for t: string, int64,
// float64, bool or time.Time (UTC). nil stays nil.
func Coerce(v interface{}, t catalog.FieldType) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case catalog.TypeString:
		return toString(v), nil
	case catalog.TypeInteger:
		return toInt(v)
	case catalog.TypeFloat:
		return toFloat(v)
	case catalog.TypeBoolean:
		return toBool(v)
	case catalog.TypeTimestamp:
		return toTime(v)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrConversion, t)
	}
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func toInt(v interface{}) (int64, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q to integer", ErrConversion, x)
		}
		return floatToInt(f)
	case float64:
		return floatToInt(x)
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q to integer", ErrConversion, x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T to integer", ErrConversion, v)
	}
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %v to integer", ErrConversion, f)
	}
	return int64(f), nil
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q to float", ErrConversion, x)
		}
		return f, nil
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q to float", ErrConversion, x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T to float", ErrConversion, v)
	}
}

func toBool(v interface{}) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return false, fmt.Errorf("%w: %q to boolean", ErrConversion, x)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: %T to boolean", ErrConversion, v)
	}
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// toTime reads RFC 3339 strings, plain dates, and unix seconds as SendGrid
// suppression endpoints report them.
func toTime(v interface{}) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case json.Number:
		n, err := toInt(x)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(n, 0).UTC(), nil
	case float64:
		n, err := floatToInt(x)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(n, 0).UTC(), nil
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q to timestamp", ErrConversion, x)
	default:
		return time.Time{}, fmt.Errorf("%w: %T to timestamp", ErrConversion, v)
	}
}
