package game

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"homestead/internal/goods"
)

// ArgType is the expected type of a decision argument.
type ArgType int

const (
	ArgString ArgType = iota
	ArgInt
	ArgGood
	ArgCoordinate
	ArgCoordinates
)

func (t ArgType) String() string {
	switch t {
	case ArgInt:
		return "int"
	case ArgGood:
		return "good"
	case ArgCoordinate:
		return "coordinate"
	case ArgCoordinates:
		return "coordinates"
	default:
		return "string"
	}
}

// MarshalText encodes the type by name.
func (t ArgType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name.
func (t *ArgType) UnmarshalText(b []byte) error {
	for _, k := range []ArgType{ArgString, ArgInt, ArgGood, ArgCoordinate, ArgCoordinates} {
		if k.String() == string(b) {
			*t = k
			return nil
		}
	}
	return &InvalidArgumentError{Name: "type", Reason: "unknown argument type " + string(b)}
}

// ArgSpec declares one argument a decision frame requires.
type ArgSpec struct {
	Name    string   `json:"name"`
	Type    ArgType  `json:"type"`
	Choices []string `json:"choices,omitempty"`
	Min     int      `json:"min,omitempty"`
	Max     int      `json:"max,omitempty"`
}

// coerce converts a decoded value into the argument's Go type. Values coming from
// JSON arrive as float64, string, []any and map[string]any.
func (a ArgSpec) coerce(raw any) (any, error) {
	switch a.Type {
	case ArgInt:
		n, err := toInt(raw)
		if err != nil {
			return nil, &InvalidArgumentError{Name: a.Name, Reason: err.Error()}
		}
		if n < a.Min || (a.Max > 0 && n > a.Max) {
			return nil, &InvalidArgumentError{Name: a.Name, Reason: fmt.Sprintf("%d outside %d..%d", n, a.Min, a.Max)}
		}
		return n, nil

	case ArgGood:
		var g goods.Good
		switch v := raw.(type) {
		case goods.Good:
			g = v
		case string:
			parsed, err := goods.ParseGood(v)
			if err != nil {
				return nil, &InvalidArgumentError{Name: a.Name, Reason: err.Error()}
			}
			g = parsed
		default:
			return nil, &InvalidArgumentError{Name: a.Name, Reason: fmt.Sprintf("expected good name, got %T", raw)}
		}
		if len(a.Choices) > 0 && !slices.Contains(a.Choices, g.String()) {
			return nil, &InvalidArgumentError{Name: a.Name, Reason: fmt.Sprintf("%s is not one of %v", g, a.Choices)}
		}
		return g, nil

	case ArgCoordinate:
		c, err := toCoordinate(raw)
		if err != nil {
			return nil, &InvalidArgumentError{Name: a.Name, Reason: err.Error()}
		}
		return c, nil

	case ArgCoordinates:
		var list []Coordinate
		switch v := raw.(type) {
		case []Coordinate:
			list = append(list, v...)
		case []any:
			for _, item := range v {
				c, err := toCoordinate(item)
				if err != nil {
					return nil, &InvalidArgumentError{Name: a.Name, Reason: err.Error()}
				}
				list = append(list, c)
			}
		default:
			return nil, &InvalidArgumentError{Name: a.Name, Reason: fmt.Sprintf("expected coordinate list, got %T", raw)}
		}
		if len(list) == 0 {
			return nil, &InvalidArgumentError{Name: a.Name, Reason: "empty coordinate list"}
		}
		return list, nil

	default:
		s, ok := raw.(string)
		if !ok {
			return nil, &InvalidArgumentError{Name: a.Name, Reason: fmt.Sprintf("expected string, got %T", raw)}
		}
		if len(a.Choices) > 0 && !slices.Contains(a.Choices, s) {
			return nil, &InvalidArgumentError{Name: a.Name, Reason: fmt.Sprintf("%q is not one of %v", s, a.Choices)}
		}
		return s, nil
	}
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not a whole number", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, err
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("expected number, got %T", raw)
}

func toCoordinate(raw any) (Coordinate, error) {
	switch v := raw.(type) {
	case Coordinate:
		return v, nil
	case []int:
		if len(v) == 2 {
			return At(v[0], v[1]), nil
		}
	case []any:
		if len(v) == 2 {
			r, err1 := toInt(v[0])
			c, err2 := toInt(v[1])
			if err1 == nil && err2 == nil {
				return At(r, c), nil
			}
		}
	case map[string]any:
		r, err1 := toInt(v["row"])
		c, err2 := toInt(v["col"])
		if err1 == nil && err2 == nil {
			return At(r, c), nil
		}
	}
	return Coordinate{}, fmt.Errorf("expected [row,col] or {row,col}, got %v", raw)
}
