package server

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ParamType is the declared type of a route parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeFile    ParamType = "file"
)

// Parameter locations.
const (
	InForm = "form"
	InPath = "path"
)

// Param declares one route parameter. Default is applied when the value is
// absent or empty.
type Param struct {
	Name        string    `json:"name"`
	In          string    `json:"in"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Default     string    `json:"default,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Description string    `json:"description"`
}

// Args holds bound parameter values: string, int, float64 or bool according
// to the declared type. Absent optional parameters without a default are
// missing from the map.
type Args map[string]any

// Has reports whether name was supplied or defaulted.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

func (a Args) Int(name string) int {
	v, _ := a[name].(int)
	return v
}

func (a Args) Float(name string) float64 {
	v, _ := a[name].(float64)
	return v
}

func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// bind reads and type-checks every declared parameter. File parameters are
// left to the handler.
func bind(params []Param, req Request) (Args, error) {
	args := make(Args, len(params))
	for _, p := range params {
		if p.Type == TypeFile {
			continue
		}

		var raw string
		if p.In == InPath {
			raw = req.PathParam(p.Name)
		} else {
			raw = strings.TrimSpace(req.FormValue(p.Name))
		}

		if raw == "" {
			if p.Required {
				return nil, fmt.Errorf("%w: %s is required", ErrBadRequest, p.Name)
			}
			if p.Default == "" {
				continue
			}
			raw = p.Default
		}

		v, err := parseValue(p, raw)
		if err != nil {
			return nil, err
		}
		args[p.Name] = v
	}
	return args, nil
}

func parseValue(p Param, raw string) (any, error) {
	switch p.Type {
	case TypeInteger:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer, got %q", ErrBadRequest, p.Name, raw)
		}
		return n, nil
	case TypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number, got %q", ErrBadRequest, p.Name, raw)
		}
		return f, nil
	case TypeBoolean:
		return ParseBool(raw), nil
	default:
		if len(p.Enum) > 0 && !slices.Contains(p.Enum, raw) {
			return nil, fmt.Errorf("%w: %s must be one of %s, got %q", ErrBadRequest, p.Name, strings.Join(p.Enum, ", "), raw)
		}
		return raw, nil
	}
}

// ParseBool is false only for "0", "false" and "no" in any case. Every other
// value is true.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "false", "no":
		return false
	default:
		return true
	}
}
