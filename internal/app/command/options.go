package command

import (
	"fmt"
	"strings"

	"github.com/jose-valero/soup-bot/internal/domain"
)

// MaxOptions is the platform limit of options per command.
const MaxOptions = 25

type OptionType int

const (
	OptString OptionType = iota + 1
	OptInteger
	OptBoolean
	OptAttachment
)

func (t OptionType) String() string {
	switch t {
	case OptString:
		return "string"
	case OptInteger:
		return "integer"
	case OptBoolean:
		return "boolean"
	case OptAttachment:
		return "attachment"
	}
	return fmt.Sprintf("OptionType(%d)", int(t))
}

// OptionSpec declares one input of a leaf command.
type OptionSpec struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
	// Rest: the remainder of free-text input belongs to this option.
	Rest bool
}

func validateOptions(opts []OptionSpec) error {
	if len(opts) > MaxOptions {
		return fmt.Errorf("%w: %d options, max %d", ErrInvalidOptions, len(opts), MaxOptions)
	}
	seen := make(map[string]struct{}, len(opts))
	optional := false
	for i, o := range opts {
		if err := validName(o.Name); err != nil {
			return fmt.Errorf("%w: option %d: %v", ErrInvalidOptions, i, err)
		}
		if _, dup := seen[o.Name]; dup {
			return fmt.Errorf("%w: option %q declared twice", ErrInvalidOptions, o.Name)
		}
		seen[o.Name] = struct{}{}

		switch o.Type {
		case OptString, OptInteger, OptBoolean, OptAttachment:
		default:
			return fmt.Errorf("%w: option %q has unknown type %d", ErrInvalidOptions, o.Name, int(o.Type))
		}
		if o.Required && optional {
			return fmt.Errorf("%w: required option %q after an optional one", ErrInvalidOptions, o.Name)
		}
		if !o.Required {
			optional = true
		}
		if o.Rest {
			if o.Type != OptString {
				return fmt.Errorf("%w: rest option %q must be a string", ErrInvalidOptions, o.Name)
			}
			if i != len(opts)-1 {
				return fmt.Errorf("%w: rest option %q must be the last option", ErrInvalidOptions, o.Name)
			}
		}
	}
	return nil
}

// normalize checks supplied values against the declared options and returns
// the subset that matches them. missing names the first required option that
// was absent, empty or of the wrong type.
func normalize(opts []OptionSpec, supplied map[string]any) (values map[string]any, missing string) {
	values = make(map[string]any, len(opts))
	for _, o := range opts {
		v, ok := coerce(o, supplied[o.Name])
		if !ok {
			if o.Required {
				return nil, o.Name
			}
			continue
		}
		values[o.Name] = v
	}
	return values, ""
}

func coerce(o OptionSpec, v any) (any, bool) {
	switch o.Type {
	case OptString:
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		if o.Rest {
			s = strings.TrimSpace(s)
		}
		return s, s != ""
	case OptInteger:
		switch n := v.(type) {
		case int64:
			return n, true
		case int:
			return int64(n), true
		case float64:
			// JSON numbers
			if n == float64(int64(n)) {
				return int64(n), true
			}
		}
		return nil, false
	case OptBoolean:
		b, ok := v.(bool)
		return b, ok
	case OptAttachment:
		a, ok := v.(domain.RawAttachment)
		return a, ok && a.URL != ""
	}
	return nil, false
}
