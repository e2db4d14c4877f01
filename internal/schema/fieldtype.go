package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// FieldType is the closed set of field variants a table column may carry.
// Tag returns the textual form used in descriptor files, Check validates a
// decoded JSON value against the variant.
type FieldType interface {
	Tag() string
	Check(value any) error
}

// TextFormat refines a Text field for display and validation.
type TextFormat string

const (
	TextPlain TextFormat = "text"
	TextLong  TextFormat = "longText"
	TextEmail TextFormat = "email"
	TextPhone TextFormat = "phone"
	TextURL   TextFormat = "url"
)

type Text struct {
	Format TextFormat
}

func (t Text) Tag() string {
	if t.Format == "" {
		return string(TextPlain)
	}
	return string(t.Format)
}

func (t Text) Check(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	switch t.Format {
	case TextEmail:
		if _, err := mail.ParseAddress(s); err != nil {
			return fmt.Errorf("invalid email %q", s)
		}
	case TextURL:
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid url %q", s)
		}
	}
	return nil
}

type Number struct{}

func (Number) Tag() string { return "number" }

func (Number) Check(value any) error {
	_, err := toFloat(value)
	return err
}

type Boolean struct{}

func (Boolean) Tag() string { return "boolean" }

func (Boolean) Check(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected boolean, got %T", value)
	}
	return nil
}

// Enum accepts one of a fixed set of string values.
type Enum struct {
	Values []string
}

func (e Enum) Tag() string { return "enum:" + strings.Join(e.Values, "|") }

func (e Enum) Check(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	for _, v := range e.Values {
		if v == s {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %s", s, strings.Join(e.Values, ", "))
}

// Reference holds the id of a document in the Target table.
type Reference struct {
	Target string
}

func (r Reference) Tag() string { return "ref:" + r.Target }

func (r Reference) Check(value any) error {
	s, ok := value.(string)
	if !ok || s == "" {
		return fmt.Errorf("expected %s id, got %v", r.Target, value)
	}
	return nil
}

// Timestamp is milliseconds since the Unix epoch.
type Timestamp struct{}

func (Timestamp) Tag() string { return "timestamp" }

func (Timestamp) Check(value any) error {
	f, err := toFloat(value)
	if err != nil {
		return err
	}
	if f < 0 || f != math.Trunc(f) {
		return fmt.Errorf("invalid timestamp %v", value)
	}
	return nil
}

// ISODate is a calendar date in YYYY-MM-DD form.
type ISODate struct{}

func (ISODate) Tag() string { return "isoDate" }

func (ISODate) Check(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected date string, got %T", value)
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	return nil
}

type Currency struct {
	Code string
}

func (c Currency) Tag() string { return "currency:" + c.Code }

func (c Currency) Check(value any) error {
	_, err := toFloat(value)
	return err
}

// Rating is an integer between 0 and Max inclusive.
type Rating struct {
	Max int
}

func (r Rating) Tag() string { return "rating:" + strconv.Itoa(r.Max) }

func (r Rating) Check(value any) error {
	f, err := toFloat(value)
	if err != nil {
		return err
	}
	if f != math.Trunc(f) || f < 0 || f > float64(r.Max) {
		return fmt.Errorf("rating %v outside 0..%d", value, r.Max)
	}
	return nil
}

// StorageRef is an opaque blob reference resolved to a URL by the storage provider.
type StorageRef struct{}

func (StorageRef) Tag() string { return "storage" }

func (StorageRef) Check(value any) error {
	s, ok := value.(string)
	if !ok || s == "" {
		return fmt.Errorf("expected storage reference, got %v", value)
	}
	return nil
}

// ReferenceTarget returns the referenced table when t is a Reference.
func ReferenceTarget(t FieldType) (string, bool) {
	if r, ok := t.(Reference); ok {
		return r.Target, true
	}
	return "", false
}

// ParseFieldType parses the textual tag form, e.g. "email", "ref:contacts",
// "enum:low|high", "rating:5", "currency:USD".
func ParseFieldType(tag string) (FieldType, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(tag), ":")
	switch name {
	case "text", "string", "":
		return Text{Format: TextPlain}, nil
	case "longText":
		return Text{Format: TextLong}, nil
	case "email":
		return Text{Format: TextEmail}, nil
	case "phone":
		return Text{Format: TextPhone}, nil
	case "url":
		return Text{Format: TextURL}, nil
	case "number":
		return Number{}, nil
	case "boolean", "bool":
		return Boolean{}, nil
	case "enum":
		if arg == "" {
			return nil, fmt.Errorf("enum type %q has no values", tag)
		}
		return Enum{Values: strings.Split(arg, "|")}, nil
	case "ref", "id":
		if arg == "" {
			return nil, fmt.Errorf("reference type %q has no target table", tag)
		}
		return Reference{Target: arg}, nil
	case "timestamp":
		return Timestamp{}, nil
	case "isoDate", "date":
		return ISODate{}, nil
	case "currency":
		if arg == "" {
			arg = "USD"
		}
		return Currency{Code: arg}, nil
	case "rating":
		max := 5
		if arg != "" {
			n, err := strconv.Atoi(arg)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid rating scale in %q", tag)
			}
			max = n
		}
		return Rating{Max: max}, nil
	case "storage":
		return StorageRef{}, nil
	}
	return nil, fmt.Errorf("unknown field type %q", tag)
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	}
	return 0, fmt.Errorf("expected number, got %T", value)
}
