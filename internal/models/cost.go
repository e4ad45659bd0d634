package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// Cost is an amount of money read permissively from stored data: numbers,
// numeric strings and Decimal128 are accepted, anything else counts as 0.
type Cost float64

// ParseCost converts a loosely typed stored value into a Cost
func ParseCost(v interface{}) Cost {
	switch x := v.(type) {
	case nil:
		return 0
	case Cost:
		return x
	case float64:
		return Cost(x)
	case float32:
		return Cost(x)
	case int:
		return Cost(x)
	case int32:
		return Cost(x)
	case int64:
		return Cost(x)
	case decimal.Decimal:
		return Cost(x.InexactFloat64())
	case string:
		return costFromString(x)
	case []byte:
		return costFromString(string(x))
	default:
		return 0
	}
}

func costFromString(s string) Cost {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return Cost(d.InexactFloat64())
}

// Decimal returns the cost as an exact decimal for summing
func (c Cost) Decimal() decimal.Decimal {
	return decimal.NewFromFloat(float64(c))
}

// UnmarshalJSON accepts a number, a quoted number or anything else as 0
func (c *Cost) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*c = 0
			return nil
		}
		*c = costFromString(s)
		return nil
	}
	*c = costFromString(string(data))
	return nil
}

// MarshalBSONValue always stores a double
func (c Cost) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.Double, bsoncore.AppendDouble(nil, float64(c)), nil
}

// UnmarshalBSONValue reads doubles, integers, strings and Decimal128
func (c *Cost) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	if f, ok := raw.DoubleOK(); ok {
		*c = Cost(f)
		return nil
	}
	if i, ok := raw.Int32OK(); ok {
		*c = Cost(i)
		return nil
	}
	if i, ok := raw.Int64OK(); ok {
		*c = Cost(i)
		return nil
	}
	if s, ok := raw.StringValueOK(); ok {
		*c = costFromString(s)
		return nil
	}
	if d, ok := raw.Decimal128OK(); ok {
		*c = costFromString(d.String())
		return nil
	}
	*c = 0
	return nil
}

// Value implements the driver.Valuer interface
func (c Cost) Value() (driver.Value, error) {
	return float64(c), nil
}

// Scan implements the sql.Scanner interface
func (c *Cost) Scan(src interface{}) error {
	*c = ParseCost(src)
	return nil
}

// CostInput is a cost as typed into a form. Numbers and numeric strings
// are accepted; blank or null means no cost was entered. Anything else is
// a decode error.
type CostInput struct {
	decimal.NullDecimal
}

// UnmarshalJSON implements json.Unmarshaler
func (c *CostInput) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if string(trimmed) == "null" || len(bytes.Trim(trimmed, `" `)) == 0 {
		c.Valid = false
		return nil
	}
	return c.NullDecimal.UnmarshalJSON(trimmed)
}

// Cost converts the input into a stored cost, blank meaning 0
func (c CostInput) Cost() Cost {
	if !c.Valid {
		return 0
	}
	return Cost(c.Decimal.InexactFloat64())
}
