package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
)

// JSONDecimal is a postgres decimal column that serializes as a plain string
type JSONDecimal struct {
	postgres.Decimal
}

func (d JSONDecimal) MarshalJSON() ([]byte, error) {
	if d.V == nil {
		return json.Marshal("0")
	}
	return json.Marshal(d.V.String())
}

// NewJSONDecimalFromString parses a numeric string, zero when unparseable
func NewJSONDecimalFromString(s string) JSONDecimal {
	v, ok := new(decimal.Big).SetString(s)
	if !ok {
		v = new(decimal.Big)
	}
	return JSONDecimal{postgres.Decimal{V: v}}
}

// DecimalList is a jsonb column holding an ordered list of decimal amounts
type DecimalList []*decimal.Big

func (l DecimalList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	return string(data), err
}

func (l *DecimalList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return errors.New("unsupported type for DecimalList")
	}
}
