package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is an exact decimal amount. It marshals to BSON Decimal128 so ledger
// amounts survive the trip through the remote store without float drift.
type Money struct {
	decimal.Decimal
}

// NewMoney builds a Money value from an integer amount of currency units.
func NewMoney(v int64) Money {
	return Money{decimal.NewFromInt(v)}
}

// MoneyFromFloat converts a float input (API payloads) into Money.
func MoneyFromFloat(v float64) Money {
	return Money{decimal.NewFromFloat(v)}
}

// MoneyFromString parses a decimal string into Money.
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{d}, nil
}

// Plus returns m + other.
func (m Money) Plus(other Money) Money {
	return Money{m.Decimal.Add(other.Decimal)}
}

// Minus returns m - other.
func (m Money) Minus(other Money) Money {
	return Money{m.Decimal.Sub(other.Decimal)}
}

// Negated returns -m.
func (m Money) Negated() Money {
	return Money{m.Decimal.Neg()}
}

// MulInt returns m * n, used for count-based order totals.
func (m Money) MulInt(n int) Money {
	return Money{m.Decimal.Mul(decimal.NewFromInt(int64(n)))}
}

// MulFloat returns m * f, used for size-based order totals.
func (m Money) MulFloat(f float64) Money {
	return Money{m.Decimal.Mul(decimal.NewFromFloat(f))}
}

// MarshalBSONValue encodes the amount as Decimal128.
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.Decimal.String())
	if err != nil {
		return 0, nil, fmt.Errorf("money to decimal128: %w", err)
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue decodes Decimal128 (or legacy double) amounts.
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}

	switch t {
	case bson.TypeDecimal128:
		var d128 primitive.Decimal128
		if err := raw.Unmarshal(&d128); err != nil {
			return err
		}
		d, err := decimal.NewFromString(d128.String())
		if err != nil {
			return fmt.Errorf("decimal128 to money: %w", err)
		}
		m.Decimal = d
		return nil
	case bson.TypeDouble:
		// Older records were written as doubles.
		var f float64
		if err := raw.Unmarshal(&f); err != nil {
			return err
		}
		m.Decimal = decimal.NewFromFloat(f)
		return nil
	case bson.TypeInt32, bson.TypeInt64:
		var v int64
		if err := raw.Unmarshal(&v); err != nil {
			return err
		}
		m.Decimal = decimal.NewFromInt(v)
		return nil
	default:
		return fmt.Errorf("cannot decode %s into money", t)
	}
}
