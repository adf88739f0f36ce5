package utils

import "github.com/shopspring/decimal"

// DecimalPtr float64 指针转 decimal 指针，nil 透传
func DecimalPtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

// Float64Ptr decimal 指针转 float64 指针，nil 透传
func Float64Ptr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}

// Float64OrZero decimal 指针取值，nil 为 0
func Float64OrZero(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	return d.InexactFloat64()
}

// Int64OrZero int64 指针取值，nil 为 0
func Int64OrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func Ptr[T any](v T) *T {
	return &v
}
