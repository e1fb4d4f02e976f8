package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money представляет денежную сумму в минорных единицах (сантимах).
// Все вычисления выполняются в целых числах, чтобы исключить ошибки
// двоичной плавающей точки.
type Money int64

// BasisPoints задает ставку в базисных пунктах (500 = 5%, 2000 = 20%).
type BasisPoints int64

// Zero нулевая сумма
const Zero Money = 0

// FromCents создает Money из количества минорных единиц
func FromCents(cents int64) Money {
	return Money(cents)
}

// FromDecimal создает Money из decimal с округлением half-up до сантима
func FromDecimal(d decimal.Decimal) Money {
	// decimal.Round округляет half away from zero, что и есть half-up
	// для неотрицательных сумм
	return Money(d.Shift(2).Round(0).IntPart())
}

// FromString парсит строковое представление суммы ("199.99")
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("money: failed to parse amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// Cents возвращает количество минорных единиц
func (m Money) Cents() int64 {
	return int64(m)
}

// Decimal возвращает сумму как decimal в мажорных единицах
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Add возвращает сумму m + other
func (m Money) Add(other Money) Money {
	return m + other
}

// Sub возвращает разность m - other
func (m Money) Sub(other Money) Money {
	return m - other
}

// MulInt умножает сумму на целое количество (точная операция)
func (m Money) MulInt(n int64) Money {
	return Money(int64(m) * n)
}

// ApplyRate вычисляет долю суммы по ставке в базисных пунктах.
// Результат округляется half-up до одного сантима: ровно половина
// сантима округляется прочь от нуля.
func (m Money) ApplyRate(rate BasisPoints) Money {
	v := int64(m) * int64(rate)
	q := v / 10000
	r := v % 10000
	if r < 0 {
		r = -r
	}
	if r*2 >= 10000 {
		if v < 0 {
			q--
		} else {
			q++
		}
	}
	return Money(q)
}

// IsNegative сообщает, отрицательна ли сумма
func (m Money) IsNegative() bool {
	return m < 0
}

// IsPositive сообщает, положительна ли сумма
func (m Money) IsPositive() bool {
	return m > 0
}

// IsZero сообщает, равна ли сумма нулю
func (m Money) IsZero() bool {
	return m == 0
}

// String возвращает сумму в мажорных единицах с двумя знаками ("199.99")
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON сериализует сумму как JSON-число с двумя знаками
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON принимает как число, так и строку
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "null" || s == "" {
		*m = 0
		return nil
	}
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
