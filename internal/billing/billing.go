// Package billing рассчитывает итоги документов и выводит их статусы.
package billing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ralfiz/bizdesk/internal/model"
)

// DefaultTaxRate — ставка GST по умолчанию, в процентах.
var DefaultTaxRate = decimal.NewFromInt(18)

// CurrencyPlaces — число знаков после запятой в денежных суммах.
const CurrencyPlaces = 2

var hundred = decimal.NewFromInt(100)

// ParseAmount разбирает число из поля формы. Пустое или некорректное значение даёт ноль.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseTaxRate разбирает ставку налога; пустое или некорректное значение даёт ставку по умолчанию.
func ParseTaxRate(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTaxRate
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return DefaultTaxRate
	}
	return d
}

// ComputeTotals считает подытог, налог и итог по строкам документа.
//
// Подытог суммируется точно и округляется до копеек, налог начисляется на подытог за вычетом
// скидки, не опускающийся ниже нуля.
func ComputeTotals(items []model.LineItem, discount, taxRate decimal.Decimal) model.BillingTotals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Amount())
	}
	subtotal = subtotal.Round(CurrencyPlaces)

	base := subtotal.Sub(discount)
	if base.IsNegative() {
		base = decimal.Zero
	}

	tax := base.Mul(taxRate).Div(hundred).Round(CurrencyPlaces)

	return model.BillingTotals{
		Subtotal:    subtotal,
		Discount:    discount,
		TaxRate:     taxRate,
		TaxAmount:   tax,
		TotalAmount: base.Add(tax),
	}
}
