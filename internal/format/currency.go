// Package format форматирует денежные суммы для отображения.
package format

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol — символ валюты перед суммой.
const CurrencySymbol = "₹"

// Formatter форматирует суммы с разделителями разрядов выбранной локали.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter создаёт форматтер для языкового тега tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Currency возвращает сумму с символом валюты и двумя знаками после запятой.
func (f *Formatter) Currency(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	v, _ := d.Float64()
	return sign + CurrencySymbol + f.printer.Sprintf("%.2f", v)
}
