package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ralfiz/bizdesk/internal/clock"
	"github.com/ralfiz/bizdesk/internal/model"
)

// DeriveInvoiceStatus выводит статус счёта из оплаченной суммы, итога и срока оплаты.
// Нулевой dueDate означает отсутствие срока. Функция идемпотентна.
func DeriveInvoiceStatus(amountPaid, total decimal.Decimal, dueDate, today time.Time, current model.DocumentStatus) model.DocumentStatus {
	switch {
	case current == model.StatusCancelled:
		return current
	case amountPaid.GreaterThanOrEqual(total):
		return model.StatusPaid
	case amountPaid.IsPositive():
		return model.StatusPartial
	case !dueDate.IsZero() && clock.Date(dueDate).Before(clock.Date(today)):
		return model.StatusOverdue
	}
	return current
}

// DeriveQuoteStatus помечает просроченное предложение как expired.
// Принятые, отклонённые и уже истёкшие предложения не меняются.
func DeriveQuoteStatus(validUntil, today time.Time, current model.DocumentStatus) model.DocumentStatus {
	switch current {
	case model.StatusAccepted, model.StatusRejected, model.StatusExpired:
		return current
	}
	if !validUntil.IsZero() && clock.Date(validUntil).Before(clock.Date(today)) {
		return model.StatusExpired
	}
	return current
}

// Префиксы номеров документов.
const (
	InvoicePrefix = "INV"
	QuotePrefix   = "QT"
)

// NextDocumentNumber возвращает следующий номер вида <prefix><year><NNNN>.
// last — последний выданный номер с тем же префиксом и годом или пустая строка.
func NextDocumentNumber(prefix string, year int, last string) string {
	seq := 1
	head := fmt.Sprintf("%s%d", prefix, year)
	if strings.HasPrefix(last, head) {
		if n, err := strconv.Atoi(last[len(head):]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", head, seq)
}
