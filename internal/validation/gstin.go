// Package validation содержит функции валидации входных данных.
package validation

import "strings"

const gstinCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// IsValidGSTIN проверяет формат индийского номера GST и его контрольный символ.
func IsValidGSTIN(gstin string) bool {
	gstin = strings.ToUpper(strings.TrimSpace(gstin))
	if len(gstin) != 15 {
		return false
	}

	for i := 0; i < 15; i++ {
		ch := gstin[i]
		switch {
		case i < 2, i >= 7 && i < 11:
			if ch < '0' || ch > '9' {
				return false
			}
		case i >= 2 && i < 7, i == 11:
			if ch < 'A' || ch > 'Z' {
				return false
			}
		case i == 13:
			if ch != 'Z' {
				return false
			}
		default:
			if strings.IndexByte(gstinCharset, ch) < 0 {
				return false
			}
		}
	}

	sum := 0
	for i := 0; i < 14; i++ {
		v := strings.IndexByte(gstinCharset, gstin[i])
		if i%2 == 1 {
			v *= 2
		}
		sum += v/36 + v%36
	}

	check := gstinCharset[(36-sum%36)%36]
	return gstin[14] == check
}
