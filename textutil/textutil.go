// Package textutil formats engine values for people.
package textutil

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatPlace converts a numeric place (1, 2, 3, ...) to a string ("1st", "2nd", "3rd", ...).
func FormatPlace(place int) string {
	suffix := "th"
	if place%100 < 11 || place%100 > 13 {
		switch place % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", place, suffix)
}

// FormatMoney renders whole currency units, "$1,240" style.
func FormatMoney(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	sb := strings.Builder{}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}
	return sign + "$" + sb.String()
}

// FormatBasisPoints renders 6250 as "62.5%".
func FormatBasisPoints(bp int) string {
	s := strconv.FormatFloat(float64(bp)/100, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + "%"
}

// JoinInts concatenates the elements of an int slice with a separator.
func JoinInts(elems []int, sep string) string {
	strs := make([]string, len(elems))
	for i, v := range elems {
		strs[i] = strconv.Itoa(v)
	}
	return strings.Join(strs, sep)
}

// Percentages renders a basis-point row as "62.5% / 37.5%".
func Percentages(bps []int) string {
	if len(bps) == 0 {
		return "(no places paid)"
	}
	strs := make([]string, len(bps))
	for i, bp := range bps {
		strs[i] = FormatBasisPoints(bp)
	}
	return strings.Join(strs, " / ")
}
