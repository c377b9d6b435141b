package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	wordUnits = []string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
	wordTens = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
)

// AmountToWords spells a rupee amount using lakh and crore grouping.
// Example: 120050.5 -> "Rupees One Lakh Twenty Thousand Fifty and 50/100 Only"
func AmountToWords(amount decimal.Decimal) string {
	amount = amount.Abs().Round(2)
	integerPart := amount.Truncate(0)
	paise := amount.Sub(integerPart).Mul(decimal.NewFromInt(100)).IntPart()

	words := "Zero"
	if n := integerPart.IntPart(); n > 0 {
		words = rupeeWords(n)
	}
	return fmt.Sprintf("Rupees %s and %02d/100 Only", words, paise)
}

func rupeeWords(n int64) string {
	var parts []string
	if crore := n / 10000000; crore > 0 {
		parts = append(parts, rupeeWords(crore)+" Crore")
		n %= 10000000
	}
	if lakh := n / 100000; lakh > 0 {
		parts = append(parts, belowHundred(lakh)+" Lakh")
		n %= 100000
	}
	if thousand := n / 1000; thousand > 0 {
		parts = append(parts, belowHundred(thousand)+" Thousand")
		n %= 1000
	}
	if hundred := n / 100; hundred > 0 {
		parts = append(parts, wordUnits[hundred]+" Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, belowHundred(n))
	}
	return strings.Join(parts, " ")
}

func belowHundred(n int64) string {
	if n < 20 {
		return wordUnits[n]
	}
	if n%10 == 0 {
		return wordTens[n/10]
	}
	return wordTens[n/10] + " " + wordUnits[n%10]
}
