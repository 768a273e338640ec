package dataset

import (
	"fmt"
)

var (
	smallWords = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	tensWords = []string{
		"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
	}
)

// MaxWordNumber is the largest number NumberToWords spells out
const MaxWordNumber = 999

// NumberToWords spells n in English, e.g. 342 -> "three hundred forty-two"
func NumberToWords(n int) (string, error) {
	if n < 0 || n > MaxWordNumber {
		return "", fmt.Errorf("number %d out of range 0..%d", n, MaxWordNumber)
	}
	if n < 100 {
		return belowHundred(n), nil
	}

	words := smallWords[n/100] + " hundred"
	if rest := n % 100; rest != 0 {
		words += " " + belowHundred(rest)
	}
	return words, nil
}

func belowHundred(n int) string {
	if n < 20 {
		return smallWords[n]
	}
	words := tensWords[n/10]
	if n%10 != 0 {
		words += "-" + smallWords[n%10]
	}
	return words
}
