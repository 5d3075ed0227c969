package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// stagingSuffix is the naming convention for staging tables.
const stagingSuffix = "staging"

// Fold returns the case-insensitive comparison key for a table or field name.
// A Caser carries transform state, so each call gets its own.
func Fold(name string) string {
	return cases.Fold().String(name)
}

// EqualNames reports whether two names are equal under case folding.
func EqualNames(a, b string) bool {
	return Fold(a) == Fold(b)
}

// IsStagingName reports whether name follows the staging table convention.
func IsStagingName(name string) bool {
	folded := Fold(name)
	return len(folded) > len(stagingSuffix) && strings.HasSuffix(folded, stagingSuffix)
}
