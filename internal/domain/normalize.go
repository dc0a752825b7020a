package domain

import "strings"

// NormalizeCustomerName trims leading/trailing whitespace and collapses
// internal whitespace runs.
func NormalizeCustomerName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
