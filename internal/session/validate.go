package session

import (
	"regexp"
	"strings"
)

const (
	maxEmailLength    = 100
	minPasswordLength = 8
	maxPasswordLength = 100
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lower-cases the email and returns it together with
// every violated rule. An empty rule slice means the email is valid.
func NormalizeEmail(email string) (string, []string) {
	email = strings.ToLower(strings.TrimSpace(email))
	var rules []string
	if email == "" {
		rules = append(rules, "Email is required")
		return email, rules
	}
	if len(email) > maxEmailLength {
		rules = append(rules, "Email must be at most 100 characters")
	}
	if !emailShape.MatchString(email) {
		rules = append(rules, "Invalid email format")
	}
	return email, rules
}

// CheckPassword returns every violated password rule, not just the first.
func CheckPassword(password string) []string {
	var rules []string
	if len(password) < minPasswordLength {
		rules = append(rules, "Password must be at least 8 characters long")
	}
	if len(password) > maxPasswordLength {
		rules = append(rules, "Password must be at most 100 characters")
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasUpper {
		rules = append(rules, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		rules = append(rules, "Password must contain at least one lowercase letter")
	}
	if !hasDigit {
		rules = append(rules, "Password must contain at least one number")
	}
	if !hasSpecial {
		rules = append(rules, "Password must contain at least one special character")
	}
	return rules
}
