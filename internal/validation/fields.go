// Package validation provides input validation utilities.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidatePersonName checks a name or surname: at least 2 trimmed characters,
// letters only. label names the field in the error message.
func ValidatePersonName(label, value string) error {
	value = strings.TrimSpace(value)
	if len(value) < 2 {
		return fmt.Errorf("the %s field must consist of at least 2 characters and contain only letters", label)
	}
	for _, r := range value {
		if !unicode.IsLetter(r) {
			return fmt.Errorf("the %s field must consist of at least 2 characters and contain only letters", label)
		}
	}
	return nil
}

// ValidateEmail checks basic email format.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	if len(email) > 120 {
		return fmt.Errorf("email must not exceed 120 characters")
	}
	return nil
}

// ValidatePassword checks the minimum password requirement.
func ValidatePassword(password string) error {
	if len(strings.TrimSpace(password)) < 4 {
		return fmt.Errorf("password must contain at least 4 characters")
	}
	return nil
}

// ValidateTitle checks a post title: at least 4 trimmed characters.
func ValidateTitle(title string) error {
	if len(strings.TrimSpace(title)) < 4 {
		return fmt.Errorf("the title must be at least 4 characters long")
	}
	return nil
}

// ValidateDescription checks a post description: at least 10 trimmed characters.
func ValidateDescription(description string) error {
	if len(strings.TrimSpace(description)) < 10 {
		return fmt.Errorf("the description must be at least 10 characters long")
	}
	return nil
}

// ValidatePrice parses a price string and requires a positive value.
func ValidatePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price format")
	}
	if price <= 0 {
		return 0, fmt.Errorf("the price must be positive")
	}
	return price, nil
}

// ValidateAge requires an age in [1, 150].
func ValidateAge(age int) error {
	if age <= 0 || age > 150 {
		return fmt.Errorf("age must be between 1 and 150")
	}
	return nil
}

// ValidatePhoneNumber requires at least 7 characters.
func ValidatePhoneNumber(phone string) error {
	if len(phone) < 7 {
		return fmt.Errorf("invalid phone number")
	}
	return nil
}
