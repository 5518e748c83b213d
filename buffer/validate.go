package buffer

import (
	"fmt"
	"unicode/utf8"

	"github.com/questline/ilp/errs"
)

// Characters the server reserves in table names. They cannot be produced by
// the escaping rules, so names containing them are rejected outright.
// The trailing pair is the NUL byte and the UTF-8 byte order mark.
const reservedTableChars = `?,'"\/:()+*%~` + "\x00\ufeff"

// Column names additionally cannot contain '=' (the key/value separator),
// '-' or '.' (reserved by the server's column name rules).
const reservedColumnChars = reservedTableChars + `=-.`

// ValidateTableName reports whether name is a legal table name.
//
// A table name is rejected when it is empty, longer than maxLen bytes,
// contains control characters, or contains characters reserved by the wire
// protocol that escaping cannot represent.
//
// Parameters:
//   - name: Table name to validate
//   - maxLen: Maximum allowed name length in bytes
//
// Returns:
//   - error: errs.ErrInvalidName with details, or nil if the name is legal
func ValidateTableName(name string, maxLen int) error {
	if err := validateNameCommon(name, maxLen); err != nil {
		return err
	}
	for _, r := range name {
		if containsRune(reservedTableChars, r) {
			return fmt.Errorf("%w: table name contains reserved character %q", errs.ErrInvalidName, r)
		}
	}
	if name[0] == '.' || name[len(name)-1] == '.' {
		return fmt.Errorf("%w: table name cannot start or end with a dot", errs.ErrInvalidName)
	}

	return nil
}

// ValidateColumnName reports whether name is a legal symbol or field column
// name.
//
// The constraints are the table-name constraints plus a ban on '=' and '-'
// and on a leading decimal digit.
//
// Parameters:
//   - name: Column name to validate
//   - maxLen: Maximum allowed name length in bytes
//
// Returns:
//   - error: errs.ErrInvalidName with details, or nil if the name is legal
func ValidateColumnName(name string, maxLen int) error {
	if err := validateNameCommon(name, maxLen); err != nil {
		return err
	}
	for _, r := range name {
		if containsRune(reservedColumnChars, r) {
			return fmt.Errorf("%w: column name contains reserved character %q", errs.ErrInvalidName, r)
		}
	}
	if name[0] >= '0' && name[0] <= '9' {
		return fmt.Errorf("%w: column name cannot start with a digit", errs.ErrInvalidName)
	}

	return nil
}

// ValidateTimestampLiteral reports whether text is a legal designated
// timestamp literal: a non-empty sequence of decimal digits.
//
// Returns:
//   - error: errs.ErrInvalidTimestamp if text is empty or contains a
//     non-digit character, nil otherwise
func ValidateTimestampLiteral(text string) error {
	if len(text) == 0 {
		return fmt.Errorf("%w: empty timestamp literal", errs.ErrInvalidTimestamp)
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return fmt.Errorf("%w: timestamp literal %q contains non-digit character", errs.ErrInvalidTimestamp, text)
		}
	}

	return nil
}

func validateNameCommon(name string, maxLen int) error {
	if len(name) == 0 {
		return fmt.Errorf("%w: name cannot be empty", errs.ErrInvalidName)
	}
	if len(name) > maxLen {
		return fmt.Errorf("%w: name length %d exceeds limit %d", errs.ErrInvalidName, len(name), maxLen)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name is not valid UTF-8", errs.ErrInvalidName)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: name contains control character %#x", errs.ErrInvalidName, r)
		}
	}

	return nil
}

func containsRune(set string, r rune) bool {
	for _, c := range set {
		if c == r {
			return true
		}
	}

	return false
}
