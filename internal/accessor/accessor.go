// Package accessor classifies method names against the bean getter/setter
// naming conventions.
package accessor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	getPrefix = "get"
	isPrefix  = "is"
	setPrefix = "set"
)

// IsGetter reports whether a method with the given name and parameter count
// is a getter: get<X>() or is<X>() with X starting with an upper-case letter.
func IsGetter(name string, paramCount int) bool {
	if paramCount != 0 {
		return false
	}
	return hasAccessorPrefix(name, getPrefix) || hasAccessorPrefix(name, isPrefix)
}

// IsSetter reports whether a method is a one-argument set<X>(...) setter.
func IsSetter(name string, paramCount int) bool {
	return paramCount == 1 && hasAccessorPrefix(name, setPrefix)
}

// PropertyName strips the accessor prefix and decapitalizes the remainder.
// Names without a recognized prefix are only decapitalized.
func PropertyName(name string) string {
	rest := name
	for _, prefix := range []string{getPrefix, setPrefix, isPrefix} {
		if hasAccessorPrefix(name, prefix) {
			rest = name[len(prefix):]
			break
		}
	}
	return decapitalize(rest)
}

func hasAccessorPrefix(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name[len(prefix):])
	return unicode.IsUpper(r)
}

func decapitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
