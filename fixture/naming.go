package fixture

import (
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxPrefixLength = 50

var (
	prefixReplacer = strings.NewReplacer("/", "_", "\\", "_", " ", "_", "$", "_", ".", "_")
	// Instantiated generic types are named like "Box[github.com/x/pkg.T]".
	typeNameReplacer = strings.NewReplacer("/", "_", ".", "_", "[", "_", "]", "", ",", "_", " ", "_", "*", "_", "$", "_")
)

// CollectionName returns the collection name used for entity: "<prefix>_<entity>".
// It does not track the name.
func (f *Fixture) CollectionName(entity string) string {
	return f.prefix + "_" + entity
}

// typeName returns the collection-safe name of T, looking through pointer
// types. Type arguments of generic types are flattened with underscores.
// Unnamed types such as map[string]any yield "".
func typeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return typeNameReplacer.Replace(t.Name())
}

// fallbackPrefix builds the prefix used when none is supplied: the UTC time
// followed by a random fragment so concurrent fallbacks do not collide.
func fallbackPrefix(now time.Time) string {
	return now.UTC().Format("20060102T150405") + "_" + uniqueFragment()
}

func uniqueFragment() string {
	return uuid.NewString()[:8]
}

// SanitizePrefix turns a test name into a collection-safe prefix.
// Path separators, spaces, dots and dollar signs become underscores and the
// result is truncated to 50 characters.
//
//	fixture.SanitizePrefix(t.Name()) // "TestUsers_create"
func SanitizePrefix(name string) string {
	sanitized := []rune(prefixReplacer.Replace(strings.TrimSpace(name)))
	if len(sanitized) > maxPrefixLength {
		sanitized = sanitized[:maxPrefixLength]
	}
	return string(sanitized)
}

// UniquePrefix sanitizes name like SanitizePrefix and appends "_" plus a
// random 8 character fragment. Prefixes derived from names where one is a
// prefix of the other, or from long names sharing their first 50
// characters, never prefix-match each other's collections.
//
//	fixture.UniquePrefix(t.Name()) // "TestUsers_create_1f3a9c0e"
func UniquePrefix(name string) string {
	return SanitizePrefix(name) + "_" + uniqueFragment()
}
