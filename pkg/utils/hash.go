package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// HashKey builds a stable cache key from its parts.
func HashKey(parts ...string) string {
	return HashString(strings.Join(parts, "|"))
}
