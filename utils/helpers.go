package utils

import "strings"

// UniqueStrings returns a new slice with duplicate entries removed,
// preserving the original order.
func UniqueStrings(slice []string) []string {
	keys := make(map[string]bool)
	uniqueSlice := []string{}
	for _, entry := range slice {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			uniqueSlice = append(uniqueSlice, entry)
		}
	}
	return uniqueSlice
}

// NormalizeImageURL rewrites an Amazon thumbnail URL to its hi-res
// variant. Thumbnail sources look like
// "https://m.media.example/I/41abc._SX38_SY50_CR,0,0,38,50_.jpg"; the
// everything from the first "._" onwards is swapped for the SL1500
// modifier.
func NormalizeImageURL(src string) string {
	if src == "" {
		return ""
	}
	idx := strings.Index(src, "._")
	if idx == -1 {
		return src
	}
	return src[:idx] + "._AC_SL1500_.jpg"
}
