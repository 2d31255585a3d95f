package spreadsheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// UniqueFilename returns path, or the first "name(n).ext" variant, n >= 1,
// for which no file exists.
func UniqueFilename(path string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	candidate := path
	for n := 1; exists(candidate); n++ {
		candidate = fmt.Sprintf("%s(%d)%s", stem, n, ext)
	}
	return candidate
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
