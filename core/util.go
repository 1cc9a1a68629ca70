package core

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// FormatNumber renders `f` without trailing zeros, the way the front end shows grades and attendance ("7.5", "42").
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// JoinNumbers renders `nums` separated by ", ".
func JoinNumbers(nums []float64) string {
	parts := make([]string, 0, len(nums))
	for _, n := range nums {
		parts = append(parts, FormatNumber(n))
	}
	return strings.Join(parts, ", ")
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests,
// so relative paths like `config/.env.test` have to be resolved from the root.
// The current directory is returned when no root is found (eg. an installed binary).
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
