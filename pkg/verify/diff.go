package verify

import (
	"bytes"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// Diff renders a unified diff between the archived and the on-disk content.
// Binary content yields an empty string.
func Diff(archiveName, diskName string, archived, onDisk []byte) string {
	if isBinary(archived) || isBinary(onDisk) {
		return ""
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(archived)),
		B:        splitLinesKeepNL(string(onDisk)),
		FromFile: "archive/" + archiveName,
		ToFile:   diskName,
		Context:  3,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return ""
	}
	return s
}

func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}

func isBinary(b []byte) bool {
	return bytes.IndexByte(b, 0) >= 0
}
