package domain

import (
	"path"
	"strings"
)

// ImageExtensions are the file extensions eligible for enhancement.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// OutputLayout describes where enhanced files are written.
type OutputLayout struct {
	// Root is the output folder, e.g. /OUTPUT.
	Root string

	// Suffix is appended to the base name, e.g. _ENHANCED.
	Suffix string

	// Format overrides the output extension when set.
	Format string
}

// IsEligibleImagePath reports whether path has a recognised image extension.
func IsEligibleImagePath(p string) bool {
	lower := strings.ToLower(p)
	for _, ext := range ImageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// IsInsideRoot reports whether p is root itself or lies beneath it.
// A trailing separator on root is ignored and an empty root covers everything.
func IsInsideRoot(p, rootLower string) bool {
	root := strings.TrimSuffix(rootLower, "/")
	if root == "" {
		return true
	}
	return p == root || strings.HasPrefix(p, root+"/")
}

// BuildOutputPath derives {root}/{base}{suffix}.{ext} for an input path.
// The extension is the configured format, else the original extension, else png.
func BuildOutputPath(inputPath string, layout OutputLayout) string {
	base := inputPath
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if base == "" {
		base = "image"
	}

	name, ext := base, ""
	if dot := strings.LastIndex(base, "."); dot >= 0 {
		name, ext = base[:dot], base[dot+1:]
	}
	if layout.Format != "" {
		ext = layout.Format
	}
	if ext == "" {
		ext = "png"
	}

	return collapseSeparators(layout.Root + "/" + name + layout.Suffix + "." + ext)
}

// BaseName returns the final path element, falling back to def when empty.
func BaseName(p, def string) string {
	base := path.Base(p)
	if base == "." || base == "/" || base == "" {
		return def
	}
	return base
}

func collapseSeparators(p string) string {
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}
