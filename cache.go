package main

import "strings"

// extractionCache holds the text of the most recent successful extraction.
// It is a single slot tied to the selected file: the file-change handler
// clears it before starting a new extraction, and the extraction result
// handler fills it only if the result belongs to the current selection.
type extractionCache struct {
	file  sourceFile
	text  string
	valid bool
}

func (c *extractionCache) clear() {
	*c = extractionCache{}
}

func (c *extractionCache) store(f sourceFile, text string) {
	c.file = f
	c.text = text
	c.valid = true
}

// lookup returns the cached text for f. Empty or whitespace-only text is a
// miss so the analyzer falls back to a fresh extraction.
func (c extractionCache) lookup(f sourceFile) (string, bool) {
	if !c.valid || !c.file.sameAs(f) {
		return "", false
	}
	if strings.TrimSpace(c.text) == "" {
		return "", false
	}
	return c.text, true
}
