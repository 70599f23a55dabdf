package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

const copiedTimeout = 1200 * time.Millisecond

// ─── Analysis ────────────────────────────────────────────────────────────────

// analysisInput is the state the analyzer reads, captured when the user
// triggers an analysis.
type analysisInput struct {
	mode   inputMode
	text   string      // raw textarea contents
	file   *sourceFile // nil when no file is selected
	cached string      // cached extraction for file, "" on a miss
}

// resolveText returns the trimmed text to submit. In file mode a cache miss
// re-runs the extractor.
func resolveText(in analysisInput) (string, error) {
	if in.mode == modeText {
		text := strings.TrimSpace(in.text)
		if text == "" {
			return "", errEmptyInput()
		}
		return text, nil
	}

	if in.file == nil {
		return "", errNoFileSelected()
	}
	text := in.cached
	if strings.TrimSpace(text) == "" {
		var err error
		text, err = extractText(*in.file)
		if err != nil {
			return "", err
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errNoExtractableText()
	}
	return text, nil
}

// runAnalysis resolves the text and submits it. A panic anywhere below is
// turned into an error so the caller always gets its analyzeDoneMsg.
func runAnalysis(ctx context.Context, c classifier, in analysisInput) (res analysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = analysisResult{}, fmt.Errorf("analysis panicked: %v", r)
		}
	}()
	text, err := resolveText(in)
	if err != nil {
		return analysisResult{}, err
	}
	return c.analyze(ctx, text)
}

func analyzeCmd(c classifier, in analysisInput) tea.Cmd {
	return func() tea.Msg {
		res, err := runAnalysis(context.Background(), c, in)
		return analyzeDoneMsg{result: res, err: err}
	}
}

// ─── Files ───────────────────────────────────────────────────────────────────

func extractCmd(gen int, f sourceFile) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = extractedMsg{gen: gen, file: f, err: errExtractionFailed(fmt.Errorf("%v", r))}
			}
		}()
		text, err := extractText(f)
		return extractedMsg{gen: gen, file: f, text: text, err: err}
	}
}

func copyReplyCmd(reply string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboardWrite(reply); err != nil {
			return copiedMsg{err: errClipboard(err)}
		}
		return copiedMsg{}
	}
}

func pingCmd(c classifier) tea.Cmd {
	return func() tea.Msg {
		return apiStatusMsg{err: c.ping(context.Background())}
	}
}

// watchFiles watches the directory of the selected file. Sends a
// fileChangedMsg each time a write/create/remove/rename is detected, with a
// small debounce to coalesce rapid writes.
func watchFiles(watcher *fsnotify.Watcher) tea.Cmd {
	if watcher == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
					!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				changed := map[string]bool{filepath.Clean(ev.Name): true}
				time.Sleep(100 * time.Millisecond)
			drain:
				for {
					select {
					case extra, ok := <-watcher.Events:
						if !ok {
							break drain
						}
						changed[filepath.Clean(extra.Name)] = true
					default:
						break drain
					}
				}
				paths := make([]string, 0, len(changed))
				for p := range changed {
					paths = append(paths, p)
				}
				return fileChangedMsg{paths: paths}
			case _, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}
