package report

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed style.css
var defaultStyleCSS string

var (
	rePageBreakHeading = regexp.MustCompile(`(?i)<h2([^>]*)>\s*(Sensitivity Analysis|Assumptions)\s*</h2>`)
	reNumericCell      = regexp.MustCompile(`<td style="text-align:right">`)
)

// HTMLRenderer turns report markdown into a standalone HTML page. A
// style.css in webDir replaces the built-in stylesheet.
type HTMLRenderer struct {
	webDir    string
	styleOnce sync.Once
	styleCSS  string
	styleErr  error
}

func NewHTMLRenderer(webDir string) *HTMLRenderer {
	return &HTMLRenderer{webDir: webDir}
}

// Render converts markdown with the GFM extension (tables) and wraps it in a
// page shell.
func (r *HTMLRenderer) Render(markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	styleCSS, err := r.loadStyleCSS()
	if err != nil {
		return "", err
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>Wireless TCO Comparison</title>" +
		"<style>" + styleCSS + "</style></head><body>" +
		"<main class='report'>" + applyPrintLayoutHooks(content.String()) + "</main>" +
		"</body></html>", nil
}

func applyPrintLayoutHooks(contentHTML string) string {
	out := rePageBreakHeading.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">$2</h2>`)
	return reNumericCell.ReplaceAllString(out, `<td class="num" style="text-align:right">`)
}

func (r *HTMLRenderer) loadStyleCSS() (string, error) {
	r.styleOnce.Do(func() {
		r.styleCSS = defaultStyleCSS
		if r.webDir == "" {
			return
		}
		b, err := os.ReadFile(filepath.Join(r.webDir, "style.css"))
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			r.styleErr = fmt.Errorf("read style.css: %w", err)
		default:
			r.styleCSS = string(b)
		}
	})
	return r.styleCSS, r.styleErr
}
