package narration

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"mangarecap/internal/panels"
)

const (
	openingTemplate = "Welcome to the recap of %s. Let's see what happens in this chapter."
	pageTransition  = "Moving on to the next page..."
	closingLine     = "And that's the end of this chapter. Thanks for watching, and don't forget to subscribe for more manga recaps!"
	separator       = " ... "
)

// Script is the full narration text, consumed once by the synthesizer.
type Script string

func (s Script) String() string { return string(s) }

// Len reports the script length in characters.
func (s Script) Len() int { return len([]rune(string(s))) }

// ocrFixes rewrites characters tesseract commonly confuses in lettering.
// The mapping is applied everywhere, so genuine digits and pipes are lost.
var ocrFixes = strings.NewReplacer(
	"|", "I",
	"0", "O",
)

// Clean prepares recognized text for speech: NFKC normalization folds
// full-width and compatibility forms, whitespace runs collapse to one space,
// and the fixed OCR substitutions apply.
func Clean(text string) string {
	text = norm.NFKC.String(text)
	text = strings.Join(strings.Fields(text), " ")
	return ocrFixes.Replace(text)
}

// BuildScript joins the opening line, each panel's cleaned text, page
// transitions, and the closing line. A transition precedes the first panel
// of every page after page 0, whether or not that panel has text.
func BuildScript(ps []panels.Panel, title string) Script {
	parts := []string{fmt.Sprintf(openingTemplate, title)}

	currentPage := -1
	for _, p := range ps {
		if p.PageIndex != currentPage {
			currentPage = p.PageIndex
			if p.PageIndex > 0 {
				parts = append(parts, pageTransition)
			}
		}
		if text := Clean(p.Text); text != "" {
			parts = append(parts, text)
		}
	}

	parts = append(parts, closingLine)
	return Script(strings.Join(parts, separator))
}
