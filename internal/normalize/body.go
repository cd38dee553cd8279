package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	breakSpace   = regexp.MustCompile(`\s*<br>\s*`)
	breakRun     = regexp.MustCompile(`(?:<br>){2,}`)
	paraOpenBr   = regexp.MustCompile(`<p>(?:\s|<br>)+`)
	paraCloseBr  = regexp.MustCompile(`(?:\s|<br>)+</p>`)
	emptyPara    = regexp.MustCompile(`<p>\s*</p>`)
	edgeBreaks   = regexp.MustCompile(`^(?:\s|<br>)+|(?:\s|<br>)+$`)
	tagGap       = regexp.MustCompile(`>\s+<`)
	textEscaper  = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	newlineFixer = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// blockTags become line breaks so their text does not run together.
var blockTags = map[atom.Atom]bool{
	atom.Div: true, atom.Li: true, atom.Tr: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true, atom.Ul: true,
	atom.Ol: true, atom.Table: true, atom.Section: true,
}

// CleanBody reduces a product description to paragraphs and line breaks.
// Every other tag is dropped (its text kept, except for scripts and
// styles), raw newlines become <br>, whitespace and repeated breaks are
// collapsed and empty paragraphs removed.
func CleanBody(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	inPara := false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()
		switch tt {
		case html.TextToken:
			if skip > 0 {
				continue
			}
			lines := strings.Split(newlineFixer.Replace(tok.Data), "\n")
			for i, line := range lines {
				if i > 0 {
					b.WriteString("<br>")
				}
				b.WriteString(textEscaper.Replace(spaceRun.ReplaceAllString(line, " ")))
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			switch {
			case tok.DataAtom == atom.Script || tok.DataAtom == atom.Style:
				if tt == html.StartTagToken {
					skip++
				}
			case skip > 0:
			case tok.DataAtom == atom.P:
				if inPara {
					b.WriteString("</p>")
				}
				b.WriteString("<p>")
				inPara = true
			case tok.DataAtom == atom.Br || blockTags[tok.DataAtom]:
				b.WriteString("<br>")
			}
		case html.EndTagToken:
			switch {
			case tok.DataAtom == atom.Script || tok.DataAtom == atom.Style:
				if skip > 0 {
					skip--
				}
			case skip > 0:
			case tok.DataAtom == atom.P:
				if inPara {
					b.WriteString("</p>")
					inPara = false
				}
			case blockTags[tok.DataAtom]:
				b.WriteString("<br>")
			}
		}
	}
	if inPara {
		b.WriteString("</p>")
	}

	out := spaceRun.ReplaceAllString(b.String(), " ")
	out = tagGap.ReplaceAllString(out, "><")
	out = breakSpace.ReplaceAllString(out, "<br>")
	out = breakRun.ReplaceAllString(out, "<br>")
	out = paraOpenBr.ReplaceAllString(out, "<p>")
	out = paraCloseBr.ReplaceAllString(out, "</p>")
	out = emptyPara.ReplaceAllString(out, "")
	out = strings.ReplaceAll(out, "</p><br>", "</p>")
	out = strings.ReplaceAll(out, "<br><p>", "<p>")
	out = edgeBreaks.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}
