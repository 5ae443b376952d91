/*
Package htmltext turns announcement markup into plain text while keeping the
line structure the portal renders.
*/
package htmltext

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blankRun = regexp.MustCompile(`\n{4,}`)

// block elements end their content with a line break.
var block = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Blockquote: true, atom.Dd: true,
	atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Fieldset: true,
	atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Ol: true,
	atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Tr: true, atom.Ul: true,
}

// Text returns the text content of n. Line breaks are emitted for <br> and
// after block elements; script and style content is skipped. The result is
// not normalised.
func Text(n *html.Node) string {
	var sb strings.Builder
	extract(n, &sb)
	return sb.String()
}

func extract(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style:
			return
		case atom.Br:
			sb.WriteByte('\n')
			return
		case atom.Td, atom.Th:
			if n.PrevSibling != nil {
				sb.WriteByte(' ')
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extract(c, sb)
	}

	if n.Type == html.ElementNode && block[n.DataAtom] {
		sb.WriteByte('\n')
	}
}

// Normalize trims every line, collapses three or more consecutive blank lines
// into a single blank line and trims the result.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	return strings.TrimSpace(blankRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
