package wiki

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipElements hold markup whose text should not be read aloud.
var skipElements = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Sup:    true, // citation markers
}

// htmlToText flattens an HTML fragment to a single line of text.
func htmlToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var b strings.Builder
	collectText(doc, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && skipElements[n.DataAtom] {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
	if n.Type == html.ElementNode && n.DataAtom == atom.P {
		b.WriteString(" ")
	}
}

// FirstSentences returns the first n sentences of text. A sentence ends
// at '.', '!' or '?' followed by whitespace and an upper-case letter or
// digit, so abbreviations like "e.g. the" do not split.
func FirstSentences(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if n <= 0 || text == "" {
		return text
	}

	runes := []rune(text)
	count := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
		default:
			continue
		}
		if i+2 < len(runes) && runes[i+1] == ' ' && !startsSentence(runes[i+2]) {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		count++
		if count == n {
			return string(runes[:i+1])
		}
	}
	return text
}

func startsSentence(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsDigit(r) || r == '"' || r == '('
}
