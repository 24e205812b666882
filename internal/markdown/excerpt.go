package markdown

import (
	"bytes"
	"math"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MoreSeparator marks the end of a hand-picked excerpt.
const MoreSeparator = "<!-- more -->"

// wordsPerMinute is the reading speed used by ReadingTime.
const wordsPerMinute = 200

var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// Excerpt returns the HTML before the <!-- more --> separator, or else the
// first paragraph. It returns "" when neither exists.
func Excerpt(rendered []byte) string {
	if idx := bytes.Index(rendered, []byte(MoreSeparator)); idx >= 0 {
		return strings.TrimSpace(string(rendered[:idx]))
	}
	nodes, err := html.ParseFragment(bytes.NewReader(rendered), bodyContext)
	if err != nil {
		return ""
	}
	for _, n := range nodes {
		if p := findFirst(n, atom.P); p != nil {
			var buf bytes.Buffer
			if err := html.Render(&buf, p); err != nil {
				return ""
			}
			return buf.String()
		}
	}
	return ""
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

// ReadingTime estimates minutes to read rendered HTML (at least one).
func ReadingTime(rendered []byte) int {
	words := 0
	z := html.NewTokenizer(bytes.NewReader(rendered))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return max(1, int(math.Ceil(float64(words)/wordsPerMinute)))
		case html.TextToken:
			words += len(strings.Fields(string(z.Text())))
		}
	}
}
