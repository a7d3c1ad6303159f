package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// the text of a selection with non-printable characters dropped,
// surrounding whitespace trimmed and inner runs of whitespace collapsed.
// scraped portal cells are full of layout whitespace and nbsp padding.
func CellText(sel *goquery.Selection) string {
	text := ""
	for _, n := range sel.Nodes {
		text += GetText(n)
	}
	text = removeNonPrintable(text)
	text = strings.Trim(text, " \t\n ")
	text = innerWhitespace.ReplaceAllString(text, " ")
	return text
}
