package htmlutil

import (
	"bytes"
	"strings"

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

func Parse(source string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(source))
}

// LabeledValues walks every <span> in the document and, for the ones
// whose text the matcher accepts, collects the text of the immediately
// following sibling span. Single-account pages render the account
// number as static `<span>label</span><span>value</span>` pairs
// instead of a selector.
func LabeledValues(doc *goquery.Document, match func(label string) bool) []string {
	var values []string
	doc.Find("span").Each(func(_ int, span *goquery.Selection) {
		if !match(span.Text()) {
			return
		}
		sibling := span.NextFiltered("span")
		if sibling.Length() == 0 {
			return
		}
		var buffer strings.Builder
		for _, node := range sibling.Nodes {
			buffer.WriteString(GetText(node))
		}
		if text := strings.TrimSpace(buffer.String()); text != "" {
			values = append(values, text)
		}
	})
	return values
}
