package basecamp

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	residualTagRe = regexp.MustCompile(`<[^>]+>`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
)

// ToPlainText converts basecamp rich-text HTML to plain markdown.
// It is total: any input, including malformed markup, yields text with no
// angle-bracket tags left. Empty input yields empty output.
func ToPlainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	root, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// html.Parse recovers from malformed input, err is exotic here.
		// Fall through to the tag-stripping safety net with raw input.
		return cleanup(s)
	}

	return cleanup(nodeToText(root))
}

// nodeToText is a recursive visitor over the markup tree. Known tags render
// their markdown form, basecamp custom tags render bracketed placeholders,
// anything else unwraps keeping only its children.
func nodeToText(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.DocumentNode:
		return childrenText(n)
	case html.ElementNode:
		// handled below
	default:
		return ""
	}

	switch n.Data {
	case "bc-attachment":
		filename := attrValue(n, "filename")
		contentType := attrValue(n, "content-type")
		if filename != "" || contentType != "" {
			return fmt.Sprintf("[Attachment: %s (%s)]", filename, contentType)
		}
		return "[Attachment]"

	case "mention":
		return "[@" + strings.TrimSpace(innerText(n)) + "]"

	case "bc-gallery":
		return "[Gallery]"

	case "strong", "b":
		return "**" + childrenText(n) + "**"

	case "em", "i":
		return "*" + childrenText(n) + "*"

	case "a":
		return "[" + childrenText(n) + "](" + attrValue(n, "href") + ")"

	case "h1":
		return "# " + childrenText(n) + "\n\n"
	case "h2":
		return "## " + childrenText(n) + "\n\n"
	case "h3":
		return "### " + childrenText(n) + "\n\n"

	case "ul":
		var lines []string
		for _, li := range childElements(n, "li") {
			lines = append(lines, "- "+strings.TrimSpace(innerText(li)))
		}
		return strings.Join(lines, "\n") + "\n"

	case "ol":
		var lines []string
		for i, li := range childElements(n, "li") {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, strings.TrimSpace(innerText(li))))
		}
		return strings.Join(lines, "\n") + "\n"

	case "li":
		// A li outside ul/ol context
		return "- " + childrenText(n) + "\n"

	case "p":
		return childrenText(n) + "\n\n"

	case "br":
		return "\n"

	case "code":
		return "`" + childrenText(n) + "`"

	case "pre":
		return "```\n" + childrenText(n) + "\n```"

	case "blockquote":
		return "> " + childrenText(n)

	case "hr":
		return "---\n"

	default:
		return childrenText(n)
	}
}

func childrenText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeToText(c))
	}
	return sb.String()
}

// innerText collects the raw text content of the subtree, tags ignored
func innerText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// childElements collects direct and nested elements with the given tag name
func childElements(n *html.Node, tag string) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				found = append(found, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return found
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// cleanup strips any markup the tree walk passed through and collapses
// runs of 3+ newlines to exactly 2
func cleanup(s string) string {
	s = residualTagRe.ReplaceAllString(s, "")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return s
}
