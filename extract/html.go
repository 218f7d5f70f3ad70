package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// HTMLExtractor walks the DOM, drops boilerplate containers, and emits
// headings with their level, linearized tables, lists, and paragraphs.
type HTMLExtractor struct{}

func (e *HTMLExtractor) Formats() []string { return []string{"html"} }

// stripTags are elements whose entire subtree is boilerplate.
var stripTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"nav": true, "footer": true, "header": true, "aside": true,
	"svg": true, "form": true, "button": true,
}

var headingLevels = map[string]int{
	"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6,
}

func (e *HTMLExtractor) Extract(_ context.Context, name string, data []byte) (*Result, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	w := &htmlWalker{}
	w.walk(root)
	w.flushPara()

	meta := map[string]any{}
	if w.title != "" {
		meta["title"] = w.title
	}

	return &Result{
		Format: "html",
		Docs: []Doc{{
			Name:     name,
			Blocks:   w.blocks,
			Metadata: meta,
		}},
	}, nil
}

type htmlWalker struct {
	blocks []Block
	para   []string
	title  string
}

func (w *htmlWalker) flushPara() {
	text := collapseSpace(strings.Join(w.para, " "))
	w.para = nil
	if text != "" {
		w.blocks = append(w.blocks, Block{Text: text, Type: BlockText})
	}
}

func (w *htmlWalker) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		tag := n.Data
		if stripTags[tag] {
			return
		}
		switch {
		case tag == "title":
			w.title = collapseSpace(nodeText(n))
			return
		case headingLevels[tag] > 0:
			w.flushPara()
			text := collapseSpace(nodeText(n))
			if text != "" {
				w.blocks = append(w.blocks, Block{Text: text, Type: BlockHeading, Level: headingLevels[tag]})
			}
			return
		case tag == "table":
			w.flushPara()
			if rows := tableRows(n); len(rows) > 0 {
				w.blocks = append(w.blocks, Block{Text: strings.Join(rows, "\n"), Type: BlockTable})
			}
			return
		case tag == "ul" || tag == "ol":
			w.flushPara()
			if items := listItems(n); len(items) > 0 {
				w.blocks = append(w.blocks, Block{Text: strings.Join(items, "\n"), Type: BlockList})
			}
			return
		case tag == "pre":
			w.flushPara()
			text := strings.TrimRight(nodeText(n), "\n")
			if strings.TrimSpace(text) != "" {
				w.blocks = append(w.blocks, Block{Text: text, Type: BlockCode})
			}
			return
		case tag == "p" || tag == "div" || tag == "section" || tag == "article" || tag == "br" || tag == "li":
			w.flushPara()
		}
	}

	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			w.para = append(w.para, t)
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "section", "article", "li":
			w.flushPara()
		}
	}
}

// tableRows linearizes a table as one line per row with " | " between
// cells.
func tableRows(table *html.Node) []string {
	var rows []string
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, collapseSpace(nodeText(c)))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, " | "))
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(table)
	return rows
}

func listItems(list *html.Node) []string {
	var items []string
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			if t := collapseSpace(nodeText(c)); t != "" {
				items = append(items, "- "+t)
			}
		}
	}
	return items
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && stripTags[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
