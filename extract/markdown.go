package extract

import (
	"context"
	"strings"
)

// MarkdownExtractor tokenizes markdown line by line: ATX headings, fenced
// code blocks with their language tag, pipe tables, lists, and paragraphs.
// A full CommonMark parse is not needed; the chunker only cares about
// block boundaries and types.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Formats() []string { return []string{"md"} }

func (e *MarkdownExtractor) Extract(_ context.Context, name string, data []byte) (*Result, error) {
	text, _, warning := decodeText(data)
	lines := strings.Split(text, "\n")

	var blocks []Block
	var para []string

	flushPara := func() {
		joined := strings.TrimSpace(strings.Join(para, " "))
		para = nil
		if joined != "" {
			blocks = append(blocks, Block{Text: joined, Type: BlockText})
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushPara()

		case strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~"):
			flushPara()
			fence := trimmed[:3]
			lang := strings.TrimSpace(strings.TrimLeft(trimmed, "`~"))
			var code []string
			for i++; i < len(lines); i++ {
				if strings.HasPrefix(strings.TrimSpace(lines[i]), fence) {
					break
				}
				code = append(code, lines[i])
			}
			body := strings.TrimRight(strings.Join(code, "\n"), "\n")
			if strings.TrimSpace(body) != "" {
				blocks = append(blocks, Block{Text: body, Type: BlockCode, Language: lang})
			}

		case strings.HasPrefix(trimmed, "#"):
			flushPara()
			level := 0
			for level < len(trimmed) && trimmed[level] == '#' {
				level++
			}
			if level > 6 {
				level = 6
			}
			title := strings.TrimSpace(strings.TrimRight(strings.TrimLeft(trimmed, "#"), "#"))
			if title != "" {
				blocks = append(blocks, Block{Text: title, Type: BlockHeading, Level: level})
			}

		case isMarkdownTableLine(trimmed):
			flushPara()
			var rows []string
			for ; i < len(lines); i++ {
				t := strings.TrimSpace(lines[i])
				if !isMarkdownTableLine(t) {
					i--
					break
				}
				if !isTableSeparator(t) {
					rows = append(rows, t)
				}
			}
			if len(rows) > 0 {
				blocks = append(blocks, Block{Text: strings.Join(rows, "\n"), Type: BlockTable})
			}

		case isListLine(trimmed):
			flushPara()
			var items []string
			for ; i < len(lines); i++ {
				t := strings.TrimSpace(lines[i])
				if !isListLine(t) {
					i--
					break
				}
				items = append(items, t)
			}
			if len(items) > 0 {
				blocks = append(blocks, Block{Text: strings.Join(items, "\n"), Type: BlockList})
			}

		default:
			para = append(para, trimmed)
		}
	}
	flushPara()

	res := &Result{
		Format: "md",
		Docs:   []Doc{{Name: name, Blocks: blocks}},
	}
	if warning != "" {
		res.Warnings = append(res.Warnings, warning)
	}
	return res, nil
}

func isMarkdownTableLine(line string) bool {
	return strings.HasPrefix(line, "|") && strings.Count(line, "|") >= 2
}

// isTableSeparator matches the |---|---| row under a table header.
func isTableSeparator(line string) bool {
	inner := strings.Trim(line, "|")
	for _, cell := range strings.Split(inner, "|") {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			return false
		}
		for _, r := range cell {
			if r != '-' && r != ':' {
				return false
			}
		}
	}
	return true
}
