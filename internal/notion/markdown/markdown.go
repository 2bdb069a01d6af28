// Package markdown converts between canonical block sequences and
// markdown text. Both directions are lossy: inline formatting and
// styling metadata are dropped, and numbered list items always render a
// literal "1." marker. The conversion is a fixed projection, not
// CommonMark.
package markdown

import (
	"regexp"
	"strings"

	"github.com/kairyu/notionctl/internal/notion/types"
)

// FromBlocks renders a block sequence as markdown. Children from
// childMap render indented two spaces per nesting level beneath their
// parent. Structural container blocks (column_list, column,
// synced_block) render nothing themselves but their children still
// render, at the container's indent level.
func FromBlocks(blocks []types.NormalizedBlock, childMap map[string][]types.NormalizedBlock, indent string) string {
	var parts []string
	for _, b := range blocks {
		if text := renderBlock(b, indent); text != "" {
			parts = append(parts, text)
		}
		children := childMap[b.ID]
		if len(children) == 0 {
			continue
		}
		childIndent := indent + "  "
		if isContainer(b.Type) {
			childIndent = indent
		}
		if text := FromBlocks(children, childMap, childIndent); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

func isContainer(t types.BlockType) bool {
	switch t {
	case types.BlockColumnList, types.BlockColumn, types.BlockSyncedBlock:
		return true
	}
	return false
}

func renderBlock(b types.NormalizedBlock, indent string) string {
	line := renderLine(b)
	if line == "" {
		return ""
	}
	if strings.Contains(line, "\n") {
		// Fenced code spans keep their own lines; indent applies to each.
		lines := strings.Split(line, "\n")
		for i := range lines {
			lines[i] = indent + lines[i]
		}
		return strings.Join(lines, "\n")
	}
	return indent + line
}

func renderLine(b types.NormalizedBlock) string {
	switch b.Type {
	case types.BlockParagraph:
		return b.RichText
	case types.BlockHeading1:
		return "# " + b.RichText
	case types.BlockHeading2:
		return "## " + b.RichText
	case types.BlockHeading3:
		return "### " + b.RichText
	case types.BlockBulletedListItem:
		return "- " + b.RichText
	case types.BlockNumberedListItem:
		// No running counter: every item renders "1." and the markdown
		// renderer renumbers. Preserved as a known limitation.
		return "1. " + b.RichText
	case types.BlockToDo:
		if b.Checked != nil && *b.Checked {
			return "- [x] " + b.RichText
		}
		return "- [ ] " + b.RichText
	case types.BlockToggle:
		return "> ▶ " + b.RichText
	case types.BlockCode:
		return "```" + b.Language + "\n" + b.RichText + "\n```"
	case types.BlockQuote:
		return "> " + b.RichText
	case types.BlockCallout:
		emoji := b.Emoji
		if emoji == "" {
			emoji = "💡"
		}
		return "> " + emoji + " " + b.RichText
	case types.BlockDivider:
		return "---"
	case types.BlockImage:
		return "![" + fallback(b.Caption, "image") + "](" + b.URL + ")"
	case types.BlockBookmark:
		label := b.Caption
		if label == "" {
			label = b.URL
		}
		return "[" + fallback(label, "bookmark") + "](" + b.URL + ")"
	case types.BlockEquation:
		return "$$" + b.Expression + "$$"
	case types.BlockChildPage:
		return "📄 " + fallback(b.Title, "Untitled")
	case types.BlockChildDatabase:
		return "📊 " + fallback(b.Title, "Untitled")
	case types.BlockTableOfContents:
		return "[Table of Contents]"
	case types.BlockBreadcrumb:
		return "[Breadcrumb]"
	case types.BlockLinkPreview:
		return "[" + fallback(b.Caption, "link preview") + "](" + b.URL + ")"
	case types.BlockEmbed:
		return "[" + fallback(b.Caption, "embed") + "](" + b.URL + ")"
	case types.BlockVideo:
		return "[" + fallback(b.Caption, "video") + "](" + b.URL + ")"
	case types.BlockPDF:
		return "[" + fallback(b.Caption, "pdf") + "](" + b.URL + ")"
	case types.BlockAudio:
		return "[" + fallback(b.Caption, "audio") + "](" + b.URL + ")"
	case types.BlockFile:
		return "[" + fallback(b.Title, "file") + "](" + b.URL + ")"
	case types.BlockColumnList, types.BlockColumn, types.BlockSyncedBlock:
		return ""
	default:
		if b.RichText != "" {
			return b.RichText
		}
		return "[unsupported: " + b.Type + "]"
	}
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

var (
	headingRe  = regexp.MustCompile(`^(#{1,3}) (.*)$`)
	dividerRe  = regexp.MustCompile(`^(-{3,}|\*{3,})$`)
	numberedRe = regexp.MustCompile(`^\d+\. `)
)

// ToBlocks parses markdown into block-creation objects in the public
// API shape. The grammar is line-oriented, single-pass, and greedy:
// each non-blank line matches the first rule that fits, blank lines
// produce no block, and nothing is ever backtracked.
func ToBlocks(md string) []types.BlockInput {
	var blocks []types.BlockInput
	lines := strings.Split(md, "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "```") {
			lang := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			if lang == "" {
				lang = "plain text"
			}
			var code []string
			i++
			for ; i < len(lines); i++ {
				if strings.TrimSpace(lines[i]) == "```" {
					break
				}
				code = append(code, lines[i])
			}
			blocks = append(blocks, types.BlockInput{
				Type:     types.BlockCode,
				Text:     strings.Join(code, "\n"),
				Language: lang,
			})
			continue
		}

		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			headingType := [...]string{types.BlockHeading1, types.BlockHeading2, types.BlockHeading3}[len(m[1])-1]
			blocks = append(blocks, types.BlockInput{Type: headingType, Text: m[2]})
			continue
		}

		if dividerRe.MatchString(trimmed) {
			blocks = append(blocks, types.BlockInput{Type: types.BlockDivider})
			continue
		}

		if todo, checked, ok := parseTodo(trimmed); ok {
			blocks = append(blocks, types.BlockInput{Type: types.BlockToDo, Text: todo, Checked: checked})
			continue
		}

		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			blocks = append(blocks, types.BlockInput{Type: types.BlockBulletedListItem, Text: trimmed[2:]})
			continue
		}

		if loc := numberedRe.FindString(trimmed); loc != "" {
			blocks = append(blocks, types.BlockInput{Type: types.BlockNumberedListItem, Text: trimmed[len(loc):]})
			continue
		}

		if strings.HasPrefix(trimmed, "> ") {
			blocks = append(blocks, types.BlockInput{Type: types.BlockQuote, Text: trimmed[2:]})
			continue
		}

		// Fallback paragraph keeps the line verbatim.
		blocks = append(blocks, types.BlockInput{Type: types.BlockParagraph, Text: line})
	}

	return blocks
}

func parseTodo(line string) (text string, checked, ok bool) {
	switch {
	case strings.HasPrefix(line, "- [ ] "):
		return line[6:], false, true
	case strings.HasPrefix(line, "- [x] "), strings.HasPrefix(line, "- [X] "):
		return line[6:], true, true
	}
	return "", false, false
}
