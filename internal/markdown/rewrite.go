// Package markdown rewrites doc prose: resolving rustdoc intra-doc links
// to rsdoc:// URIs and extracting summaries.
package markdown

import (
	"fmt"
	"sort"
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"
)

func parse(src string) ast.Node {
	return gm.Parse([]byte(src), gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.Autolink,
	))
}

// RewriteDestinations rewrites link destinations using the provided map.
// The markdown is parsed to find real link destinations, then targeted
// string replacements preserve the original formatting.
func RewriteDestinations(src string, destMap map[string]string) string {
	if len(destMap) == 0 {
		return src
	}

	// Collect unique destinations that need replacement
	seen := make(map[string]bool)
	type replacement struct {
		oldDest string
		newDest string
	}
	var replacements []replacement

	ast.WalkFunc(parse(src), func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if link, ok := node.(*ast.Link); ok {
			dest := string(link.Destination)
			if newDest, ok := destMap[dest]; ok && !seen[dest] {
				seen[dest] = true
				replacements = append(replacements, replacement{dest, newDest})
			}
		}
		return ast.GoToNext
	})

	if len(replacements) == 0 {
		return src
	}

	result := src

	// Inline links: [text](destination) — one pass per replacement
	for _, r := range replacements {
		result = strings.ReplaceAll(result, "]("+r.oldDest+")", "]("+r.newDest+")")
	}

	// Reference-style definitions: [ref]: destination — single pass over lines
	refMap := make(map[string]string, len(replacements))
	for _, r := range replacements {
		refMap["]: "+r.oldDest] = "]: " + r.newDest
	}
	lines := strings.Split(result, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for oldSuffix, newSuffix := range refMap {
			if strings.HasSuffix(trimmed, oldSuffix) {
				lines[i] = strings.Replace(line, oldSuffix, newSuffix, 1)
				break
			}
		}
	}
	result = strings.Join(lines, "\n")

	return result
}

// ResolveIntraDocLinks turns rustdoc shortcut references into inline links.
// rustdoc prose writes [`Value::as_str`] with no destination; the document's
// link table maps that target text to an item. Each occurrence becomes
// [`Value::as_str`](uri). Occurrences already followed by a destination are
// left alone.
func ResolveIntraDocLinks(src string, links map[string]string) string {
	if len(links) == 0 {
		return src
	}

	result := src
	for target, uri := range links {
		for _, pattern := range []string{"[`" + target + "`]", "[" + target + "]"} {
			result = linkShortcuts(result, pattern, uri)
		}
	}
	return result
}

// linkShortcuts appends "(uri)" to every occurrence of pattern that is not
// already an inline or reference link.
func linkShortcuts(src, pattern, uri string) string {
	var b strings.Builder
	for {
		idx := strings.Index(src, pattern)
		if idx < 0 {
			b.WriteString(src)
			return b.String()
		}
		end := idx + len(pattern)
		b.WriteString(src[:end])
		// Skip occurrences with an explicit destination or reference,
		// and reference definitions.
		if end < len(src) && (src[end] == '(' || src[end] == '[' || src[end] == ':') {
			src = src[end:]
			continue
		}
		b.WriteString("(" + uri + ")")
		src = src[end:]
	}
}

// FirstParagraph returns the text of the first prose paragraph, used as a
// one-line item summary. Headings and code blocks before the first
// paragraph are skipped.
func FirstParagraph(src string) string {
	var out string
	ast.WalkFunc(parse(src), func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering || out != "" {
			return ast.GoToNext
		}
		para, ok := node.(*ast.Paragraph)
		if !ok {
			return ast.GoToNext
		}
		var text strings.Builder
		ast.WalkFunc(para, func(child ast.Node, entering bool) ast.WalkStatus {
			if !entering {
				return ast.GoToNext
			}
			switch child := child.(type) {
			case *ast.Text:
				text.Write(child.Literal)
			case *ast.Code:
				text.Write(child.Literal)
			}
			return ast.GoToNext
		})
		out = strings.TrimSpace(text.String())
		return ast.Terminate
	})
	return out
}

// AddFrontMatter prepends a YAML front-matter block listing fragment URIs.
func AddFrontMatter(src string, fragments map[string]string) string {
	if len(fragments) == 0 {
		return src
	}

	keys := make([]string, 0, len(fragments))
	for k := range fragments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("---\n")
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%s: %s\n", k, fragments[k]))
	}
	b.WriteString("---\n\n")
	b.WriteString(src)
	return b.String()
}
