package xref

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jcdickinson/cratemap/internal/rustdoc"
)

// ItemURI builds an rsdoc:// URI for an item id. Local items carry the
// document's crate name and version; foreign items resolve through
// external_crates and get "latest". Returns "" when the id has no path
// summary or its crate is unknown.
func (r *Resolver) ItemURI(id rustdoc.Id, crateName, version string) string {
	summary, ok := r.crate.Paths[id]
	if !ok {
		return ""
	}
	fullPath := strings.Join(summary.Path, "::")
	if summary.CrateID == 0 {
		return fmt.Sprintf("rsdoc://%s/%s/%s", crateName, version, fullPath)
	}
	depName := r.CrateName(summary.CrateID)
	if depName == "" {
		return ""
	}
	return fmt.Sprintf("rsdoc://%s/latest/%s", depName, fullPath)
}

// DocLinks resolves an item's intra-doc link table to rsdoc:// URIs. The
// Links field maps markdown target text (e.g. "Value::as_str") to item ids;
// each id is resolved through Paths for its canonical path and crate
// origin. Targets that cannot be resolved are dropped — an unresolvable
// link is a defined state, not an error.
func (r *Resolver) DocLinks(item *rustdoc.Item, crateName, version string) map[string]string {
	if len(item.Links) == 0 {
		return nil
	}

	resolved := make(map[string]string, len(item.Links))
	for target, id := range item.Links {
		uri := r.ItemURI(id, crateName, version)
		if uri == "" {
			continue
		}
		resolved[target] = uri
	}

	if len(resolved) == 0 {
		return nil
	}
	return resolved
}

// docsRsRe matches docs.rs documentation URLs in markdown text.
// Captures everything up to whitespace or markdown link delimiters.
var docsRsRe = regexp.MustCompile(`https?://docs\.rs/[^\s)\]>]+`)

// DocsRsURLs scans doc text for docs.rs URLs and returns a mapping from
// each URL to its equivalent rsdoc:// URI.
func DocsRsURLs(docs string) map[string]string {
	matches := docsRsRe.FindAllString(docs, -1)
	if len(matches) == 0 {
		return nil
	}

	resolved := make(map[string]string)
	for _, fullURL := range matches {
		if uri := docsRsToRsdoc(fullURL); uri != "" {
			resolved[fullURL] = uri
		}
	}

	if len(resolved) == 0 {
		return nil
	}
	return resolved
}

// docsRsToRsdoc converts a single docs.rs URL to an rsdoc:// URI.
// Returns "" if the URL can't be converted (e.g. crate info pages).
func docsRsToRsdoc(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	path := strings.TrimPrefix(u.Path, "/")
	path = strings.TrimSuffix(path, "/")

	// Skip /crate/ info pages
	if strings.HasPrefix(path, "crate/") {
		return ""
	}

	parts := strings.SplitN(path, "/", 3)
	if len(parts) < 3 {
		return ""
	}

	crateName := parts[0]
	version := parts[1]
	rest := parts[2]

	segments := strings.Split(rest, "/")
	for len(segments) > 0 && segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}
	if len(segments) == 0 {
		return ""
	}

	// Last segment: index.html (module) or {kind}.{Name}.html (item)
	last := segments[len(segments)-1]
	if strings.HasSuffix(last, ".html") {
		if last == "index.html" {
			segments = segments[:len(segments)-1]
		} else {
			base := strings.TrimSuffix(last, ".html")
			if dotIdx := strings.Index(base, "."); dotIdx >= 0 {
				segments[len(segments)-1] = base[dotIdx+1:]
			}
		}
	}

	if len(segments) == 0 {
		return ""
	}

	rustPath := strings.Join(segments, "::")
	return fmt.Sprintf("rsdoc://%s/%s/%s", crateName, version, rustPath)
}
