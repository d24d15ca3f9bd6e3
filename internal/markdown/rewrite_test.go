package markdown

import (
	"strings"
	"testing"
)

func TestRewriteDestinations_InlineLinks(t *testing.T) {
	t.Parallel()
	src := "See [Foo](old/path) for details."
	got := RewriteDestinations(src, map[string]string{"old/path": "rsdoc://crate/1.0/Foo"})
	want := "See [Foo](rsdoc://crate/1.0/Foo) for details."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewriteDestinations_ReferenceStyleLinks(t *testing.T) {
	t.Parallel()
	src := "See [Foo][ref] for details.\n\n[ref]: old/path"
	got := RewriteDestinations(src, map[string]string{"old/path": "rsdoc://new"})
	if !strings.Contains(got, "[ref]: rsdoc://new") {
		t.Errorf("reference link not rewritten: %q", got)
	}
}

func TestRewriteDestinations_EmptyMap(t *testing.T) {
	t.Parallel()
	src := "Hello [world](url)."
	got := RewriteDestinations(src, nil)
	if got != src {
		t.Errorf("expected unchanged, got %q", got)
	}
	got = RewriteDestinations(src, map[string]string{})
	if got != src {
		t.Errorf("expected unchanged for empty map, got %q", got)
	}
}

func TestRewriteDestinations_NoMatchingLinks(t *testing.T) {
	t.Parallel()
	src := "Check [this](keep-me) out."
	got := RewriteDestinations(src, map[string]string{"other": "rsdoc://x"})
	if got != src {
		t.Errorf("expected unchanged, got %q", got)
	}
}

func TestRewriteDestinations_MultipleLinks(t *testing.T) {
	t.Parallel()
	src := "[A](a-dest) and [B](b-dest) together."
	got := RewriteDestinations(src, map[string]string{
		"a-dest": "rsdoc://a",
		"b-dest": "rsdoc://b",
	})
	if !strings.Contains(got, "(rsdoc://a)") {
		t.Error("link A not rewritten")
	}
	if !strings.Contains(got, "(rsdoc://b)") {
		t.Error("link B not rewritten")
	}
}

func TestResolveIntraDocLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   string
		links map[string]string
		want  string
	}{
		{
			"code shortcut",
			"Use [`Value::as_str`] to borrow.",
			map[string]string{"Value::as_str": "rsdoc://serde-json/1.0/serde_json::Value::as_str"},
			"Use [`Value::as_str`](rsdoc://serde-json/1.0/serde_json::Value::as_str) to borrow.",
		},
		{
			"plain shortcut",
			"See [Config] for options.",
			map[string]string{"Config": "rsdoc://demo/1.0/demo::Config"},
			"See [Config](rsdoc://demo/1.0/demo::Config) for options.",
		},
		{
			"existing inline link untouched",
			"See [`Config`](https://example.com).",
			map[string]string{"Config": "rsdoc://demo/1.0/demo::Config"},
			"See [`Config`](https://example.com).",
		},
		{
			"reference link untouched",
			"See [Config][cfg].\n\n[cfg]: https://example.com",
			map[string]string{"Config": "rsdoc://demo/1.0/demo::Config"},
			"See [Config][cfg].\n\n[cfg]: https://example.com",
		},
		{
			"no links",
			"Nothing to do.",
			nil,
			"Nothing to do.",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ResolveIntraDocLinks(tt.src, tt.links); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFirstParagraph(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"plain",
			"A fast JSON parser.\n\nMore prose here.",
			"A fast JSON parser.",
		},
		{
			"skips heading",
			"# serde_json\n\nA fast JSON parser.",
			"A fast JSON parser.",
		},
		{
			"inline code kept",
			"Parses `&str` input.",
			"Parses &str input.",
		},
		{
			"empty",
			"",
			"",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FirstParagraph(tt.src); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddFrontMatter(t *testing.T) {
	t.Parallel()

	t.Run("basic", func(t *testing.T) {
		got := AddFrontMatter("# Doc", map[string]string{"fields": "rsdoc://x#fields"})
		if !strings.HasPrefix(got, "---\n") {
			t.Error("missing opening ---")
		}
		if !strings.Contains(got, "fields: rsdoc://x#fields") {
			t.Error("missing fragment entry")
		}
		if !strings.HasSuffix(got, "# Doc") {
			t.Error("original content missing")
		}
	})

	t.Run("sorted_keys", func(t *testing.T) {
		got := AddFrontMatter("body", map[string]string{
			"z-frag": "rsdoc://z",
			"a-frag": "rsdoc://a",
		})
		aIdx := strings.Index(got, "a-frag")
		zIdx := strings.Index(got, "z-frag")
		if aIdx > zIdx {
			t.Error("keys not sorted alphabetically")
		}
	})

	t.Run("empty_map", func(t *testing.T) {
		got := AddFrontMatter("body", nil)
		if got != "body" {
			t.Errorf("expected unchanged for empty map, got %q", got)
		}
	})
}
