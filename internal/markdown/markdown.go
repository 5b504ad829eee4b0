package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// ExtractLinks parses a note body (frontmatter already removed) and extracts
// standard Markdown link constructs. Wiki links are not represented in the
// CommonMark AST; see ExtractWikiLinks.
//
// This is an analysis API; it does not re-render Markdown.
func ExtractLinks(body []byte) []Link {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	// Vault image paths routinely contain spaces, which strict CommonMark
	// rejects as destinations. A permissive line pass picks those up.
	links = append(links, extractPermissiveImages(body)...)

	return links
}

// ExtractHTMLImages collects the src attribute of every <img> tag appearing
// in raw HTML fragments of a note body.
func ExtractHTMLImages(body []byte) []string {
	if !bytes.Contains(body, []byte("<img")) {
		return nil
	}

	var srcs []string
	tok := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			return srcs
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := tok.TagName()
		if string(name) != "img" || !hasAttr {
			continue
		}
		for {
			key, val, more := tok.TagAttr()
			if string(key) == "src" && len(val) > 0 {
				srcs = append(srcs, string(val))
			}
			if !more {
				break
			}
		}
	}
}

// extractPermissiveImages returns image links whose destinations contain
// whitespace; goldmark rejects those, so they never appear in the AST walk.
func extractPermissiveImages(body []byte) []Link {
	out := make([]Link, 0)
	for _, span := range ExtractImageDestinations(body) {
		if strings.ContainsAny(span.Destination, " \t") {
			out = append(out, Link{Kind: LinkKindImage, Destination: span.Destination})
		}
	}
	return out
}

func toggleFencedBlock(inCodeBlock bool, activeFence string, fence string) (bool, string) {
	if !inCodeBlock {
		return true, fence
	}
	if activeFence == fence {
		return false, ""
	}
	return inCodeBlock, activeFence
}
