// Package render turns a conversation state into display text. Output is a
// pure function of the state: rendering the same state twice yields the same
// bytes.
package render

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"zaidev/internal/domain/models/chat"
	"zaidev/internal/domain/models/generation"
)

// Options controls Markdown output.
type Options struct {
	// InlineImages writes images as Markdown image links with the full data
	// URI. Otherwise images are summarised by MIME type and size.
	InlineImages bool
}

// Markdown renders the transcript with code in fenced blocks.
func Markdown(s chat.State, opts Options) string {
	var b strings.Builder
	for i, m := range s.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		writeMarkdownMessage(&b, m, opts)
	}
	if s.Error != "" {
		if len(s.Messages) > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "**Error:** %s\n", s.Error)
	}
	return b.String()
}

func writeMarkdownMessage(b *strings.Builder, m chat.Message, opts Options) {
	fmt.Fprintf(b, "**%s:** %s\n", speaker(m.Role), m.Content)

	if m.HasCode() {
		fence := fenceFor(m.Code)
		fmt.Fprintf(b, "\n%s\n%s\n%s\n", fence, strings.TrimRight(m.Code, "\n"), fence)
	}
	if m.ImageURL != "" {
		if opts.InlineImages {
			fmt.Fprintf(b, "\n![image](%s)\n", m.ImageURL)
		} else {
			fmt.Fprintf(b, "\n[%s]\n", describeImage(m.ImageURL))
		}
	}
	if len(m.Suggestions) > 0 {
		b.WriteString("\nSuggestions:\n")
		for i, s := range m.Suggestions {
			fmt.Fprintf(b, "%d. %s\n", i+1, s)
		}
	}
}

func speaker(r chat.Role) string {
	switch r {
	case chat.RoleUser:
		return "You"
	case chat.RoleAssistant:
		return "Zaidev"
	default:
		return string(r)
	}
}

// fenceFor returns a backtick fence longer than any backtick run in code.
func fenceFor(code string) string {
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}

func describeImage(uri string) string {
	media, err := generation.ParseDataURI(uri)
	if err != nil {
		return "image"
	}
	return fmt.Sprintf("image: %s, %d bytes", media.MIMEType, len(media.Data))
}

// rasterImageTypes are the image MIME types allowed in HTML output. SVG is
// excluded because it can carry script.
var rasterImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// isRasterDataURI reports whether uri is a decodable base64 data URI of a
// raster image type.
func isRasterDataURI(uri string) bool {
	media, err := generation.ParseDataURI(uri)
	return err == nil && rasterImageTypes[strings.ToLower(media.MIMEType)]
}

// htmlPolicy allows the markup written by HTML plus raster data URI images.
// bluemonday's AllowDataURIImages also admits image/svg+xml, so data URIs
// get their own check.
var htmlPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowURLSchemeWithCustomPolicy("data", func(u *url.URL) bool {
		if u.RawQuery != "" || u.Fragment != "" {
			return false
		}
		return isRasterDataURI("data:" + u.Opaque)
	})
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).Globally()
	p.AllowAttrs("data-id").Globally()
	return p
}()

// HTML renders the transcript as a sanitized HTML fragment for embedding in
// a page. Images that are not raster data URIs are left out.
func HTML(s chat.State) string {
	var b strings.Builder
	b.WriteString(`<div class="conversation">`)
	for _, m := range s.Messages {
		fmt.Fprintf(&b, `<div class="message %s" data-id="%s">`, html.EscapeString(string(m.Role)), html.EscapeString(m.ID))
		fmt.Fprintf(&b, "<p>%s</p>", strings.ReplaceAll(html.EscapeString(m.Content), "\n", "<br>"))
		if m.HasCode() {
			fmt.Fprintf(&b, "<pre><code>%s</code></pre>", html.EscapeString(m.Code))
		}
		if isRasterDataURI(m.ImageURL) {
			fmt.Fprintf(&b, `<img src="%s" alt="image">`, html.EscapeString(m.ImageURL))
		}
		if len(m.Suggestions) > 0 {
			b.WriteString(`<ul class="suggestions">`)
			for _, s := range m.Suggestions {
				fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(s))
			}
			b.WriteString("</ul>")
		}
		b.WriteString("</div>")
	}
	if s.Error != "" {
		fmt.Fprintf(&b, `<p class="error">%s</p>`, html.EscapeString(s.Error))
	}
	b.WriteString("</div>")
	return htmlPolicy.Sanitize(b.String())
}
