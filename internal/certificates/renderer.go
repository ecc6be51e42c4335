package certificates

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
)

// DocumentExt is the extension of rendered certificate documents.
const DocumentExt = ".html"

// Document is a rendered certificate ready for storage.
type Document struct {
	Body        []byte
	ContentType string
}

// DocumentInput is everything printed on one certificate.
type DocumentInput struct {
	Number   string
	Webinar  models.Webinar
	UserID   uuid.UUID
	IssuedAt time.Time
}

// Renderer turns certificate data into a standalone HTML page. The body is
// written as Markdown and converted with goldmark; raw HTML in webinar data is
// never passed through.
type Renderer struct {
	md         goldmark.Markdown
	issuerName string
	location   *time.Location
}

// NewRenderer creates a renderer signing certificates as issuerName.
// Dates are printed in loc (UTC when nil).
func NewRenderer(issuerName string, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table),
			goldmark.WithRendererOptions(
				goldmarkHTML.WithHardWraps(),
			),
		),
		issuerName: issuerName,
		location:   loc,
	}
}

// Markdown returns the certificate body as Markdown.
func (r *Renderer) Markdown(in DocumentInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Certificate of Participation\n\n")
	fmt.Fprintf(&b, "This certifies that participant **%s** attended the webinar\n\n", in.UserID)
	fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(in.Webinar.Title))
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Held on | %s |\n", in.Webinar.StartsAt.In(r.location).Format("2 January 2006"))
	fmt.Fprintf(&b, "| Issued on | %s |\n", in.IssuedAt.In(r.location).Format("2 January 2006"))
	fmt.Fprintf(&b, "| Certificate no. | `%s` |\n\n", in.Number)
	if r.issuerName != "" {
		fmt.Fprintf(&b, "Issued by %s\n", escapeMarkdown(r.issuerName))
	}
	return b.String()
}

// Render produces the HTML certificate document.
func (r *Renderer) Render(in DocumentInput) (*Document, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(r.Markdown(in)), &body); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Certificate %s</title>
<style>
body{font-family:Georgia,serif;max-width:720px;margin:48px auto;padding:48px;border:6px double #1f3a5f;text-align:center}
table{margin:24px auto;border-collapse:collapse;text-align:left}
td{padding:4px 12px}
thead{display:none}
</style>
</head>
<body>
`, html.EscapeString(in.Number))
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	return &Document{Body: page.Bytes(), ContentType: "text/html; charset=utf-8"}, nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
	`#`, `\#`, `|`, `\|`, `&`, `&amp;`, `<`, `&lt;`, `>`, `&gt;`,
)

// escapeMarkdown makes s safe to print inline. Whitespace runs, newlines
// included, collapse to one space so s cannot start a new block.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(strings.Join(strings.Fields(s), " "))
}
