package pagegen

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Page.Title}}</title>
<link rel="canonical" href="{{.Page.URLPath}}">
<link rel="stylesheet" href="/static/site.css">
</head>
<body>
<main class="business" data-slug="{{.Page.Slug}}"{{if .Page.LocationSlug}} data-location="{{.Page.LocationSlug}}"{{end}}>
<img class="featured" src="{{.Page.FeaturedImage}}" alt="{{.Page.Name}}">
<h1>{{.Page.Title}}</h1>
{{if .Page.Category}}<p class="category">{{.Page.Category}}</p>{{end}}
<p class="rating">{{printf "%.1f" .Page.Rating}} ({{.Page.ReviewCount}} reviews)</p>
<section class="description">{{.Description}}</section>
<address>
{{.Page.Address}}<br>
{{.Page.City}}, {{.Page.State}} {{.Page.ZipCode}}<br>
<a href="tel:{{.Page.Phone}}">{{.Page.Phone}}</a>
{{if .Page.Website}}<br><a href="{{.Page.Website}}" rel="nofollow">{{.Page.Website}}</a>{{end}}
{{if .Page.Email}}<br><a href="mailto:{{.Page.Email}}">{{.Page.Email}}</a>{{end}}
</address>
{{if .Page.Amenities}}<ul class="amenities">{{range .Page.Amenities}}<li>{{.}}</li>{{end}}</ul>{{end}}
<table class="hours">
{{range .Hours}}{{if .Value}}<tr><th>{{.Day}}</th><td>{{.Value}}</td></tr>{{end}}
{{end}}</table>
{{if .Locations}}<nav class="locations"><h2>Locations</h2><ul>{{range .Locations}}<li><a href="{{.URLPath}}">{{.LocationSlug}}</a></li>{{end}}</ul></nav>{{end}}
<section id="reviews" data-business="{{.Page.Slug}}"></section>
</main>
</body>
</html>
`

type dayHours struct {
	Day   string
	Value string
}

// Renderer turns a Page into a standalone HTML document.
type Renderer struct {
	tmpl      *template.Template
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewRenderer parses the page template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	return &Renderer{
		tmpl:      tmpl,
		markdown:  goldmark.New(),
		sanitizer: bluemonday.UGCPolicy(),
	}, nil
}

// Render renders p. Descriptions are Markdown; the resulting HTML is sanitized
// before it reaches the template.
func (r *Renderer) Render(p *Page, locations []Ref) ([]byte, error) {
	var md bytes.Buffer
	if err := r.markdown.Convert([]byte(p.Description), &md); err != nil {
		return nil, fmt.Errorf("failed to convert description: %w", err)
	}

	h := p.Hours
	view := map[string]interface{}{
		"Page":        p,
		"Description": template.HTML(r.sanitizer.SanitizeBytes(md.Bytes())),
		"Hours": []dayHours{
			{"Monday", h.Monday}, {"Tuesday", h.Tuesday}, {"Wednesday", h.Wednesday},
			{"Thursday", h.Thursday}, {"Friday", h.Friday}, {"Saturday", h.Saturday}, {"Sunday", h.Sunday},
		},
		"Locations": locations,
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}
