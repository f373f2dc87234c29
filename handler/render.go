package handler

import (
	"errors"
	stdhtml "html"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"

	"unhidden/domain"
)

type TemplateRegistry struct {
	templates map[string]*template.Template
}

func (t *TemplateRegistry) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.templates[name]
	if !ok {
		return errors.New("template not found: " + name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// NewTemplateRegistry parses every page together with its layout.
func NewTemplateRegistry(fsys fs.FS) (*TemplateRegistry, error) {
	layouts := map[string][]string{
		"base.html": {
			"index.html",
			"post-view.html",
			"search.html",
			"about.html",
			"contact.html",
		},
		"admin.html": {
			"admin-login.html",
			"dashboard.html",
			"post-add.html",
			"post-edit.html",
		},
	}

	t := &TemplateRegistry{templates: map[string]*template.Template{}}
	for layout, pages := range layouts {
		for _, page := range pages {
			tmpl, err := template.ParseFS(fsys, page, layout)
			if err != nil {
				return nil, err
			}
			t.templates[page] = tmpl
		}
	}
	return t, nil
}

var (
	sanitizerStrict = bluemonday.StrictPolicy()
	sanitizerUGC    = bluemonday.UGCPolicy()
)

type PostDTO struct {
	ID        string
	Title     string
	RawTitle  string
	Body      string
	Content   template.HTML
	CreatedAt string
	UpdatedAt string
}

func newPostDTO(p domain.Post) PostDTO {
	return PostDTO{
		ID:        p.ID,
		Title:     stdhtml.UnescapeString(sanitizerStrict.Sanitize(p.Title)),
		RawTitle:  p.Title,
		Body:      p.Body,
		Content:   safeMd(p.Body),
		CreatedAt: p.CreatedAt.Format(time.DateOnly),
		UpdatedAt: p.UpdatedAt.Format(time.DateOnly),
	}
}

func newPostDTOs(posts []domain.Post) []PostDTO {
	dtos := make([]PostDTO, 0, len(posts))
	for _, p := range posts {
		dtos = append(dtos, newPostDTO(p))
	}
	return dtos
}

func mdToHTML(md string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})

	return markdown.Render(doc, renderer)
}

// safeMd renders markdown (or raw HTML) and strips anything unsafe.
func safeMd(content string) template.HTML {
	return template.HTML(sanitizerUGC.SanitizeBytes(mdToHTML(content)))
}
