package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/service"
)

// NoticePageHandler serves a notice as an HTML page, rendering its
// content as markdown.
type NoticePageHandler struct {
	collections service.CollectionService
	parser      goldmark.Markdown
	template    *template.Template
}

// noticePageData holds template data for rendered notice pages.
type noticePageData struct {
	Title   string
	Active  bool
	Content template.HTML
}

// NewNoticePageHandler creates a NoticePageHandler.
func NewNoticePageHandler(collections service.CollectionService) *NoticePageHandler {
	tmpl := template.Must(template.New("notice").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}} - HSE Notice</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 800px;
      line-height: 1.6;
      color: #1f2933;
    }
    header {
      border-bottom: 4px solid #f5b301;
      margin-bottom: 1.5rem;
    }
    .status {
      color: #52606d;
      font-size: 0.9rem;
    }
    .inactive {
      color: #b44d12;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    {{if .Active}}<p class="status">Active notice</p>{{else}}<p class="status inactive">Archived notice</p>{{end}}
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

	return &NoticePageHandler{
		collections: collections,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

// ServeHTTP renders the notice with the {id} URL parameter.
func (h *NoticePageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	notice, err := h.collections.Get(ctx, service.Notices, idParam(r))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(w, "notice not found", http.StatusNotFound)
			return
		}
		logger.ErrorContext(ctx, "failed to load notice", "error", err)
		http.Error(w, "failed to load notice", http.StatusInternalServerError)
		return
	}

	htmlContent, err := h.renderMarkdown([]byte(notice.String("content")))
	if err != nil {
		logger.ErrorContext(ctx, "failed to render notice", "id", notice["id"], "error", err)
		http.Error(w, "failed to render notice", http.StatusInternalServerError)
		return
	}

	title := notice.String("title")
	if title == "" {
		title = "Notice"
	}
	active, _ := notice["active"].(bool)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, noticePageData{
		Title:   title,
		Active:  active,
		Content: template.HTML(htmlContent),
	}); err != nil {
		logger.ErrorContext(ctx, "failed to execute notice template", "id", notice["id"], "error", err)
	}
}

func (h *NoticePageHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
