package photo

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/russross/blackfriday/v2"
)

var (
	//go:embed templates
	templateFS embed.FS

	//go:embed assets/style.css
	cssContent string

	templateManager *TemplateManager

	TemplateFuncMap = template.FuncMap{
		"bytes": func(n int64) string { return humanize.Bytes(uint64(n)) },
		"markdown": func(text string) template.HTML {
			return template.HTML(blackfriday.Run([]byte(text)))
		},
	}
)

func init() {
	var err error
	templateManager, err = NewTemplateManagerWithFuncMap(templateFS, "templates", TemplateFuncMap)
	if err != nil {
		panic(err)
	}
}

// RenderPageWithContext renders a page translated with the localizer carried
// by ctx. Templates translate with {{call .T "MessageID"}}.
func RenderPageWithContext(ctx context.Context, w io.Writer, pageName string, data map[string]any) error {
	if data == nil {
		data = make(map[string]any)
	}
	localizer := GetLocalizerFromContext(ctx)
	data["CSS"] = template.CSS(cssContent)
	data["T"] = func(messageID string) string {
		return Localize(localizer, messageID, nil)
	}
	if _, ok := data["Title"]; !ok {
		data["Title"] = LocalizeWithContext(ctx, "AppTitle", nil)
	}
	return templateManager.Render(w, pageName, data)
}

func RenderPageWithRequest(r *http.Request, w io.Writer, pageName string, data map[string]any) error {
	return RenderPageWithContext(r.Context(), w, pageName, data)
}
