package photo

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/abiosoft/mold"
)

// TemplateManager renders pages inside the shared layout using mold.
type TemplateManager struct {
	engine mold.Engine
}

// NewTemplateManagerWithFuncMap parses every template under root in fsys.
// Pages are rendered inside layouts/base.layout.html; mold only accepts
// layout files whose name ends in "layout".
func NewTemplateManagerWithFuncMap(fsys fs.FS, root string, funcMap template.FuncMap) (*TemplateManager, error) {
	sub, err := fs.Sub(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("while opening templates: %w", err)
	}
	engine, err := mold.New(sub,
		mold.WithLayout("layouts/base.layout.html"),
		mold.WithFuncMap(funcMap),
	)
	if err != nil {
		return nil, fmt.Errorf("while parsing templates: %w", err)
	}
	return &TemplateManager{engine: engine}, nil
}

// Render renders pages/<name>.html.
func (tm *TemplateManager) Render(w io.Writer, name string, data any) error {
	return tm.engine.Render(w, "pages/"+name+".html", data)
}
