// Package docx fills Jinja-style placeholders inside Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

var ErrTemplateNotFound = errors.New("template not found")

// RenderError reports a template part that failed to parse or execute.
type RenderError struct {
	Template string
	Part     string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s (%s): %v", e.Template, e.Part, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

type Config struct {
	// Dir holds the .docx templates.
	Dir             string
	DefaultTemplate string
}

type Renderer struct {
	log             *logger.Logger
	templates       fs.FS
	defaultTemplate string
}

func NewRenderer(log *logger.Logger, cfg Config) *Renderer {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = "plantillas"
	}
	return NewRendererFS(log, os.DirFS(dir), cfg.DefaultTemplate)
}

func NewRendererFS(log *logger.Logger, templates fs.FS, defaultTemplate string) *Renderer {
	if strings.TrimSpace(defaultTemplate) == "" {
		defaultTemplate = "plantillafinal.docx"
	}
	return &Renderer{
		log:             log.With("service", "DocxRenderer"),
		templates:       templates,
		defaultTemplate: defaultTemplate,
	}
}

func (r *Renderer) DefaultTemplate() string { return r.defaultTemplate }

// Render loads the named template (default when empty) and fills it with data.
func (r *Renderer) Render(ctx context.Context, name string, data map[string]any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = r.defaultTemplate
	}
	if !fs.ValidPath(name) || path.Ext(name) != ".docx" {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	raw, err := fs.ReadFile(r.templates, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
		}
		return nil, fmt.Errorf("read template %q: %w", name, err)
	}
	out, err := RenderBytes(name, raw, data)
	if err != nil {
		return nil, err
	}
	r.log.Debug("Rendered template", "template", name, "bytes", len(out), "keys", len(data))
	return out, nil
}

// RenderBytes renders an in-memory docx template.
func RenderBytes(name string, tpl []byte, data map[string]any) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(tpl), int64(len(tpl)))
	if err != nil {
		return nil, fmt.Errorf("open template %q: %w", name, err)
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	pctx := pongo2.Context(data)

	for _, f := range zr.File {
		if !isTemplatedPart(f.Name) {
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("copy %s: %w", f.Name, err)
			}
			continue
		}
		src, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		tplPart, err := pongo2.FromString(PatchXML(src))
		if err != nil {
			return nil, &RenderError{Template: name, Part: f.Name, Err: err}
		}
		rendered, err := tplPart.ExecuteBytes(pctx)
		if err != nil {
			return nil, &RenderError{Template: name, Part: f.Name, Err: err}
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(rendered); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isTemplatedPart(name string) bool {
	if name == "word/document.xml" {
		return true
	}
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimPrefix(name, "word/")
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

func readEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
