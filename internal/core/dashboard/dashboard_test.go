package dashboard

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gowvp/lookout/internal/conf"
)

func writeTemplate(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRender(t *testing.T) {
	dir := writeTemplate(t, `<title>{{.Title}}</title><script>fetch("{{.DetectionsURL}}");setInterval(load, {{.RefreshMillis}});</script>`)
	r := NewRenderer(&conf.Dashboard{TemplateDir: dir, Template: "index.html"})
	if r.Err() != nil {
		t.Fatal(r.Err())
	}

	var sb strings.Builder
	err := r.Render(&sb, PageData{Title: "Gate <1>", DetectionsURL: "/detections", RefreshInterval: 2 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	if !strings.Contains(out, "<title>Gate &lt;1&gt;</title>") {
		t.Fatalf("title not escaped: %s", out)
	}
	if !strings.Contains(out, "2000") || !strings.Contains(out, `\/detections`) {
		t.Fatalf("page = %s", out)
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	r := NewRenderer(&conf.Dashboard{TemplateDir: t.TempDir()})
	if !errors.Is(r.Err(), ErrTemplate) {
		t.Fatalf("err = %v", r.Err())
	}
	var sb strings.Builder
	if err := r.Render(&sb, PageData{}); !errors.Is(err, ErrTemplate) {
		t.Fatalf("err = %v", err)
	}
	if sb.Len() != 0 {
		t.Fatal("partial page written")
	}
}

func TestRenderMalformedTemplate(t *testing.T) {
	dir := writeTemplate(t, `<h1>{{.Title</h1>`)
	r := NewRenderer(&conf.Dashboard{TemplateDir: dir, Template: "index.html"})
	if !errors.Is(r.Err(), ErrTemplate) {
		t.Fatalf("err = %v", r.Err())
	}
}

func TestRenderExecuteFailureWritesNothing(t *testing.T) {
	dir := writeTemplate(t, `<h1>{{.Title}}</h1>{{.Missing}}`)
	r := NewRendererFromFile(filepath.Join(dir, "index.html"))
	if r.Err() != nil {
		t.Fatal(r.Err())
	}
	var sb strings.Builder
	if err := r.Render(&sb, PageData{Title: "x"}); !errors.Is(err, ErrTemplate) {
		t.Fatalf("err = %v", err)
	}
	if sb.Len() != 0 {
		t.Fatalf("partial page written: %q", sb.String())
	}
}
