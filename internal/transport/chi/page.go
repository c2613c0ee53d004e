package chi

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pixsearch/internal/usecase/gallery"
	sessionuc "github.com/kailas-cloud/pixsearch/internal/usecase/session"
)

//go:embed templates/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"anchor": gallery.Anchor,
}).Parse(indexHTML))

// pageView is the data bound to the index template.
type pageView struct {
	State   sessionuc.State
	Notices []sessionuc.Notice
}

// Busy drives the loader indicator.
func (v pageView) Busy() bool { return v.State.Busy() }

// ShowMore reports whether the "load more" control is rendered.
func (v pageView) ShowMore() bool {
	return !v.State.Busy() && v.State.Gallery.Affordance.Active()
}

// ShowEnd reports whether the terminal "no more results" indicator is rendered.
func (v pageView) ShowEnd() bool {
	return !v.State.Busy() && v.State.Gallery.Affordance.Kind == gallery.AffordanceEnd
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, v pageView) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, v); err != nil {
		s.logger.Error("render page", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = buf.WriteTo(w)
}
