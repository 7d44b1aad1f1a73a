package photo

import (
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog"

	"github.com/lewtec/camsave/internal/domain"
	"github.com/lewtec/camsave/internal/export"
	"github.com/lewtec/camsave/internal/orient"
	"github.com/lewtec/camsave/internal/session"
)

const (
	previewSize    = 480
	previewQuality = 80
	historyLimit   = 100
	maxUploadBytes = 64 << 20
)

// App is the single capture-and-save screen.
type App struct {
	Session *session.Session
	Config  *Config
	Logger  zerolog.Logger

	// MaxUploadBytes bounds a capture upload; zero means 64 MiB.
	MaxUploadBytes int64
}

type Flash struct {
	Level string
	Text  string
}

// flashLevels lists the messages a redirect may ask the screen to show.
var flashLevels = map[string]string{
	"Captured":         "success",
	"Saved":            "success",
	"SaveFailed":       "error",
	"NoCapture":        "error",
	"NotImage":         "error",
	"InvalidQuality":   "error",
	"PermissionDenied": "error",
	"MissingPhoto":     "error",
	"TooLarge":         "error",
}

func (a *App) GetHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.handleIndex)
	mux.HandleFunc("POST /capture", a.handleCapture)
	mux.HandleFunc("POST /save", a.handleSave)
	mux.HandleFunc("GET /preview", a.handlePreview)
	mux.HandleFunc("GET /picture", a.handlePicture)
	mux.HandleFunc("GET /history", a.handleHistory)
	mux.HandleFunc("GET /help", a.handleHelp)

	var handler http.Handler = mux
	handler = i18nMiddleware(a.Config.Server.Language, handler)
	handler = HTTPLogger(a.Logger, handler)
	return handler
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state, capture, err := a.Session.Current(ctx)
	if err != nil {
		a.serverError(w, err, "while loading session")
		return
	}
	last, err := a.Session.Exports.Latest(ctx)
	if err != nil {
		a.serverError(w, err, "while loading last export")
		return
	}
	localizer := GetLocalizerFromContext(ctx)
	q := a.requestQuality(r)

	err = RenderPageWithRequest(r, w, "index", map[string]any{
		"State":           state.String(),
		"Capture":         capture,
		"LastExport":      last,
		"Quality":         int(q),
		"MinQuality":      int(export.MinQuality),
		"MaxQuality":      int(export.MaxQuality),
		"QualityLabel":    Localize(localizer, "ImageQuality", map[string]any{"Quality": int(q)}),
		"QualityTemplate": Localize(localizer, "ImageQuality", map[string]any{"Quality": "%d"}),
		"Flash":           flashFromRequest(r, localizer),
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("while rendering index")
	}
}

func (a *App) handleCapture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload())
	perr := r.ParseMultipartForm(a.maxUpload())
	q := a.requestQuality(r)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(perr, &tooLarge):
		a.Logger.Warn().Int64("limit", tooLarge.Limit).Msg("capture upload too large")
		redirectWithFlash(w, r, "TooLarge", q)
		return
	case perr != nil:
		redirectWithFlash(w, r, "MissingPhoto", q)
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		redirectWithFlash(w, r, "MissingPhoto", q)
		return
	}
	defer file.Close()

	_, err = a.Session.Capture(r.Context(), file)
	switch {
	case err == nil:
		redirectWithFlash(w, r, "Captured", q)
	case errors.Is(err, session.ErrPermissionDenied):
		a.Logger.Warn().Err(err).Msg("capture refused")
		redirectWithFlash(w, r, "PermissionDenied", q)
	case errors.Is(err, session.ErrNotImage):
		redirectWithFlash(w, r, "NotImage", q)
	default:
		a.serverError(w, err, "while capturing")
	}
}

func (a *App) handleSave(w http.ResponseWriter, r *http.Request) {
	q, err := export.ParseQuality(r.FormValue("quality"))
	if err != nil {
		redirectWithFlash(w, r, "InvalidQuality", a.Config.Quality())
		return
	}

	rec, err := a.Session.Save(r.Context(), q)
	switch {
	case err == nil && rec.Succeeded:
		redirectWithFlash(w, r, "Saved", q)
	case err == nil:
		redirectWithFlash(w, r, "SaveFailed", q)
	case errors.Is(err, session.ErrNoCapture):
		redirectWithFlash(w, r, "NoCapture", q)
	case errors.Is(err, session.ErrPermissionDenied):
		a.Logger.Warn().Err(err).Msg("save refused")
		redirectWithFlash(w, r, "PermissionDenied", q)
	default:
		a.serverError(w, err, "while saving")
	}
}

// handlePreview serves a small upright rendition of the current capture.
func (a *App) handlePreview(w http.ResponseWriter, r *http.Request) {
	f, capture, err := a.Session.OpenCurrent(r.Context())
	switch {
	case errors.Is(err, session.ErrNoCapture), errors.Is(err, os.ErrNotExist):
		http.NotFound(w, r)
		return
	case errors.Is(err, session.ErrPermissionDenied):
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	case err != nil:
		a.serverError(w, err, "while opening capture")
		return
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		a.serverError(w, err, "while decoding capture")
		return
	}
	img = orient.Normalize(img, capture.TempPath)
	thumb := imaging.Fit(img, previewSize, previewSize, imaging.Lanczos)

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	if err := export.Encode(w, thumb, previewQuality); err != nil {
		a.Logger.Error().Err(err).Msg("while encoding preview")
	}
}

// handlePicture serves a saved picture, the latest one without ?id=.
func (a *App) handlePicture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		rec *domain.Export
		err error
	)
	if raw := r.URL.Query().Get("id"); raw != "" {
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		rec, err = a.Session.Exports.GetByID(ctx, id)
	} else {
		rec, err = a.Session.Exports.Latest(ctx)
	}
	if err != nil {
		a.serverError(w, err, "while loading export")
		return
	}
	if rec == nil || !rec.Succeeded {
		http.NotFound(w, r)
		return
	}

	f, err := a.Session.Exporter.FS.Open(rec.Path)
	if errors.Is(err, os.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		a.serverError(w, err, "while opening picture")
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeContent(w, r, path.Base(rec.Path), rec.ExportedAt, f)
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	exports, err := a.Session.Exports.List(r.Context(), historyLimit)
	if err != nil {
		a.serverError(w, err, "while listing exports")
		return
	}
	localizer := GetLocalizerFromContext(r.Context())
	err = RenderPageWithRequest(r, w, "history", map[string]any{
		"Title":   Localize(localizer, "History", nil),
		"Exports": exports,
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("while rendering history")
	}
}

func (a *App) handleHelp(w http.ResponseWriter, r *http.Request) {
	var markdownBuilder strings.Builder
	c := a.Config
	fmt.Fprintf(&markdownBuilder, "# [<](/) How saving works\n\n")
	fmt.Fprintf(&markdownBuilder, "1. **Take a photo.** It waits in `%s` until you save it.", c.Storage.TempDir)
	if c.Storage.KeepCaptures {
		fmt.Fprintf(&markdownBuilder, " Earlier photos are kept there too.\n")
	} else {
		fmt.Fprintf(&markdownBuilder, " Taking another photo discards the previous one.\n")
	}
	fmt.Fprintf(&markdownBuilder, "2. **Pick a quality** between %d and %d. Higher values give larger files.\n", export.MinQuality, export.MaxQuality)
	fmt.Fprintf(&markdownBuilder, "3. **Save.** The picture is turned upright and written to `%s`.\n\n", c.PicturesDir())
	fmt.Fprintf(&markdownBuilder, "## File names\n\n")
	fmt.Fprintf(&markdownBuilder, "Pictures are named `%s<year>_<month>_<day>_<hour>_<minute>_<second>.jpg`. ", c.Naming.Prefix)
	fmt.Fprintf(&markdownBuilder, "Two saves within the same second share a name and the second one replaces the first.\n\n")
	fmt.Fprintf(&markdownBuilder, "## Orientation\n\n")
	fmt.Fprintf(&markdownBuilder, "| Camera tag | Rotation applied |\n|---|---|\n")
	for _, o := range []orient.Orientation{orient.Normal, orient.Rotate90, orient.Rotate180, orient.Rotate270} {
		fmt.Fprintf(&markdownBuilder, "| %s | %d° |\n", o, o.Angle())
	}
	fmt.Fprintf(&markdownBuilder, "\nPhotos without a readable tag are saved as they are.\n")

	localizer := GetLocalizerFromContext(r.Context())
	err := RenderPageWithRequest(r, w, "help", map[string]any{
		"Title":   Localize(localizer, "Help", nil),
		"Content": markdownBuilder.String(),
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("while rendering help")
	}
}

func (a *App) maxUpload() int64 {
	if a.MaxUploadBytes > 0 {
		return a.MaxUploadBytes
	}
	return maxUploadBytes
}

// requestQuality returns the quality carried by the request, falling back to
// the configured default when missing or out of range.
func (a *App) requestQuality(r *http.Request) export.Quality {
	if q, err := export.ParseQuality(r.FormValue("quality")); err == nil {
		return q
	}
	return a.Config.Quality()
}

func (a *App) serverError(w http.ResponseWriter, err error, msg string) {
	a.Logger.Error().Err(err).Msg(msg)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, flash string, q export.Quality) {
	v := url.Values{}
	v.Set("flash", flash)
	v.Set("quality", strconv.Itoa(int(q)))
	http.Redirect(w, r, "/?"+v.Encode(), http.StatusSeeOther)
}

func flashFromRequest(r *http.Request, localizer *i18n.Localizer) *Flash {
	id := r.URL.Query().Get("flash")
	level, ok := flashLevels[id]
	if !ok {
		return nil
	}
	return &Flash{Level: level, Text: Localize(localizer, "Flash"+id, nil)}
}
