package httpapi

import (
	"net/http"
	"time"

	"brandforge/internal/http/handlers"
	appmw "brandforge/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions carries the cross-cutting dependencies the route tree needs
// beyond the handler container itself.
type RouterOptions struct {
	DefaultLocale  string
	AllowedOrigins []string
	RateLimit      int
	CountryLookup  appmw.CountryLookup
	StaticDir      string
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		appmw.RequestID,
		appmw.Logger(app.Log),
		appmw.CORS(opts.AllowedOrigins),
		appmw.UserContext,
		appmw.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/jobs", func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(appmw.RateLimit(opts.RateLimit, time.Minute))
		}
		r.Post("/", app.CreateJob)
		r.Get("/", app.ListJobs)
		r.Route("/{job_id}", func(r chi.Router) {
			r.Get("/", app.GetJob)
			r.Delete("/", app.DeleteJob)
			r.Post("/cancel", app.CancelJob)
			r.Post("/retry", app.RetryJob)
			r.Get("/events", app.JobEvents)
			r.Get("/export", app.ExportJob)
			r.Get("/report", app.GetReport)
			r.Post("/report/feedback", app.SaveReportFeedback)
		})
	})

	r.Route("/v1/uploads", func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(appmw.RateLimit(opts.RateLimit, time.Minute))
		}
		r.Post("/", app.UploadImage)
	})

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
