package manager

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Api serves the manager's cycle reports.
type Api struct {
	Address string
	Port    int
	Manager *Manager
	// Keep is the default number of reports listed.
	Keep   int
	Router *chi.Mux
}

func (a *Api) initRouter() {
	a.Router = chi.NewRouter()
	a.Router.Use(middleware.Recoverer)
	a.Router.Route("/reports", func(r chi.Router) {
		r.Get("/", a.GetReportsHandler)
		r.Get("/latest", a.GetLatestReportHandler)
	})
}

func (a *Api) Handler() http.Handler {
	if a.Router == nil {
		a.initRouter()
	}
	return a.Router
}

func (a *Api) Start() error {
	addr := fmt.Sprintf("%s:%d", a.Address, a.Port)
	log.Printf("[manager.Api] [Start] Listening on http://%s\n", addr)
	return http.ListenAndServe(addr, a.Handler())
}
