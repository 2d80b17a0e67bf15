package bridge

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Api exposes a Runtime over HTTP.
type Api struct {
	Address string
	Port    int
	Runtime Runtime
	Router  *chi.Mux
}

func (a *Api) initRouter() {
	a.Router = chi.NewRouter()
	a.Router.Use(middleware.Recoverer)
	a.Router.Route("/hosts/{host}", func(r chi.Router) {
		r.Get("/", a.GetServerHandler)
		r.Get("/neighbors", a.GetNeighborsHandler)
		r.Get("/growth", a.GetGrowthHandler)
		r.Delete("/jobs", a.KillAllHandler)
	})
	a.Router.Get("/player", a.GetPlayerHandler)
	a.Router.Get("/cost", a.GetCostHandler)
	a.Router.Post("/jobs", a.SpawnHandler)
	a.Router.Get("/stats", a.GetStatsHandler)
}

// Handler returns the routed API without listening, for tests and
// embedding.
func (a *Api) Handler() http.Handler {
	if a.Router == nil {
		a.initRouter()
	}
	return a.Router
}

func (a *Api) Start() error {
	addr := fmt.Sprintf("%s:%d", a.Address, a.Port)
	log.Printf("[bridge.Api] [Start] Listening on http://%s\n", addr)
	return http.ListenAndServe(addr, a.Handler())
}
