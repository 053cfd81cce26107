package ledgerhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the ledger API endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(60, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Route("/journals", func(jr chi.Router) {
		jr.Get("/", h.listJournals)
		jr.Get("/{id}", h.getJournal)
		jr.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.Post("/", h.createJournal)
			gr.Patch("/{id}", h.updateJournal)
			gr.Delete("/{id}", h.deleteJournal)
			gr.Post("/{id}/submit", h.submitJournal)
			gr.Post("/{id}/approve", h.approveJournal)
			gr.Post("/{id}/post", h.postJournal)
			gr.Post("/{id}/void", h.voidJournal)
			gr.Post("/{id}/reverse", h.reverseJournal)
		})
	})
	r.With(limiter).Post("/events", h.createFromEvent)
	r.Get("/accounts", h.listAccounts)
	r.Get("/accounts/{id}/ledger", h.accountLedger)
	r.Get("/periods", h.listPeriods)
	r.With(limiter).Post("/reconcile", h.runReconcile)
}
