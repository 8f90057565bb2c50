package routes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"tripsheet/itinerary"
	"tripsheet/ratelim"
	"tripsheet/utils"
)

func AddHealthRoutes(router *httprouter.Router) {
	router.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// AddItineraryRoutes registers the itinerary API. Static segments live under
// their own prefix because httprouter cannot mix them with :id at one level.
func AddItineraryRoutes(router *httprouter.Router, h *itinerary.Handlers, rl *ratelim.RateLimiter) {
	router.GET("/api/itineraries", h.List)
	router.POST("/api/itineraries", rl.Limit(h.Create))
	router.GET("/api/itineraries/all/:id", h.Get)
	router.PUT("/api/itineraries/:id", rl.Limit(h.Update))
	router.DELETE("/api/itineraries/:id", rl.Limit(h.Delete))
	router.POST("/api/itineraries/:id/copy", rl.Limit(h.Copy))
	router.POST("/api/itineraries/:id/delete-request", rl.Limit(h.RequestDelete))
	router.POST("/api/itineraries/:id/delete-decline", h.DeclineDelete)

	router.GET("/api/itineraries/pdf/:id", rl.Limit(h.PDF))
	router.GET("/api/itineraries/export.xlsx", rl.Limit(h.Export))
	router.POST("/api/preview/pdf", rl.Limit(h.Preview))
}
