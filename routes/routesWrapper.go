package routes

import (
	"github.com/julienschmidt/httprouter"

	"tripsheet/itinerary"
	"tripsheet/ratelim"
)

// RoutesWrapper registers every route on router.
func RoutesWrapper(router *httprouter.Router, h *itinerary.Handlers, rateLimiter *ratelim.RateLimiter) {
	AddHealthRoutes(router)
	AddItineraryRoutes(router, h, rateLimiter)
}
