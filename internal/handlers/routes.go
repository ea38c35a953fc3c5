package handlers

import (
	"github.com/labstack/echo/v4"

	"tripmate/internal/services"
)

// RegisterRoutes mounts the JSON API. requireAuth guards everything except
// the session endpoints.
func RegisterRoutes(e *echo.Echo, trips *services.TripService, issuer SessionIssuer, secureCookie bool, requireAuth echo.MiddlewareFunc) {
	authHandler := NewAuthHandler(issuer, trips.Profiles(), secureCookie)
	tripHandler := NewTripHandler(trips)
	expenseHandler := NewExpenseHandler(trips)
	itineraryHandler := NewItineraryHandler(trips)
	profileHandler := NewProfileHandler(trips.Profiles())

	// Public routes
	e.POST("/auth/session", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)

	// Protected routes
	protected := e.Group("")
	protected.Use(requireAuth)

	protected.GET("/me", profileHandler.Me)
	protected.PUT("/me", profileHandler.UpdateMe)
	protected.GET("/users", profileHandler.SearchUser)

	// Trip routes
	protected.GET("/trips", tripHandler.ListTrips)
	protected.POST("/trips", tripHandler.CreateTrip)
	protected.GET("/trips/:id", tripHandler.GetTrip)
	protected.PATCH("/trips/:id", tripHandler.UpdateTrip)
	protected.DELETE("/trips/:id", tripHandler.DeleteTrip)
	protected.POST("/trips/:id/join", tripHandler.JoinTrip)
	protected.POST("/trips/:id/members", tripHandler.AddMember)
	protected.DELETE("/trips/:id/members/:uid", tripHandler.RemoveMember)

	// Expense routes
	protected.GET("/trips/:id/expenses", expenseHandler.ListExpenses)
	protected.POST("/trips/:id/expenses", expenseHandler.CreateExpense)
	protected.PUT("/trips/:id/expenses/:eid", expenseHandler.UpdateExpense)
	protected.DELETE("/trips/:id/expenses/:eid", expenseHandler.DeleteExpense)
	protected.POST("/trips/:id/expenses/:eid/settle", expenseHandler.ToggleSettlement)
	protected.GET("/trips/:id/settlement", expenseHandler.Settlement)
	protected.GET("/trips/:id/settlement.xlsx", expenseHandler.ExportSettlement)

	// Itinerary routes
	protected.GET("/trips/:id/itinerary", itineraryHandler.GetItinerary)
	protected.POST("/trips/:id/itinerary", itineraryHandler.CreateItem)
	protected.PUT("/trips/:id/itinerary/:iid", itineraryHandler.UpdateItem)
	protected.DELETE("/trips/:id/itinerary/:iid", itineraryHandler.DeleteItem)
	protected.GET("/trips/:id/days", itineraryHandler.Days)
	protected.POST("/trips/:id/groups", itineraryHandler.AddGroup)
	protected.PUT("/trips/:id/groups/:name", itineraryHandler.RenameGroup)
	protected.DELETE("/trips/:id/groups/:name", itineraryHandler.DeleteGroup)
}
