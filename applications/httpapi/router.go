package httpapi

import "github.com/gin-gonic/gin"

// NewRouter builds the gin engine exposing the automation registration
// surface. tokens, when non-empty, requires a matching bearer token on every
// /automations and /functions request (/healthz stays open); an empty slice leaves the API open, matching the teacher's
// "no tokens configured => no auth" default for local runs.
func NewRouter(h *Handler, tokens []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(200) })

	group := r.Group("/automations")
	group.Use(bearerAuth(tokens))
	group.POST("", h.createAutomation)
	group.GET("", h.listAutomations)
	group.GET("/:id", h.getAutomation)
	group.PATCH("/:id", h.setAutomationActive)
	group.DELETE("/:id", h.deleteAutomation)

	functions := r.Group("/functions")
	functions.Use(bearerAuth(tokens))
	functions.POST("", h.createFunction)
	functions.GET("", h.listFunctions)
	functions.GET("/:id", h.getFunction)
	functions.DELETE("/:id", h.deleteFunction)

	return r
}
