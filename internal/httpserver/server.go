package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/NK11EIandCo/Interview/internal/bridge"
	"github.com/NK11EIandCo/Interview/internal/config"
)

// New creates a configured Echo server with the session websocket route.
func New(cfg config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	h := bridge.NewHandler(bridge.Config{
		APIKey:           cfg.OpenAIKey,
		Model:            cfg.RealtimeModel,
		InterviewerVoice: cfg.InterviewerVoice,
		CandidateVoice:   cfg.CandidateVoice,
	})
	e.GET("/ws", func(c echo.Context) error {
		h.Serve(c.Response(), c.Request())
		return nil
	})

	return e
}
