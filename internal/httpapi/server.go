package httpapi

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goitinerary/internal/app"
)

// Service is the pipeline behind the HTTP surface.
type Service interface {
	Generate(ctx context.Context, req app.Request) (app.Response, error)
	Search(ctx context.Context, req app.SearchRequest) (app.SearchResponse, error)
	Scrape(ctx context.Context, req app.ScrapeRequest) (app.ScrapeResponse, error)
}

// Server exposes the itinerary pipeline over HTTP.
type Server struct {
	svc   Service
	fiber *fiber.App
}

// New builds the fiber application with the standard middleware chain.
func New(svc Service) *Server {
	f := fiber.New(fiber.Config{
		AppName:               "goitinerary",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	f.Use(recover.New())
	f.Use(requestid.New(requestid.Config{
		Generator: func() string { return uuid.NewString() },
	}))
	f.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
	}))
	f.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	s := &Server{svc: svc, fiber: f}
	f.Post("/api/itinerary", s.handleItinerary)
	f.Post("/api/search", s.handleSearch)
	f.Post("/api/scrape", s.handleScrape)
	f.Get("/healthz", s.handleHealth)
	return s
}

// Listen blocks serving HTTP on addr.
func (s *Server) Listen(addr string) error { return s.fiber.Listen(addr) }

// Shutdown drains in-flight requests.
func (s *Server) Shutdown() error { return s.fiber.Shutdown() }

// App exposes the underlying fiber application for tests.
func (s *Server) App() *fiber.App { return s.fiber }

func (s *Server) handleItinerary(c *fiber.Ctx) error {
	var req app.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Datos incompletos",
			"message": "El cuerpo de la solicitud no es válido",
		})
	}

	resp, err := s.svc.Generate(c.UserContext(), req)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(resp)
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	var req app.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "El cuerpo de la solicitud no es válido",
		})
	}

	resp, err := s.svc.Search(c.UserContext(), req)
	if err != nil {
		var rle *app.RateLimitedError
		switch {
		case errors.Is(err, app.ErrMissingQuery):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "La consulta de búsqueda es requerida",
			})
		case errors.Is(err, app.ErrInvalidSearchType):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Tipo de búsqueda no válido. Use: general",
			})
		case errors.As(err, &rle):
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":      "Too Many Requests",
				"message":    "Has excedido el límite de búsquedas. Por favor, intenta de nuevo más tarde.",
				"retryAfter": rle.ResetTime,
			})
		default:
			log.Error().Err(err).Msg("standalone search failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Error en la búsqueda",
				"message": err.Error(),
			})
		}
	}
	return c.JSON(resp)
}

func (s *Server) handleScrape(c *fiber.Ctx) error {
	var req app.ScrapeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "El cuerpo de la solicitud no es válido",
		})
	}

	resp, err := s.svc.Scrape(c.UserContext(), req)
	if err != nil {
		var rle *app.RateLimitedError
		switch {
		case errors.Is(err, app.ErrNoValidURLs):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No se proporcionaron URLs válidas",
			})
		case errors.As(err, &rle):
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":      "Too Many Requests",
				"message":    "Has excedido el límite de scraping. Por favor, intenta de nuevo más tarde.",
				"retryAfter": rle.ResetTime,
			})
		default:
			log.Error().Err(err).Msg("standalone scrape failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Error en el scraping",
				"message": err.Error(),
			})
		}
	}
	return c.JSON(resp)
}

func (s *Server) writeError(c *fiber.Ctx, err error) error {
	var rle *app.RateLimitedError
	switch {
	case errors.Is(err, app.ErrInvalidRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Datos incompletos",
			"message": "Faltan datos requeridos para generar el itinerario",
		})
	case errors.As(err, &rle):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":      "Too Many Requests",
			"message":    "Has excedido el límite de generación de itinerarios. Por favor, intenta de nuevo más tarde.",
			"retryAfter": rle.ResetTime,
		})
	case isTimeout(err):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error":      "Tiempo de espera agotado",
			"details":    "La solicitud está tardando más de lo esperado. Por favor, intenta de nuevo más tarde o reduce la cantidad de información a procesar.",
			"suggestion": "Intenta con un destino más específico o menos días de viaje.",
		})
	default:
		log.Error().Err(err).Msg("itinerary generation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Error al generar el itinerario",
			"details": err.Error(),
		})
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "504")
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
