package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
	"github.com/vladimiradmaev/diabetes-tracker/internal/logger"
	"github.com/vladimiradmaev/diabetes-tracker/internal/services"
)

const shutdownTimeout = 10 * time.Second

// Config wraps the knobs that impact runtime behavior.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Services are the application services the HTTP surface exposes.
type Services struct {
	Estimator   *services.EstimatorService
	Glucose     *services.GlucoseService
	Insulin     *services.InsulinService
	Meals       *services.MealService
	Predictions *services.PredictionService
	Analysis    *services.AnalysisService
}

// Server exposes the Fiber application.
type Server struct {
	app    *fiber.App
	svc    Services
	cfg    Config
	errors *apperrors.Handler
}

// NewServer wires handlers and middleware.
func NewServer(cfg Config, svc Services, handler *apperrors.Handler) *Server {
	if handler == nil {
		handler = apperrors.NewHandler(nil)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          errorHandler(handler),
	})
	app.Use(requestid.New())
	app.Use(requestLogger())
	app.Use(recover.New())
	app.Use(cors.New())

	srv := &Server{app: app, svc: svc, cfg: cfg, errors: handler}
	srv.registerRoutes()
	return srv
}

// App returns the underlying Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts listening for HTTP traffic until the context is cancelled.
// It returns after in-flight requests have drained or the shutdown timeout
// passed.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("HTTP shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server listening", "addr", ln.Addr().String())
	if err := s.app.Listener(ln); err != nil {
		return err
	}
	<-stopped
	return nil
}

func (s *Server) registerRoutes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api")
	api.Get("/status", s.handleStatus)

	api.Post("/predict-insulin", s.handlePredictInsulin)
	api.Post("/predict-glucose", s.handlePredictGlucose)

	api.Get("/glucose", s.handleListGlucose)
	api.Post("/glucose", s.handleCreateGlucose)
	api.Put("/glucose/:id", s.handleUpdateGlucose)
	api.Delete("/glucose/:id", s.handleDeleteGlucose)

	api.Get("/insulin", s.handleListInsulin)
	api.Post("/insulin", s.handleCreateInsulin)

	api.Get("/meals", s.handleListMeals)
	api.Post("/meals", s.handleCreateMeal)

	api.Get("/predictions", s.handleListPredictions)
	api.Post("/predictions", s.handleCreatePrediction)

	analysis := api.Group("/analysis")
	analysis.Get("/carb-glucose", s.handleCarbGlucose)
	analysis.Get("/glucose-by-meal-state", s.handleGlucoseByMealState)
	analysis.Get("/daily-carb-intake", s.handleDailyCarbIntake)
}

// errorHandler is the last stop for errors no handler turned into a
// response, panics included. Clients only ever see a generic message.
func errorHandler(h *apperrors.Handler) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		h.Handle(c.UserContext(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
	}
}

// respond maps a service error onto the response contract: validation
// errors are 400, unknown ids 404, everything else 500.
func (s *Server) respond(c *fiber.Ctx, err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError(err)
	}

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		s.errors.Handle(c.UserContext(), appErr)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation error",
			"error":   appErr.Message,
		})
	case apperrors.ErrorTypeNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": appErr.Message})
	default:
		s.errors.Handle(c.UserContext(), appErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Server error",
			"error":   appErr.Detail(),
		})
	}
}
