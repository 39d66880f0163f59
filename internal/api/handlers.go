package api

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/vladimiradmaev/diabetes-tracker/internal/errors"
	"github.com/vladimiradmaev/diabetes-tracker/internal/estimator"
)

func (s *Server) handleStatus(c *fiber.Ctx) error {
	counts, err := s.svc.Analysis.Counts(c.UserContext())
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Diabetes tracker API is running",
		"method":  s.svc.Estimator.Method(),
		"stats":   counts,
	})
}

// predictionError is the response for bodies the estimators cannot even
// read. Any parseable body produces a 200.
func (s *Server) predictionError(c *fiber.Ctx, err error) error {
	s.errors.Handle(c.UserContext(), apperrors.New(apperrors.ErrorTypeValidation, "PREDICTION_BODY", err.Error()))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Prediction error",
		"message": err.Error(),
	})
}

func (s *Server) handlePredictInsulin(c *fiber.Ctx) error {
	f, err := decodeFields(c)
	if err != nil {
		return s.predictionError(c, err)
	}
	req := estimator.NormalizeInsulinRequest(f)
	return c.JSON(s.svc.Estimator.EstimateInsulinDose(c.UserContext(), f.StringOr("", "userId"), req))
}

func (s *Server) handlePredictGlucose(c *fiber.Ctx) error {
	f, err := decodeFields(c)
	if err != nil {
		return s.predictionError(c, err)
	}
	req := estimator.NormalizeGlucoseRequest(f)
	return c.JSON(s.svc.Estimator.EstimateGlucose(c.UserContext(), f.StringOr("", "userId"), req))
}

// badBody answers record endpoints whose body is not a JSON object.
func (s *Server) badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation error",
		"error":   err.Error(),
	})
}

func (s *Server) handleListGlucose(c *fiber.Ctx) error {
	readings, err := s.svc.Glucose.List(c.UserContext(), c.Query("userId"), queryDays(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(readings)
}

func (s *Server) handleCreateGlucose(c *fiber.Ctx) error {
	f, err := decodeFields(c)
	if err != nil {
		return s.badBody(c, err)
	}
	reading, err := s.svc.Glucose.Create(c.UserContext(), f)
	if err != nil {
		return s.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reading)
}

func (s *Server) handleUpdateGlucose(c *fiber.Ctx) error {
	f, err := decodeFields(c)
	if err != nil {
		return s.badBody(c, err)
	}
	reading, err := s.svc.Glucose.Update(c.UserContext(), c.Params("id"), f)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(reading)
}

func (s *Server) handleDeleteGlucose(c *fiber.Ctx) error {
	if err := s.svc.Glucose.Delete(c.UserContext(), c.Params("id")); err != nil {
		return s.respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reading removed"})
}

func (s *Server) handleListInsulin(c *fiber.Ctx) error {
	doses, err := s.svc.Insulin.List(c.UserContext(), c.Query("userId"), queryDays(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(doses)
}

func (s *Server) handleCreateInsulin(c *fiber.Ctx) error {
	f, err := decodeFields(c)
	if err != nil {
		return s.badBody(c, err)
	}
	dose, err := s.svc.Insulin.Create(c.UserContext(), f)
	if err != nil {
		return s.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dose)
}

func (s *Server) handleListMeals(c *fiber.Ctx) error {
	meals, err := s.svc.Meals.List(c.UserContext(), c.Query("userId"), queryDays(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(meals)
}

func (s *Server) handleCreateMeal(c *fiber.Ctx) error {
	f, err := decodeFields(c)
	if err != nil {
		return s.badBody(c, err)
	}
	meal, err := s.svc.Meals.Create(c.UserContext(), f)
	if err != nil {
		return s.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(meal)
}

func (s *Server) handleListPredictions(c *fiber.Ctx) error {
	preds, err := s.svc.Predictions.List(c.UserContext(), c.Query("userId"))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(preds)
}

func (s *Server) handleCreatePrediction(c *fiber.Ctx) error {
	f, err := decodeFields(c)
	if err != nil {
		return s.badBody(c, err)
	}
	pred, err := s.svc.Predictions.Create(c.UserContext(), f)
	if err != nil {
		return s.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(pred)
}

func (s *Server) handleCarbGlucose(c *fiber.Ctx) error {
	res, err := s.svc.Analysis.CarbGlucose(c.UserContext(), c.Query("userId"), queryDays(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(res)
}

func (s *Server) handleGlucoseByMealState(c *fiber.Ctx) error {
	res, err := s.svc.Analysis.GlucoseByMealState(c.UserContext(), c.Query("userId"), queryDays(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(res)
}

func (s *Server) handleDailyCarbIntake(c *fiber.Ctx) error {
	res, err := s.svc.Analysis.DailyCarbIntake(c.UserContext(), c.Query("userId"), queryDays(c))
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(res)
}
