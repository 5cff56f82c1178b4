package student

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"backend-skillpath/internal/action"
	"backend-skillpath/internal/apperr"
	"backend-skillpath/internal/attendance"
	"backend-skillpath/internal/auth"
	"backend-skillpath/internal/participation"
	"backend-skillpath/internal/quiz"
	"backend-skillpath/internal/records"
)

// RegisterRoutes mounts the student routes. Every route requires a token for
// the student in the path, or an advisor token for reads.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	owner := auth.RequireStudent("studentId")

	r.Get("/:studentId/activities", authMiddleware, owner, func(c *fiber.Ctx) error {
		tab, ok := participation.ParseTab(c.Query("tab"))
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "tab must be upcoming, inprogress or done")
		}
		rows, err := svc.Activities(requestContext(c), c.Params("studentId"), tab)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{
			"student_id": c.Params("studentId"),
			"tab":        tab,
			"activities": rows,
		})
	})

	r.Post("/:studentId/activities/:activityId/actions", authMiddleware, owner, func(c *fiber.Ctx) error {
		var body struct {
			Kind string `json:"kind"`
		}
		if len(c.Body()) > 0 {
			if err := json.Unmarshal(c.Body(), &body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		var requested action.Kind
		if body.Kind != "" {
			kind, ok := action.ParseKind(body.Kind)
			if !ok {
				return fiber.NewError(fiber.StatusBadRequest, "unknown action kind")
			}
			requested = kind
		}
		return act(c, svc, requested)
	})

	r.Post("/:studentId/activities/:activityId/confirm", authMiddleware, owner, func(c *fiber.Ctx) error {
		return act(c, svc, action.Confirm)
	})

	r.Post("/:studentId/activities/:activityId/survey", authMiddleware, owner, func(c *fiber.Ctx) error {
		return act(c, svc, action.Survey)
	})

	r.Get("/:studentId/activities/:activityId/certificate", authMiddleware, owner, func(c *fiber.Ctx) error {
		claims := auth.ClaimsFrom(c)
		if claims == nil || claims.StudentID != c.Params("studentId") {
			return fiber.NewError(fiber.StatusForbidden, "only the student can claim a certificate")
		}
		return act(c, svc, action.Certificate)
	})

	r.Get("/:studentId/skills", authMiddleware, owner, func(c *fiber.Ctx) error {
		studentID := c.Params("studentId")
		report, err := svc.Skills(requestContext(c), studentID, svc.YearLevel(sessionYear(c, studentID), studentID))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(report)
	})

	r.Post("/:studentId/skills/:skillId/quiz", authMiddleware, owner, func(c *fiber.Ctx) error {
		var body struct {
			Answers map[string]string `json:"answers"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		studentID := c.Params("studentId")
		result, err := svc.SubmitQuiz(requestContext(c), studentID, c.Params("skillId"),
			svc.YearLevel(sessionYear(c, studentID), studentID), body.Answers)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})
}

func act(c *fiber.Ctx, svc *Service, kind action.Kind) error {
	out, err := svc.Act(requestContext(c), c.Params("studentId"), c.Params("activityId"), kind, c.Body())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(out)
}

// requestContext carries the caller's token to the system of record.
func requestContext(c *fiber.Ctx) context.Context {
	return records.WithToken(c.UserContext(), auth.TokenFrom(c))
}

// sessionYear is the year level from the caller's own session. Advisors
// reading another student's page fall back to the student id.
func sessionYear(c *fiber.Ctx, studentID string) int {
	claims := auth.ClaimsFrom(c)
	if claims == nil || claims.StudentID != studentID {
		return 0
	}
	return claims.YearLevel
}

// httpError pins the status and code for err. The typed cause stays wrapped so
// the error handler can render its details.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrActivityNotFound), errors.Is(err, ErrSkillNotFound):
		return apperr.WithStatus(err, fiber.StatusNotFound, "not_found")
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, attendance.ErrInvalidQRCode):
		return apperr.WithStatus(err, fiber.StatusBadRequest, "invalid_input")
	case errors.Is(err, attendance.ErrLocationUnavailable):
		return apperr.WithStatus(err, fiber.StatusBadRequest, "location_unavailable")
	case errors.Is(err, attendance.ErrConfirmationInFlight):
		return apperr.WithStatus(err, fiber.StatusConflict, "in_flight")
	case errors.Is(err, action.ErrActionDisabled):
		return apperr.WithStatus(err, fiber.StatusConflict, "action_disabled")
	case errors.Is(err, action.ErrActionMismatch):
		return apperr.WithStatus(err, fiber.StatusConflict, "action_mismatch")
	case errors.Is(err, quiz.ErrQuizLocked):
		return apperr.WithStatus(err, fiber.StatusForbidden, "quiz_locked")
	case errors.Is(err, quiz.ErrEmptyAnswerKey):
		return apperr.WithStatus(err, fiber.StatusUnprocessableEntity, "no_answer_key")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperr.WithStatus(err, fiber.StatusRequestTimeout, "timeout")
	}
	return apperr.WithStatus(err, apperr.HTTPStatus(err), "")
}
