package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-coach/internal/history"
	"github.com/teslashibe/go-coach/pkg/coach"
	"github.com/teslashibe/go-coach/pkg/drill"
	"github.com/teslashibe/go-coach/pkg/feedback"
)

func errorJSON(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

var errNoSession = errors.New("no session attached")

// requireSession guards handlers that need a session.
func (s *Server) requireSession(c *fiber.Ctx) bool {
	if s.session == nil {
		_ = errorJSON(c, fiber.StatusServiceUnavailable, errNoSession)
		return false
	}
	return true
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	if !s.requireSession(c) {
		return nil
	}
	return c.JSON(s.session.Status())
}

func (s *Server) handleListDrills(c *fiber.Ctx) error {
	if !s.requireSession(c) {
		return nil
	}
	active := ""
	if d := s.session.ActiveDrill(); d != nil {
		active = d.ID
	}
	return c.JSON(fiber.Map{
		"drills": s.session.Catalog().Infos(),
		"active": active,
	})
}

func (s *Server) handleSelectDrill(c *fiber.Ctx) error {
	if !s.requireSession(c) {
		return nil
	}
	d, err := s.session.SelectDrill(c.Params("id"))
	if errors.Is(err, drill.ErrUnknownDrill) {
		return errorJSON(c, fiber.StatusNotFound, err)
	}
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(d.Info())
}

func (s *Server) handleDeselectDrill(c *fiber.Ctx) error {
	if !s.requireSession(c) {
		return nil
	}
	s.session.DeselectDrill()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListStruggles(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"struggles": drill.Struggles()})
}

func (s *Server) handleRecommend(c *fiber.Ctx) error {
	rec, err := drill.Recommend(c.Params("struggle"))
	if err != nil {
		return errorJSON(c, fiber.StatusNotFound, err)
	}
	return c.JSON(rec)
}

func (s *Server) handleStart(c *fiber.Ctx) error {
	if !s.requireSession(c) {
		return nil
	}
	if err := s.session.Start(); err != nil {
		if errors.Is(err, coach.ErrRunning) {
			return errorJSON(c, fiber.StatusConflict, err)
		}
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(s.session.Status())
}

// handleStop ends the session. The session is stopped even when the
// history write fails; the failure is reported alongside the record.
func (s *Server) handleStop(c *fiber.Ctx) error {
	if !s.requireSession(c) {
		return nil
	}
	rec, err := s.session.Stop(c.UserContext())
	if errors.Is(err, coach.ErrNotRunning) {
		return errorJSON(c, fiber.StatusConflict, err)
	}
	resp := fiber.Map{"record": rec}
	if err != nil {
		s.logger.Error("session history not saved", "error", err)
		resp["history_error"] = err.Error()
	}
	return c.JSON(resp)
}

func (s *Server) handleFeedback(c *fiber.Ctx) error {
	if !s.requireSession(c) {
		return nil
	}
	events := s.session.Dispatcher().History()
	if events == nil {
		events = []feedback.Event{}
	}
	metrics := s.session.Metrics()
	if metrics == nil {
		metrics = []feedback.Metric{}
	}
	return c.JSON(fiber.Map{
		"events":  events,
		"metrics": metrics,
	})
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	if s.history == nil {
		return errorJSON(c, fiber.StatusNotFound, errors.New("session history disabled"))
	}
	limit := c.QueryInt("limit", history.DefaultLimit)
	if limit <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, errors.New("limit must be positive"))
	}
	records, err := s.history.List(c.UserContext(), limit)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err)
	}
	if records == nil {
		records = []history.Record{}
	}
	return c.JSON(fiber.Map{"sessions": records})
}
