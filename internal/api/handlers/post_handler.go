package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"github.com/maheshrc27/crosspost/pkg/apperrors"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Info(err.Error())
		return respondError(c, apperrors.Wrap(apperrors.KindInvalidInput, "Unable to parse body", err))
	}

	post, err := h.s.CreatePost(c.Context(), GetUserID(c), &pc)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ValidatePost(c *fiber.Ctx) error {
	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		return respondError(c, apperrors.Wrap(apperrors.KindInvalidInput, "Unable to parse body", err))
	}

	result, err := h.s.ValidatePost(c.Context(), &pc)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.s.PostInfo(c.Context(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	var ps transfer.PostSchedule
	if err := c.BodyParser(&ps); err != nil {
		return respondError(c, apperrors.Wrap(apperrors.KindInvalidInput, "Unable to parse body", err))
	}
	if ps.ScheduledAt.IsZero() {
		return respondError(c, apperrors.New(apperrors.KindInvalidInput, "scheduled_at is required"))
	}

	post, err := h.s.Schedule(c.Context(), GetUserID(c), c.Params("id"), ps.ScheduledAt)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) PublishNow(c *fiber.Ctx) error {
	post, err := h.s.PublishNow(c.Context(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	if err := h.s.Remove(c.Context(), GetUserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) UploadMedia(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		slog.Info(err.Error())
		return respondError(c, apperrors.New(apperrors.KindInvalidInput, "No file selected"))
	}

	upload, err := h.s.UploadMedia(c.Context(), GetUserID(c), file)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(upload)
}
