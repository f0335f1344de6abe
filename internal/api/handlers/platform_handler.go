package handlers

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/publisher"
	"github.com/maheshrc27/crosspost/internal/service"
	"github.com/maheshrc27/crosspost/pkg/apperrors"
)

type PlatformHandler struct {
	s   service.AccountService
	cfg config.Config
}

func NewPlatformHandler(s service.AccountService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{
		s:   s,
		cfg: cfg,
	}
}

type platformInfo struct {
	Platform      models.Platform `json:"platform"`
	Configured    bool            `json:"configured"`
	ContentLimit  int             `json:"content_limit"`
	RequiresMedia string          `json:"requires_media,omitempty"`
}

func (h *PlatformHandler) AddSocialAccount(c *fiber.Ctx) error {
	platform, ok := models.ParsePlatform(c.Params("platform"))
	if !ok {
		return respondError(c, apperrors.Newf(apperrors.KindInvalidInput, "Unsupported platform: %s", c.Params("platform")))
	}

	authURL, err := h.s.GetAuthURL(c.Context(), GetUserID(c), platform)
	if err != nil {
		return respondError(c, err)
	}
	return c.Redirect(authURL, fiber.StatusTemporaryRedirect)
}

// CallbackHandler completes a connect flow and sends the browser back to the
// dashboard, with an error query parameter when it failed.
func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	platform, ok := models.ParsePlatform(c.Params("platform"))
	if !ok {
		return respondError(c, apperrors.Newf(apperrors.KindInvalidInput, "Unsupported platform: %s", c.Params("platform")))
	}

	q := url.Values{}
	if denied := c.Query("error"); denied != "" {
		slog.Info("OAuth consent denied", "platform", platform, "error", denied)
		q.Set("error", denied)
		return c.Redirect(h.accountsURL(q), fiber.StatusTemporaryRedirect)
	}

	acc, err := h.s.Callback(c.Context(), platform, c.Query("code"), c.Query("state"))
	if err != nil {
		q.Set("error", string(apperrors.KindOf(err)))
		if q.Get("error") == "" {
			q.Set("error", "connect_failed")
		}
		return c.Redirect(h.accountsURL(q), fiber.StatusTemporaryRedirect)
	}

	q.Set("connected", string(acc.Platform))
	return c.Redirect(h.accountsURL(q), fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) ListPlatforms(c *fiber.Ctx) error {
	configured := map[models.Platform]bool{}
	for _, p := range h.s.ConfiguredPlatforms() {
		configured[p] = true
	}

	platforms := make([]platformInfo, 0, len(models.Platforms))
	for _, p := range models.Platforms {
		platforms = append(platforms, platformInfo{
			Platform:      p,
			Configured:    configured[p],
			ContentLimit:  publisher.ContentLimits[p],
			RequiresMedia: publisher.RequiredMedia(p),
		})
	}

	return c.Status(fiber.StatusOK).JSON(platforms)
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accountList, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(accountList)
}

func (h *PlatformHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	err := h.s.Delete(c.Context(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PlatformHandler) accountsURL(q url.Values) string {
	return fmt.Sprintf("%s/dashboard/accounts?%s", h.cfg.FrontendBaseURL(), q.Encode())
}
