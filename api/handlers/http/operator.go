package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/pb"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/service"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/config"
)

const refreshCookieName = "refresh_token"

func SignIn(svcGetter ServiceGetter[*service.OperatorService], cfg config.ServerConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		var req pb.OperatorSignInRequest
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if msg := validateRequest(&req); msg != "" {
			return respondError(c, fiber.StatusBadRequest, msg)
		}

		response, err := srv.SignIn(c.UserContext(), &req)
		if err != nil {
			if errors.Is(err, service.ErrInvalidOperatorPassword) {
				return respondError(c, fiber.StatusUnauthorized, err.Error())
			}
			return internalError(c, err)
		}
		c.Cookie(&fiber.Cookie{
			Name:     refreshCookieName,
			Value:    response.RefreshToken,
			Path:     "/",
			Expires:  time.Now().Add(time.Duration(cfg.AuthRefreshMinute) * time.Minute),
			HTTPOnly: true,
			Secure:   true,
			SameSite: "Strict",
		})

		// the refresh token only travels in the cookie
		return respond(c, fiber.StatusOK, fiber.Map{
			"accessToken": response.AccessToken,
		})
	}
}

func SignOut(svcGetter ServiceGetter[*service.OperatorService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		refreshToken := c.Cookies(refreshCookieName)
		if refreshToken == "" {
			return respond(c, fiber.StatusOK, fiber.Map{
				"message": "Already logged out",
			})
		}
		err := srv.SignOut(c.UserContext(), &pb.OperatorSignOutRequest{
			RefreshToken: refreshToken,
		})
		if err != nil {
			if errors.Is(err, service.ErrInvalidRefreshToken) {
				return respondError(c, fiber.StatusBadRequest, service.ErrInvalidRefreshToken.Error())
			}
			if errors.Is(err, service.ErrSessionNotFound) || errors.Is(err, service.ErrSessionOnInvalidate) {
				return respondError(c, fiber.StatusBadRequest, err.Error())
			}
			return internalError(c, err)
		}
		c.Cookie(&fiber.Cookie{
			Name:     refreshCookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   true,
			SameSite: "Strict",
		})
		return respond(c, fiber.StatusOK, fiber.Map{
			"message": "logged out successfully",
		})
	}
}
