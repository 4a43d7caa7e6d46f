package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/pb"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/service"
)

func RegisterScanner(svcGetter ServiceGetter[*service.ScannerService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		var req pb.RegisterScannerRequest
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Description = strings.TrimSpace(req.Description)
		req.ContactEmail = strings.TrimSpace(req.ContactEmail)
		if msg := validateRequest(&req); msg != "" {
			return respondError(c, fiber.StatusBadRequest, msg)
		}

		resp, err := srv.RegisterScanner(c.UserContext(), &req)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrDuplicateScanner):
				return respondError(c, fiber.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrInvalidRegistration):
				return respondError(c, fiber.StatusBadRequest, err.Error())
			}
			return internalError(c, err)
		}
		return respond(c, fiber.StatusCreated, resp)
	}
}

func Heartbeat(svcGetter ServiceGetter[*service.ScannerService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return respondError(c, fiber.StatusUnauthorized, "Authorization header required")
		}
		apiKey, ok := bearerToken(authHeader)
		if !ok {
			return respondError(c, fiber.StatusUnauthorized, "Invalid authorization format. Use: Bearer <api-key>")
		}

		resp, err := srv.Heartbeat(c.UserContext(), &pb.HeartbeatRequest{
			Id:     c.Params("id"),
			ApiKey: apiKey,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrScannerNotFound), errors.Is(err, service.ErrInvalidCredential):
				return respondError(c, fiber.StatusUnauthorized, err.Error())
			case errors.Is(err, service.ErrScannerBlacklisted):
				return respondError(c, fiber.StatusForbidden, err.Error())
			}
			return internalError(c, err)
		}
		return respond(c, fiber.StatusOK, resp)
	}
}

// bearerToken splits "Bearer <token>" and rejects anything else.
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func GetFleetMetrics(svcGetter ServiceGetter[*service.ScannerService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		resp, err := srv.FleetMetrics(c.UserContext())
		if err != nil {
			return internalError(c, err)
		}
		return respond(c, fiber.StatusOK, resp)
	}
}

func RankScanners(svcGetter ServiceGetter[*service.ScannerService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		resp, err := srv.RankScanners(c.UserContext())
		if err != nil {
			return internalError(c, err)
		}
		return respond(c, fiber.StatusOK, resp)
	}
}

func ListScanners(svcGetter ServiceGetter[*service.ScannerService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		req := pb.ListScannersRequest{
			Status: c.Query("status"),
			Limit:  c.QueryInt("limit", 0),
			Offset: c.QueryInt("offset", 0),
		}
		if v := c.Query("blacklisted"); v != "" {
			b := c.QueryBool("blacklisted")
			req.Blacklisted = &b
		}
		if msg := validateRequest(&req); msg != "" {
			return respondError(c, fiber.StatusBadRequest, msg)
		}

		resp, err := srv.ListScanners(c.UserContext(), &req)
		if err != nil {
			if errors.Is(err, service.ErrInvalidFilter) {
				return respondError(c, fiber.StatusBadRequest, err.Error())
			}
			return internalError(c, err)
		}
		return respond(c, fiber.StatusOK, resp)
	}
}

func GetScanner(svcGetter ServiceGetter[*service.ScannerService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		resp, err := srv.GetScanner(c.UserContext(), &pb.GetScannerRequest{Id: c.Params("id")})
		if err != nil {
			if errors.Is(err, service.ErrScannerNotFound) {
				return respondError(c, fiber.StatusNotFound, err.Error())
			}
			return internalError(c, err)
		}
		return respond(c, fiber.StatusOK, resp)
	}
}

func RecordOutcome(svcGetter ServiceGetter[*service.ScannerService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		var req pb.RecordOutcomeRequest
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if msg := validateRequest(&req); msg != "" {
			return respondError(c, fiber.StatusBadRequest, msg)
		}
		req.Id = c.Params("id")

		resp, err := srv.RecordOutcome(c.UserContext(), &req)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidOutcome):
				return respondError(c, fiber.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrScannerNotFound):
				return respondError(c, fiber.StatusNotFound, err.Error())
			}
			return internalError(c, err)
		}
		return respond(c, fiber.StatusOK, resp)
	}
}

func BlacklistScanner(svcGetter ServiceGetter[*service.ScannerService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		var req pb.BlacklistRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return respondError(c, fiber.StatusBadRequest, "Invalid request body")
			}
		}
		if msg := validateRequest(&req); msg != "" {
			return respondError(c, fiber.StatusBadRequest, msg)
		}
		req.Id = c.Params("id")

		resp, err := srv.Blacklist(c.UserContext(), &req)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidBlacklistUntil):
				return respondError(c, fiber.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrScannerNotFound):
				return respondError(c, fiber.StatusNotFound, err.Error())
			}
			return internalError(c, err)
		}
		return respond(c, fiber.StatusOK, resp)
	}
}

func LiftBlacklist(svcGetter ServiceGetter[*service.ScannerService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		resp, err := srv.LiftBlacklist(c.UserContext(), &pb.GetScannerRequest{Id: c.Params("id")})
		if err != nil {
			if errors.Is(err, service.ErrScannerNotFound) {
				return respondError(c, fiber.StatusNotFound, err.Error())
			}
			return internalError(c, err)
		}
		return respond(c, fiber.StatusOK, resp)
	}
}
