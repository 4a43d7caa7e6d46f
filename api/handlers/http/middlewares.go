package http

import (
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/jwt"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/logger"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/context"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newAuthMiddleware(secret []byte) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{Key: secret},
		Claims:      &jwt.UserClaims{},
		TokenLookup: "header:Authorization",
		SuccessHandler: func(ctx *fiber.Ctx) error {
			userClaims := userClaims(ctx)
			if userClaims == nil {
				return fiber.ErrUnauthorized
			}

			traceID := localTraceID(ctx)

			userCtx := context.NewAppContextWithTracingAndUser(
				ctx.UserContext(),
				traceID,
				userClaims.UserID,
			)

			// Get the global logger and create context-aware logger
			contextLogger := logger.GetGlobalLogger()
			coreLogger := contextLogger.FromContext(userCtx)

			// Set the enriched logger back in context
			userCtx = contextLogger.SetInContext(userCtx, coreLogger)
			ctx.SetUserContext(userCtx)

			return ctx.Next()
		},
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		},
		AuthScheme: "Bearer",
	})
}

func setUserContext(c *fiber.Ctx) error {
	userCtx := context.NewAppContextWithTracing(c.UserContext(), localTraceID(c))

	// Initialize logger with context
	contextLogger := logger.GetGlobalLogger()
	coreLogger := contextLogger.FromContext(userCtx)
	userCtx = contextLogger.SetInContext(userCtx, coreLogger)

	c.SetUserContext(userCtx)
	return c.Next()
}

// setTransaction opens a request-scoped transaction. It is a no-op for the memory backend.
func setTransaction(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return c.Next()
		}
		tx := db.WithContext(c.UserContext()).Begin()
		if tx.Error != nil {
			return tx.Error
		}

		c.SetUserContext(context.NewAppContext(c.UserContext(),
			context.WithDB(tx, true),
			context.WithLogger(context.GetLogger(c.UserContext())),
		))

		err := c.Next()

		if err != nil || c.Response().StatusCode() >= 300 {
			if rbErr := context.Rollback(c.UserContext()); rbErr != nil {
				context.GetLogger(c.UserContext()).Error("error on rollback transaction", "error", rbErr)
			}
			return err
		}

		return context.CommitOrRollback(c.UserContext(), true)
	}
}

func localTraceID(c *fiber.Ctx) string {
	if tid, ok := c.Locals("traceID").(string); ok {
		return tid
	}
	return ""
}

func TraceMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.New().String()
		}
		c.Set("X-Trace-ID", traceID)

		c.Locals("traceID", traceID)

		return c.Next()
	}
}
