package middleware

import (
	"fmt"

	pkgError "github.com/AzielCF/az-ravena/pkg/error"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Recovery turns a panic into a JSON error. Typed errors keep their own
// status and code.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			res := utils.ResponseData{
				Status:  fiber.StatusInternalServerError,
				Code:    "INTERNAL_SERVER_ERROR",
				Message: fmt.Sprintf("%v", recovered),
			}
			if typed, ok := recovered.(pkgError.GenericError); ok {
				res.Status = typed.StatusCode()
				res.Code = typed.ErrCode()
				res.Message = typed.Error()
			} else {
				logrus.Errorf("[REST] Panic recovered on %s %s: %v", ctx.Method(), ctx.Path(), recovered)
			}

			_ = ctx.Status(res.Status).JSON(res)
		}()

		return ctx.Next()
	}
}
