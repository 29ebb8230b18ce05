package rest

import (
	"errors"

	pkgError "github.com/AzielCF/az-ravena/pkg/error"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

func success(c *fiber.Ctx, message string, results any) error {
	return c.JSON(utils.ResponseData{
		Status:  fiber.StatusOK,
		Code:    "SUCCESS",
		Message: message,
		Results: results,
	})
}

// fail renders err, keeping the status of typed errors.
func fail(c *fiber.Ctx, err error) error {
	res := utils.ResponseData{
		Status:  fiber.StatusInternalServerError,
		Code:    "INTERNAL_SERVER_ERROR",
		Message: err.Error(),
	}
	var typed pkgError.GenericError
	if errors.As(err, &typed) {
		res.Status = typed.StatusCode()
		res.Code = typed.ErrCode()
	}
	return c.Status(res.Status).JSON(res)
}
