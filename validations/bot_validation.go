package validations

import (
	"context"
	"regexp"

	domainBot "github.com/AzielCF/az-ravena/domains/bot"
	pkgError "github.com/AzielCF/az-ravena/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var botIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func ValidateRestartBot(ctx context.Context, request domainBot.RestartRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.BotID, validation.Required, validation.Length(1, 32), validation.Match(botIDPattern)),
		validation.Field(&request.Reason, validation.Length(0, 200)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
