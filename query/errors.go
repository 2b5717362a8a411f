package query

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/agentplatform/go-apiclient/core"
)

func queryDependencyError(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.ClientErrorInternal)
}

func queryInvalidInputError(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ClientErrorBadInput)
}
