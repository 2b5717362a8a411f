package apiclient

import (
	"context"
	"encoding/json"

	goerrors "github.com/goliatone/go-errors"

	"github.com/agentplatform/go-apiclient/core"
)

// invoke transmits one descriptor and decodes the JSON payload into out.
// A nil out discards the body; an empty 2xx body leaves out untouched.
func (c *Client) invoke(ctx context.Context, req core.APIRequest, out any) error {
	if err := c.guard(); err != nil {
		return core.MapError(err)
	}

	res, err := c.pipeline.Do(ctx, req)
	if err != nil {
		return core.MapError(err)
	}
	if out == nil || len(res.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "apiclient: decode response body").
			WithTextCode(core.ClientErrorTransportFailed).
			WithMetadata(map[string]any{
				"method": req.Method,
				"path":   req.Path,
			})
	}
	return nil
}

func encodeBody(req core.APIRequest, body any) (core.APIRequest, error) {
	if body == nil {
		return req, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return core.APIRequest{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "apiclient: encode request body").
			WithTextCode(core.ClientErrorBadInput).
			WithMetadata(map[string]any{
				"method": req.Method,
				"path":   req.Path,
			})
	}
	req.Body = payload
	return req, nil
}
