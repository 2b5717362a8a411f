package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/agentplatform/go-apiclient/core"
)

const pathSocialAccounts = "/social/accounts"

func (c *Client) ListSocialAccounts(ctx context.Context) ([]core.SocialAccount, error) {
	var accounts []core.SocialAccount
	if err := c.invoke(ctx, core.APIRequest{Method: http.MethodGet, Path: pathSocialAccounts}, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) ConnectSocialAccount(
	ctx context.Context,
	platform core.SocialPlatform,
	in core.ConnectSocialAccountInput,
) (core.SocialAccount, error) {
	name := strings.TrimSpace(string(platform))
	if name == "" {
		return core.SocialAccount{}, core.MapError(fmt.Errorf("apiclient: social platform is required"))
	}
	req, err := encodeBody(core.APIRequest{
		Method: http.MethodPost,
		Path:   pathSocialAccounts + "/connect/" + name,
	}, in)
	if err != nil {
		return core.SocialAccount{}, err
	}
	var account core.SocialAccount
	if err := c.invoke(ctx, req, &account); err != nil {
		return core.SocialAccount{}, err
	}
	return account, nil
}

func (c *Client) DisconnectSocialAccount(ctx context.Context, accountID int64) error {
	if accountID <= 0 {
		return core.MapError(fmt.Errorf("apiclient: social account id is required"))
	}
	return c.invoke(ctx, core.APIRequest{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("%s/%d", pathSocialAccounts, accountID),
	}, nil)
}
