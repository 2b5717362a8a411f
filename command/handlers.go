package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/agentplatform/go-apiclient/core"
)

// MutatingService is the slice of the client façade the command handlers
// drive. Read-only operations stay out; they belong on queries.
type MutatingService interface {
	Login(ctx context.Context, in core.LoginInput) (core.Session, error)
	Register(ctx context.Context, in core.RegisterInput) (core.Identity, error)
	Logout(ctx context.Context) error
	RefreshSession(ctx context.Context) (core.CredentialPair, error)
	CreateAgent(ctx context.Context, in core.AgentCreateInput) (core.Agent, error)
	UpdateAgent(ctx context.Context, agentID int64, in core.AgentUpdateInput) (core.Agent, error)
	DeleteAgent(ctx context.Context, agentID int64) error
	ExecuteAgent(ctx context.Context, agentID int64, in core.ExecuteAgentInput) (core.AgentExecution, error)
	ConnectSocialAccount(ctx context.Context, platform core.SocialPlatform, in core.ConnectSocialAccountInput) (core.SocialAccount, error)
	DisconnectSocialAccount(ctx context.Context, accountID int64) error
}

type LoginCommand struct {
	service MutatingService
}

func NewLoginCommand(service MutatingService) *LoginCommand {
	return &LoginCommand{service: service}
}

func (c *LoginCommand) Execute(ctx context.Context, msg LoginMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: login service is required")
	}
	out, err := c.service.Login(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RegisterCommand struct {
	service MutatingService
}

func NewRegisterCommand(service MutatingService) *RegisterCommand {
	return &RegisterCommand{service: service}
}

func (c *RegisterCommand) Execute(ctx context.Context, msg RegisterMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: register service is required")
	}
	out, err := c.service.Register(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type LogoutCommand struct {
	service MutatingService
}

func NewLogoutCommand(service MutatingService) *LogoutCommand {
	return &LogoutCommand{service: service}
}

func (c *LogoutCommand) Execute(ctx context.Context, _ LogoutMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: logout service is required")
	}
	return c.service.Logout(ctx)
}

type RefreshSessionCommand struct {
	service MutatingService
}

func NewRefreshSessionCommand(service MutatingService) *RefreshSessionCommand {
	return &RefreshSessionCommand{service: service}
}

func (c *RefreshSessionCommand) Execute(ctx context.Context, _ RefreshSessionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: refresh service is required")
	}
	out, err := c.service.RefreshSession(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CreateAgentCommand struct {
	service MutatingService
}

func NewCreateAgentCommand(service MutatingService) *CreateAgentCommand {
	return &CreateAgentCommand{service: service}
}

func (c *CreateAgentCommand) Execute(ctx context.Context, msg CreateAgentMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: agent service is required")
	}
	out, err := c.service.CreateAgent(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateAgentCommand struct {
	service MutatingService
}

func NewUpdateAgentCommand(service MutatingService) *UpdateAgentCommand {
	return &UpdateAgentCommand{service: service}
}

func (c *UpdateAgentCommand) Execute(ctx context.Context, msg UpdateAgentMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: agent service is required")
	}
	out, err := c.service.UpdateAgent(ctx, msg.AgentID, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteAgentCommand struct {
	service MutatingService
}

func NewDeleteAgentCommand(service MutatingService) *DeleteAgentCommand {
	return &DeleteAgentCommand{service: service}
}

func (c *DeleteAgentCommand) Execute(ctx context.Context, msg DeleteAgentMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: agent service is required")
	}
	return c.service.DeleteAgent(ctx, msg.AgentID)
}

type ExecuteAgentCommand struct {
	service MutatingService
}

func NewExecuteAgentCommand(service MutatingService) *ExecuteAgentCommand {
	return &ExecuteAgentCommand{service: service}
}

func (c *ExecuteAgentCommand) Execute(ctx context.Context, msg ExecuteAgentMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: agent service is required")
	}
	out, err := c.service.ExecuteAgent(ctx, msg.AgentID, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ConnectSocialAccountCommand struct {
	service MutatingService
}

func NewConnectSocialAccountCommand(service MutatingService) *ConnectSocialAccountCommand {
	return &ConnectSocialAccountCommand{service: service}
}

func (c *ConnectSocialAccountCommand) Execute(ctx context.Context, msg ConnectSocialAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: social account service is required")
	}
	out, err := c.service.ConnectSocialAccount(ctx, msg.Platform, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DisconnectSocialAccountCommand struct {
	service MutatingService
}

func NewDisconnectSocialAccountCommand(service MutatingService) *DisconnectSocialAccountCommand {
	return &DisconnectSocialAccountCommand{service: service}
}

func (c *DisconnectSocialAccountCommand) Execute(ctx context.Context, msg DisconnectSocialAccountMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: social account service is required")
	}
	return c.service.DisconnectSocialAccount(ctx, msg.AccountID)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
