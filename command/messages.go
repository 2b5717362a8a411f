// Package command exposes the client's mutating operations as dispatchable
// command messages so hosts can route them through a shared command bus.
package command

import (
	"strings"

	"github.com/agentplatform/go-apiclient/core"
)

const (
	TypeLogin                   = "apiclient.command.login"
	TypeRegister                = "apiclient.command.register"
	TypeLogout                  = "apiclient.command.logout"
	TypeRefreshSession          = "apiclient.command.session.refresh"
	TypeCreateAgent             = "apiclient.command.agent.create"
	TypeUpdateAgent             = "apiclient.command.agent.update"
	TypeDeleteAgent             = "apiclient.command.agent.delete"
	TypeExecuteAgent            = "apiclient.command.agent.execute"
	TypeConnectSocialAccount    = "apiclient.command.social.connect"
	TypeDisconnectSocialAccount = "apiclient.command.social.disconnect"
)

type LoginMessage struct {
	Input core.LoginInput
}

func (LoginMessage) Type() string { return TypeLogin }

func (m LoginMessage) Validate() error {
	if err := m.Input.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	return nil
}

type RegisterMessage struct {
	Input core.RegisterInput
}

func (RegisterMessage) Type() string { return TypeRegister }

func (m RegisterMessage) Validate() error {
	if err := m.Input.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	return nil
}

type LogoutMessage struct{}

func (LogoutMessage) Type() string { return TypeLogout }

func (LogoutMessage) Validate() error { return nil }

type RefreshSessionMessage struct{}

func (RefreshSessionMessage) Type() string { return TypeRefreshSession }

func (RefreshSessionMessage) Validate() error { return nil }

type CreateAgentMessage struct {
	Input core.AgentCreateInput
}

func (CreateAgentMessage) Type() string { return TypeCreateAgent }

func (m CreateAgentMessage) Validate() error {
	if err := m.Input.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	return nil
}

type UpdateAgentMessage struct {
	AgentID int64
	Input   core.AgentUpdateInput
}

func (UpdateAgentMessage) Type() string { return TypeUpdateAgent }

func (m UpdateAgentMessage) Validate() error {
	if m.AgentID <= 0 {
		return commandInvalidInputError("command: agent id is required")
	}
	return nil
}

type DeleteAgentMessage struct {
	AgentID int64
}

func (DeleteAgentMessage) Type() string { return TypeDeleteAgent }

func (m DeleteAgentMessage) Validate() error {
	if m.AgentID <= 0 {
		return commandInvalidInputError("command: agent id is required")
	}
	return nil
}

type ExecuteAgentMessage struct {
	AgentID int64
	Input   core.ExecuteAgentInput
}

func (ExecuteAgentMessage) Type() string { return TypeExecuteAgent }

func (m ExecuteAgentMessage) Validate() error {
	if m.AgentID <= 0 {
		return commandInvalidInputError("command: agent id is required")
	}
	return nil
}

type ConnectSocialAccountMessage struct {
	Platform core.SocialPlatform
	Input    core.ConnectSocialAccountInput
}

func (ConnectSocialAccountMessage) Type() string { return TypeConnectSocialAccount }

func (m ConnectSocialAccountMessage) Validate() error {
	if strings.TrimSpace(string(m.Platform)) == "" {
		return commandInvalidInputError("command: social platform is required")
	}
	return nil
}

type DisconnectSocialAccountMessage struct {
	AccountID int64
}

func (DisconnectSocialAccountMessage) Type() string { return TypeDisconnectSocialAccount }

func (m DisconnectSocialAccountMessage) Validate() error {
	if m.AccountID <= 0 {
		return commandInvalidInputError("command: social account id is required")
	}
	return nil
}
