package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[LoginMessage]                   = (*LoginCommand)(nil)
	_ gocmd.Commander[RegisterMessage]                = (*RegisterCommand)(nil)
	_ gocmd.Commander[LogoutMessage]                  = (*LogoutCommand)(nil)
	_ gocmd.Commander[RefreshSessionMessage]          = (*RefreshSessionCommand)(nil)
	_ gocmd.Commander[CreateAgentMessage]             = (*CreateAgentCommand)(nil)
	_ gocmd.Commander[UpdateAgentMessage]             = (*UpdateAgentCommand)(nil)
	_ gocmd.Commander[DeleteAgentMessage]             = (*DeleteAgentCommand)(nil)
	_ gocmd.Commander[ExecuteAgentMessage]            = (*ExecuteAgentCommand)(nil)
	_ gocmd.Commander[ConnectSocialAccountMessage]    = (*ConnectSocialAccountCommand)(nil)
	_ gocmd.Commander[DisconnectSocialAccountMessage] = (*DisconnectSocialAccountCommand)(nil)
)
