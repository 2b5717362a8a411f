package apiclient

import (
	"fmt"

	clientcommand "github.com/agentplatform/go-apiclient/command"
	clientquery "github.com/agentplatform/go-apiclient/query"
)

// Commands bundles the dispatchable command handlers over one client so a
// host can register them on its command bus in a single pass.
type Commands struct {
	Login                   *clientcommand.LoginCommand
	Register                *clientcommand.RegisterCommand
	Logout                  *clientcommand.LogoutCommand
	RefreshSession          *clientcommand.RefreshSessionCommand
	CreateAgent             *clientcommand.CreateAgentCommand
	UpdateAgent             *clientcommand.UpdateAgentCommand
	DeleteAgent             *clientcommand.DeleteAgentCommand
	ExecuteAgent            *clientcommand.ExecuteAgentCommand
	ConnectSocialAccount    *clientcommand.ConnectSocialAccountCommand
	DisconnectSocialAccount *clientcommand.DisconnectSocialAccountCommand
}

// Queries bundles the read-only query handlers over the same client.
type Queries struct {
	CurrentUser            *clientquery.CurrentUserQuery
	ListAgents             *clientquery.ListAgentsQuery
	GetAgent               *clientquery.GetAgentQuery
	ListAgentExecutions    *clientquery.ListAgentExecutionsQuery
	ListSocialAccounts     *clientquery.ListSocialAccountsQuery
	ListVectorCollections  *clientquery.ListVectorCollectionsQuery
	SearchVectorCollection *clientquery.SearchVectorCollectionQuery
}

type Facade struct {
	client   *Client
	commands Commands
	queries  Queries
}

func NewFacade(client *Client) (*Facade, error) {
	if client == nil {
		return nil, fmt.Errorf("apiclient: client is required")
	}
	return &Facade{
		client: client,
		commands: Commands{
			Login:                   clientcommand.NewLoginCommand(client),
			Register:                clientcommand.NewRegisterCommand(client),
			Logout:                  clientcommand.NewLogoutCommand(client),
			RefreshSession:          clientcommand.NewRefreshSessionCommand(client),
			CreateAgent:             clientcommand.NewCreateAgentCommand(client),
			UpdateAgent:             clientcommand.NewUpdateAgentCommand(client),
			DeleteAgent:             clientcommand.NewDeleteAgentCommand(client),
			ExecuteAgent:            clientcommand.NewExecuteAgentCommand(client),
			ConnectSocialAccount:    clientcommand.NewConnectSocialAccountCommand(client),
			DisconnectSocialAccount: clientcommand.NewDisconnectSocialAccountCommand(client),
		},
		queries: Queries{
			CurrentUser:            clientquery.NewCurrentUserQuery(client),
			ListAgents:             clientquery.NewListAgentsQuery(client),
			GetAgent:               clientquery.NewGetAgentQuery(client),
			ListAgentExecutions:    clientquery.NewListAgentExecutionsQuery(client),
			ListSocialAccounts:     clientquery.NewListSocialAccountsQuery(client),
			ListVectorCollections:  clientquery.NewListVectorCollectionsQuery(client),
			SearchVectorCollection: clientquery.NewSearchVectorCollectionQuery(client),
		},
	}, nil
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Client() *Client {
	if f == nil {
		return nil
	}
	return f.client
}

var (
	_ clientcommand.MutatingService = (*Client)(nil)
	_ clientquery.ReadingService    = (*Client)(nil)
)
