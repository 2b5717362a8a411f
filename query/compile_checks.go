package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/agentplatform/go-apiclient/core"
)

var (
	_ gocmd.Querier[CurrentUserMessage, core.Identity]                       = (*CurrentUserQuery)(nil)
	_ gocmd.Querier[ListAgentsMessage, []core.Agent]                         = (*ListAgentsQuery)(nil)
	_ gocmd.Querier[GetAgentMessage, core.Agent]                             = (*GetAgentQuery)(nil)
	_ gocmd.Querier[ListAgentExecutionsMessage, []core.AgentExecution]       = (*ListAgentExecutionsQuery)(nil)
	_ gocmd.Querier[ListSocialAccountsMessage, []core.SocialAccount]         = (*ListSocialAccountsQuery)(nil)
	_ gocmd.Querier[ListVectorCollectionsMessage, []core.VectorCollection]   = (*ListVectorCollectionsQuery)(nil)
	_ gocmd.Querier[SearchVectorCollectionMessage, core.VectorSearchResult]  = (*SearchVectorCollectionQuery)(nil)
)
