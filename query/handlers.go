package query

import (
	"context"

	"github.com/agentplatform/go-apiclient/core"
)

// ReadingService is the slice of the client façade the query handlers read
// from. Mutations stay on commands.
type ReadingService interface {
	CurrentUser(ctx context.Context) (core.Identity, error)
	ListAgents(ctx context.Context) ([]core.Agent, error)
	GetAgent(ctx context.Context, agentID int64) (core.Agent, error)
	ListAgentExecutions(ctx context.Context, agentID int64) ([]core.AgentExecution, error)
	ListSocialAccounts(ctx context.Context) ([]core.SocialAccount, error)
	ListVectorCollections(ctx context.Context) ([]core.VectorCollection, error)
	SearchVectorCollection(ctx context.Context, collectionID int64, query core.VectorSearchQuery) (core.VectorSearchResult, error)
}

type CurrentUserQuery struct {
	reader ReadingService
}

func NewCurrentUserQuery(reader ReadingService) *CurrentUserQuery {
	return &CurrentUserQuery{reader: reader}
}

func (q *CurrentUserQuery) Query(ctx context.Context, _ CurrentUserMessage) (core.Identity, error) {
	if q == nil || q.reader == nil {
		return core.Identity{}, queryDependencyError("query: user reader is required")
	}
	return q.reader.CurrentUser(ctx)
}

type ListAgentsQuery struct {
	reader ReadingService
}

func NewListAgentsQuery(reader ReadingService) *ListAgentsQuery {
	return &ListAgentsQuery{reader: reader}
}

func (q *ListAgentsQuery) Query(ctx context.Context, _ ListAgentsMessage) ([]core.Agent, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: agent reader is required")
	}
	return q.reader.ListAgents(ctx)
}

type GetAgentQuery struct {
	reader ReadingService
}

func NewGetAgentQuery(reader ReadingService) *GetAgentQuery {
	return &GetAgentQuery{reader: reader}
}

func (q *GetAgentQuery) Query(ctx context.Context, msg GetAgentMessage) (core.Agent, error) {
	if q == nil || q.reader == nil {
		return core.Agent{}, queryDependencyError("query: agent reader is required")
	}
	return q.reader.GetAgent(ctx, msg.AgentID)
}

type ListAgentExecutionsQuery struct {
	reader ReadingService
}

func NewListAgentExecutionsQuery(reader ReadingService) *ListAgentExecutionsQuery {
	return &ListAgentExecutionsQuery{reader: reader}
}

func (q *ListAgentExecutionsQuery) Query(ctx context.Context, msg ListAgentExecutionsMessage) ([]core.AgentExecution, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: agent reader is required")
	}
	return q.reader.ListAgentExecutions(ctx, msg.AgentID)
}

type ListSocialAccountsQuery struct {
	reader ReadingService
}

func NewListSocialAccountsQuery(reader ReadingService) *ListSocialAccountsQuery {
	return &ListSocialAccountsQuery{reader: reader}
}

func (q *ListSocialAccountsQuery) Query(ctx context.Context, _ ListSocialAccountsMessage) ([]core.SocialAccount, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: social account reader is required")
	}
	return q.reader.ListSocialAccounts(ctx)
}

type ListVectorCollectionsQuery struct {
	reader ReadingService
}

func NewListVectorCollectionsQuery(reader ReadingService) *ListVectorCollectionsQuery {
	return &ListVectorCollectionsQuery{reader: reader}
}

func (q *ListVectorCollectionsQuery) Query(ctx context.Context, _ ListVectorCollectionsMessage) ([]core.VectorCollection, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: vector reader is required")
	}
	return q.reader.ListVectorCollections(ctx)
}

type SearchVectorCollectionQuery struct {
	reader ReadingService
}

func NewSearchVectorCollectionQuery(reader ReadingService) *SearchVectorCollectionQuery {
	return &SearchVectorCollectionQuery{reader: reader}
}

func (q *SearchVectorCollectionQuery) Query(ctx context.Context, msg SearchVectorCollectionMessage) (core.VectorSearchResult, error) {
	if q == nil || q.reader == nil {
		return core.VectorSearchResult{}, queryDependencyError("query: vector reader is required")
	}
	return q.reader.SearchVectorCollection(ctx, msg.CollectionID, msg.Query)
}
