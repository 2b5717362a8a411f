// Package query exposes the client's read-only operations as dispatchable
// query messages for hosts that route reads through a command/query bus.
package query

import (
	"strings"

	"github.com/agentplatform/go-apiclient/core"
)

const (
	TypeCurrentUser            = "apiclient.query.user.current"
	TypeListAgents             = "apiclient.query.agent.list"
	TypeGetAgent               = "apiclient.query.agent.get"
	TypeListAgentExecutions    = "apiclient.query.agent.executions"
	TypeListSocialAccounts     = "apiclient.query.social.list"
	TypeListVectorCollections  = "apiclient.query.vector.collections"
	TypeSearchVectorCollection = "apiclient.query.vector.search"
)

type CurrentUserMessage struct{}

func (CurrentUserMessage) Type() string { return TypeCurrentUser }

func (CurrentUserMessage) Validate() error { return nil }

type ListAgentsMessage struct{}

func (ListAgentsMessage) Type() string { return TypeListAgents }

func (ListAgentsMessage) Validate() error { return nil }

type GetAgentMessage struct {
	AgentID int64
}

func (GetAgentMessage) Type() string { return TypeGetAgent }

func (m GetAgentMessage) Validate() error {
	if m.AgentID <= 0 {
		return queryInvalidInputError("query: agent id is required")
	}
	return nil
}

type ListAgentExecutionsMessage struct {
	AgentID int64
}

func (ListAgentExecutionsMessage) Type() string { return TypeListAgentExecutions }

func (m ListAgentExecutionsMessage) Validate() error {
	if m.AgentID <= 0 {
		return queryInvalidInputError("query: agent id is required")
	}
	return nil
}

type ListSocialAccountsMessage struct{}

func (ListSocialAccountsMessage) Type() string { return TypeListSocialAccounts }

func (ListSocialAccountsMessage) Validate() error { return nil }

type ListVectorCollectionsMessage struct{}

func (ListVectorCollectionsMessage) Type() string { return TypeListVectorCollections }

func (ListVectorCollectionsMessage) Validate() error { return nil }

type SearchVectorCollectionMessage struct {
	CollectionID int64
	Query        core.VectorSearchQuery
}

func (SearchVectorCollectionMessage) Type() string { return TypeSearchVectorCollection }

func (m SearchVectorCollectionMessage) Validate() error {
	if m.CollectionID <= 0 {
		return queryInvalidInputError("query: vector collection id is required")
	}
	if strings.TrimSpace(m.Query.Query) == "" {
		return queryInvalidInputError("query: search query is required")
	}
	return nil
}
