package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/agentplatform/go-apiclient/core"
)

const pathAgents = "/agents"

func agentPath(agentID int64) string {
	return fmt.Sprintf("%s/%d", pathAgents, agentID)
}

func (c *Client) ListAgents(ctx context.Context) ([]core.Agent, error) {
	var agents []core.Agent
	if err := c.invoke(ctx, core.APIRequest{Method: http.MethodGet, Path: pathAgents}, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

func (c *Client) GetAgent(ctx context.Context, agentID int64) (core.Agent, error) {
	if agentID <= 0 {
		return core.Agent{}, core.MapError(fmt.Errorf("apiclient: agent id is required"))
	}
	var agent core.Agent
	if err := c.invoke(ctx, core.APIRequest{Method: http.MethodGet, Path: agentPath(agentID)}, &agent); err != nil {
		return core.Agent{}, err
	}
	return agent, nil
}

func (c *Client) CreateAgent(ctx context.Context, in core.AgentCreateInput) (core.Agent, error) {
	if err := in.Validate(); err != nil {
		return core.Agent{}, core.MapError(err)
	}
	req, err := encodeBody(core.APIRequest{Method: http.MethodPost, Path: pathAgents}, in)
	if err != nil {
		return core.Agent{}, err
	}
	var agent core.Agent
	if err := c.invoke(ctx, req, &agent); err != nil {
		return core.Agent{}, err
	}
	return agent, nil
}

func (c *Client) UpdateAgent(ctx context.Context, agentID int64, in core.AgentUpdateInput) (core.Agent, error) {
	if agentID <= 0 {
		return core.Agent{}, core.MapError(fmt.Errorf("apiclient: agent id is required"))
	}
	req, err := encodeBody(core.APIRequest{Method: http.MethodPut, Path: agentPath(agentID)}, in)
	if err != nil {
		return core.Agent{}, err
	}
	var agent core.Agent
	if err := c.invoke(ctx, req, &agent); err != nil {
		return core.Agent{}, err
	}
	return agent, nil
}

func (c *Client) DeleteAgent(ctx context.Context, agentID int64) error {
	if agentID <= 0 {
		return core.MapError(fmt.Errorf("apiclient: agent id is required"))
	}
	return c.invoke(ctx, core.APIRequest{Method: http.MethodDelete, Path: agentPath(agentID)}, nil)
}

func (c *Client) ExecuteAgent(ctx context.Context, agentID int64, in core.ExecuteAgentInput) (core.AgentExecution, error) {
	if agentID <= 0 {
		return core.AgentExecution{}, core.MapError(fmt.Errorf("apiclient: agent id is required"))
	}
	req, err := encodeBody(core.APIRequest{Method: http.MethodPost, Path: agentPath(agentID) + "/execute"}, in)
	if err != nil {
		return core.AgentExecution{}, err
	}
	var execution core.AgentExecution
	if err := c.invoke(ctx, req, &execution); err != nil {
		return core.AgentExecution{}, err
	}
	return execution, nil
}

func (c *Client) ListAgentExecutions(ctx context.Context, agentID int64) ([]core.AgentExecution, error) {
	if agentID <= 0 {
		return nil, core.MapError(fmt.Errorf("apiclient: agent id is required"))
	}
	var executions []core.AgentExecution
	if err := c.invoke(ctx, core.APIRequest{Method: http.MethodGet, Path: agentPath(agentID) + "/executions"}, &executions); err != nil {
		return nil, err
	}
	return executions, nil
}
