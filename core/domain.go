package core

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Fixed storage keys for persisted client-side session state. Stores may
// namespace them but must keep the key set stable across releases.
const (
	StorageKeyAccessToken  = "access_token"
	StorageKeyRefreshToken = "refresh_token"
	StorageKeyUser         = "user"
)

const DefaultVectorSearchK = 5

// CredentialPair is the (access token, refresh token) tuple treated as a
// single atomic unit of authentication state. A refresh replaces the whole
// pair; there is never a partial overwrite of only one token.
type CredentialPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (p CredentialPair) HasAccessToken() bool {
	return strings.TrimSpace(p.AccessToken) != ""
}

func (p CredentialPair) HasRefreshToken() bool {
	return strings.TrimSpace(p.RefreshToken) != ""
}

func (p CredentialPair) IsZero() bool {
	return !p.HasAccessToken() && !p.HasRefreshToken()
}

// Identity is the opaque user descriptor returned alongside a credential
// pair at login. The request pipeline never reads it; it is persisted for
// the host application's convenience.
type Identity struct {
	ID          int64          `json:"id"`
	Email       string         `json:"email"`
	Username    string         `json:"username"`
	FullName    string         `json:"full_name,omitempty"`
	Disabled    bool           `json:"disabled"`
	IsSuperuser bool           `json:"is_superuser"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// Session pairs the active credentials with the identity they belong to.
type Session struct {
	Credentials CredentialPair
	Identity    Identity
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("core: email is required")
	}
	if in.Password == "" {
		return fmt.Errorf("core: password is required")
	}
	return nil
}

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

func (in RegisterInput) Validate() error {
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("core: email is required")
	}
	if strings.TrimSpace(in.Username) == "" {
		return fmt.Errorf("core: username is required")
	}
	if in.Password == "" {
		return fmt.Errorf("core: password is required")
	}
	return nil
}

type AgentType string

const (
	AgentTypeContentGenerator AgentType = "content_generator"
	AgentTypeAnalytics        AgentType = "analytics"
	AgentTypeEngagement       AgentType = "engagement"
	AgentTypeScheduler        AgentType = "scheduler"
	AgentTypeCustom           AgentType = "custom"
)

type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusInactive AgentStatus = "inactive"
	AgentStatusTraining AgentStatus = "training"
	AgentStatusError    AgentStatus = "error"
)

type Agent struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	AgentType   AgentType      `json:"agent_type"`
	Status      AgentStatus    `json:"status"`
	Config      map[string]any `json:"config,omitempty"`
	OwnerID     int64          `json:"owner_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
	LastRunAt   *time.Time     `json:"last_run_at,omitempty"`
}

type AgentCreateInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	AgentType   AgentType      `json:"agent_type,omitempty"`
	Status      AgentStatus    `json:"status,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

func (in AgentCreateInput) Validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("core: agent name is required")
	}
	if len(name) > 100 {
		return fmt.Errorf("core: agent name exceeds 100 characters")
	}
	return nil
}

// AgentUpdateInput carries a partial update; zero fields are omitted from
// the request body and left untouched by the remote API.
type AgentUpdateInput struct {
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Status      AgentStatus    `json:"status,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

// ExecuteAgentInput carries the free-form parameters forwarded to an agent
// run. A nil map is valid and sends an empty parameter object.
type ExecuteAgentInput struct {
	Parameters map[string]any `json:"parameters,omitempty"`
}

type AgentExecution struct {
	ID              int64          `json:"id"`
	AgentID         int64          `json:"agent_id"`
	Status          string         `json:"status"`
	InputParameters map[string]any `json:"input_parameters,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

type SocialPlatform string

const (
	SocialPlatformTwitter   SocialPlatform = "twitter"
	SocialPlatformFacebook  SocialPlatform = "facebook"
	SocialPlatformInstagram SocialPlatform = "instagram"
	SocialPlatformLinkedIn  SocialPlatform = "linkedin"
	SocialPlatformYouTube   SocialPlatform = "youtube"
	SocialPlatformTikTok    SocialPlatform = "tiktok"
	SocialPlatformPinterest SocialPlatform = "pinterest"
	SocialPlatformReddit    SocialPlatform = "reddit"
	SocialPlatformDiscord   SocialPlatform = "discord"
	SocialPlatformSlack     SocialPlatform = "slack"
	SocialPlatformOther     SocialPlatform = "other"
)

type SocialAccountStatus string

const (
	SocialAccountStatusConnected    SocialAccountStatus = "connected"
	SocialAccountStatusDisconnected SocialAccountStatus = "disconnected"
	SocialAccountStatusError        SocialAccountStatus = "error"
	SocialAccountStatusRefreshing   SocialAccountStatus = "refreshing"
)

// ConnectSocialAccountInput carries the provider-issued credential material
// handed to the connect endpoint for a platform.
type ConnectSocialAccountInput struct {
	AccessToken string         `json:"access_token,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type SocialAccount struct {
	ID           int64               `json:"id"`
	Platform     SocialPlatform      `json:"platform"`
	DisplayName  string              `json:"display_name"`
	Username     string              `json:"username,omitempty"`
	Email        string              `json:"email,omitempty"`
	ExternalID   string              `json:"external_id"`
	Status       SocialAccountStatus `json:"status"`
	OwnerID      int64               `json:"owner_id"`
	Metadata     map[string]any      `json:"metadata,omitempty"`
	LastSyncedAt *time.Time          `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    *time.Time          `json:"updated_at,omitempty"`
}

type VectorCollection struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Dimensions     int            `json:"dimensions"`
	DistanceMetric string         `json:"distance_metric"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	OwnerID        int64          `json:"owner_id,omitempty"`
	VectorCount    int            `json:"vector_count"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      *time.Time     `json:"updated_at,omitempty"`
}

// VectorSearchQuery is the body of a collection search call. K defaults to
// DefaultVectorSearchK when left at or below zero.
type VectorSearchQuery struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

func (q VectorSearchQuery) Normalize() VectorSearchQuery {
	out := q
	out.Query = strings.TrimSpace(out.Query)
	if out.K <= 0 {
		out.K = DefaultVectorSearchK
	}
	return out
}

func (q VectorSearchQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("core: search query is required")
	}
	return nil
}

type VectorSearchMatch struct {
	ID         int64          `json:"id"`
	DocumentID string         `json:"document_id,omitempty"`
	Score      float64        `json:"score"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type VectorSearchResult struct {
	Matches []VectorSearchMatch `json:"matches"`
}

// APIRequest is the pending-request descriptor the pipeline transmits and,
// on a recoverable authentication failure, replays. Attempt counts how many
// times the descriptor has already been replayed; the retry decision is a
// pure function of the descriptor, never of hidden pipeline state.
type APIRequest struct {
	Method  string
	Path    string
	Query   map[string]string
	Headers map[string]string
	Body    []byte
	Attempt int

	// Anonymous marks a request that does not ride on the stored session:
	// no bearer token is attached and an authentication failure is returned
	// as a plain remote error instead of triggering a refresh. Login and
	// register calls use this so a wrong password cannot end the session.
	Anonymous bool
}

// NextAttempt returns a copy of the descriptor with the attempt counter
// advanced. The original is never mutated.
func (r APIRequest) NextAttempt() APIRequest {
	out := r.Clone()
	out.Attempt = r.Attempt + 1
	return out
}

func (r APIRequest) Clone() APIRequest {
	out := r
	if len(r.Query) > 0 {
		out.Query = make(map[string]string, len(r.Query))
		for key, value := range r.Query {
			out.Query[key] = value
		}
	}
	if len(r.Headers) > 0 {
		out.Headers = make(map[string]string, len(r.Headers))
		for key, value := range r.Headers {
			out.Headers[key] = value
		}
	}
	if len(r.Body) > 0 {
		out.Body = append([]byte(nil), r.Body...)
	}
	return out
}

func (r APIRequest) Validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return fmt.Errorf("core: request path is required")
	}
	return nil
}

type APIResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

func (r APIResponse) IsSuccess() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}
