package sqlstore

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// sessionRecord is the single persisted session row. Save always replaces
// the whole row inside one transaction, which keeps the credential pair
// atomic: readers see the old pair or the new pair, never one token of each.
// Identity is json.RawMessage so bun writes the column as raw JSON; a plain
// []byte would be re-encoded as a base64 JSON string.
type sessionRecord struct {
	bun.BaseModel `bun:"table:client_sessions,alias:cs"`

	ID           string          `bun:"id,pk"`
	AccessToken  string          `bun:"access_token,notnull"`
	RefreshToken string          `bun:"refresh_token,notnull"`
	Identity     json.RawMessage `bun:"identity,type:jsonb"`
	CreatedAt    time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
