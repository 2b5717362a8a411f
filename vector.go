package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/agentplatform/go-apiclient/core"
)

const pathVectorCollections = "/vector/collections"

func (c *Client) ListVectorCollections(ctx context.Context) ([]core.VectorCollection, error) {
	var collections []core.VectorCollection
	if err := c.invoke(ctx, core.APIRequest{Method: http.MethodGet, Path: pathVectorCollections}, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

// SearchVectorCollection runs a similarity search. The k parameter defaults
// to core.DefaultVectorSearchK when the query leaves it unset.
func (c *Client) SearchVectorCollection(
	ctx context.Context,
	collectionID int64,
	query core.VectorSearchQuery,
) (core.VectorSearchResult, error) {
	if collectionID <= 0 {
		return core.VectorSearchResult{}, core.MapError(fmt.Errorf("apiclient: vector collection id is required"))
	}
	normalized := query.Normalize()
	if err := normalized.Validate(); err != nil {
		return core.VectorSearchResult{}, core.MapError(err)
	}

	req, err := encodeBody(core.APIRequest{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/%d/search", pathVectorCollections, collectionID),
	}, normalized)
	if err != nil {
		return core.VectorSearchResult{}, err
	}

	var result core.VectorSearchResult
	if err := c.invoke(ctx, req, &result); err != nil {
		return core.VectorSearchResult{}, err
	}
	return result, nil
}
