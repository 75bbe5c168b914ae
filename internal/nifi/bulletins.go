package nifi

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
)

// bulletinBoardResponse mirrors NiFi's /flow/bulletin-board shape.
type bulletinBoardResponse struct {
	BulletinBoard struct {
		Bulletins []Bulletin `json:"bulletins"`
	} `json:"bulletinBoard"`
}

// GetBulletins fetches bulletins for sourceID (a processor, controller
// service, or reporting task id), optionally bounded to the last afterID.
//
// NiFi's bulletin board occasionally emits raw, unescaped newlines inside
// JSON string values (observed in stack-trace-bearing bulletin messages),
// which breaks strict JSON decoding. Before unmarshaling, every literal
// newline byte is escaped to \n, matching the sanitization the original
// Python client performed in nifi_client.py.
func (c *Client) GetBulletins(ctx context.Context, sourceID string, afterID int64, limit int) ([]Bulletin, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.get_bulletins")
	defer span.End()

	if err := c.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	if sourceID != "" {
		q.Set("sourceId", sourceID)
	}
	if afterID > 0 {
		q.Set("after", strconv.FormatInt(afterID, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	raw, err := c.doRaw(ctx, "GET", "/flow/bulletin-board", q, nil)
	if err != nil {
		return nil, err
	}

	sanitized := strings.ReplaceAll(string(raw), "\n", "\\n")

	var resp bulletinBoardResponse
	if err := json.Unmarshal([]byte(sanitized), &resp); err != nil {
		return nil, apperr.Internal(err, "decode sanitized bulletin board response")
	}
	return resp.BulletinBoard.Bulletins, nil
}
