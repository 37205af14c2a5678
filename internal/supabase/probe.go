package supabase

import "context"

// CheckConnection performs the smallest authenticated read available and
// reports whether the backend answered with rows (possibly none).
func (c *Client) CheckConnection(ctx context.Context) bool {
	var rows []struct {
		ID string `json:"id"`
	}
	if err := c.From(c.probeTable).Limit(1).Select(ctx, "id", &rows); err != nil {
		c.logger.Warn("connection check failed", "error", err)
		return false
	}
	return rows != nil
}
