package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// parseListQuery builds a ListQuery from request query parameters. Every
// parameter is passed through as a candidate filter; the repository's
// allow-list decides which ones mean anything, and page/limit are consumed
// here. Non-numeric page or limit values fall back to the defaults.
func parseListQuery(r *http.Request) models.ListQuery {
	q := models.ListQuery{Filters: map[string]string{}}

	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		switch key {
		case "page":
			if n, err := strconv.Atoi(values[0]); err == nil {
				q.Page = n
			}
		case "limit":
			if n, err := strconv.Atoi(values[0]); err == nil {
				q.Limit = n
			}
		default:
			q.Filters[key] = values[0]
		}
	}

	q.Normalize()
	return q
}

// decodeJSON decodes a request body, rejecting unknown shapes with a client
// error rather than a panic downstream.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("request body required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
