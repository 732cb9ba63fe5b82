// Package normalize maps provider-specific payload shapes into the gateway's
// stable internal shapes. Every function here is total: absent or malformed
// fields degrade to empty slices or nulls, never to an error, so the shape a
// caller sees does not depend on which upstream variant answered.
package normalize

import "encoding/json"

// SearchHit is one web or news result.
type SearchHit struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Snippets    []string `json:"snippets"`
	URL         string   `json:"url"`
}

// SearchResult is the canonical search shape.
type SearchResult struct {
	Hits     []SearchHit `json:"hits"`
	Snippets []string    `json:"snippets"`
	Sources  []string    `json:"sources"`
	News     []SearchHit `json:"news"`
}

type rawSearchPayload struct {
	Results struct {
		Web  []SearchHit `json:"web"`
		News []SearchHit `json:"news"`
	} `json:"results"`
}

// Search maps a raw search payload into the canonical shape. Hits come from
// results.web, per-hit snippet is the first provider snippet falling back to
// the description, sources are the hit titles, and news mirrors results.news.
func Search(raw []byte) SearchResult {
	var payload rawSearchPayload
	// Malformed payloads normalize to the empty result.
	_ = json.Unmarshal(raw, &payload)

	out := SearchResult{
		Hits:     payload.Results.Web,
		News:     payload.Results.News,
		Snippets: make([]string, 0, len(payload.Results.Web)),
		Sources:  make([]string, 0, len(payload.Results.Web)),
	}
	if out.Hits == nil {
		out.Hits = []SearchHit{}
	}
	if out.News == nil {
		out.News = []SearchHit{}
	}

	for _, hit := range out.Hits {
		snippet := hit.Description
		if len(hit.Snippets) > 0 {
			snippet = hit.Snippets[0]
		}
		out.Snippets = append(out.Snippets, snippet)
		out.Sources = append(out.Sources, hit.Title)
	}

	return out
}
