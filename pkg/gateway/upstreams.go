package gateway

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sbagenius/gateway/pkg/gateway/chain"
	"github.com/sbagenius/gateway/pkg/gateway/config"
)

// Upstreams holds the provider base URLs. Tests point these at fakes.
type Upstreams struct {
	YouCom            string
	OddsAPI           string
	BetBurger         string
	BallDontLieLegacy string
	BallDontLieKeyed  string
	Chat              map[string]string // provider -> chat completions URL
}

// DefaultUpstreams returns the production provider endpoints.
func DefaultUpstreams() Upstreams {
	return Upstreams{
		YouCom:            "https://api.ydc-index.io",
		OddsAPI:           "https://api.the-odds-api.com",
		BetBurger:         "https://api.betburger.com",
		BallDontLieLegacy: "https://www.balldontlie.io/api/v1",
		BallDontLieKeyed:  "https://api.balldontlie.io/v1",
		Chat: map[string]string{
			config.ProviderGrok:    "https://api.x.ai/v1/chat/completions",
			config.ProviderMistral: "https://api.mistral.ai/v1/chat/completions",
			config.ProviderPoe:     "https://api.poe.com/v1/chat/completions",
		},
	}
}

// chatProvider describes one OpenAI-compatible chat upstream.
type chatProvider struct {
	defaultModel string
	// allowAuthHeader lets the inbound Authorization header supply the
	// credential. Only grok supports this, matching the legacy proxy.
	allowAuthHeader bool
}

var chatProviders = map[string]chatProvider{
	config.ProviderGrok:    {defaultModel: "grok-2-latest", allowAuthHeader: true},
	config.ProviderMistral: {defaultModel: "mistral-small-latest"},
	config.ProviderPoe:     {defaultModel: "Assistant"},
}

// searchAttempts builds the you.com chain: primary search index, then the
// RAG index, then the news answer index.
func searchAttempts(u Upstreams, query, key string) []chain.Attempt {
	secrets := []string{key}
	return []chain.Attempt{
		{
			Name:    "primary-index",
			Method:  "POST",
			URL:     u.YouCom + "/search",
			Headers: map[string]string{"X-API-Key": key},
			Body:    []byte(fmt.Sprintf(`{"query":%s,"num_web_results":5}`, jsonString(query))),
			Secrets: secrets,
		},
		{
			Name:    "secondary-index",
			Method:  "GET",
			URL:     u.YouCom + "/rag?query=" + url.QueryEscape(query),
			Headers: map[string]string{"X-API-Key": key},
			Secrets: secrets,
		},
		{
			Name:    "answer-index",
			Method:  "GET",
			URL:     u.YouCom + "/news?query=" + url.QueryEscape(query),
			Headers: map[string]string{"X-API-Key": key},
			Secrets: secrets,
		},
	}
}

// oddsAttempts builds The Odds API chain: current v4 book, the v4 event
// book, then the legacy v3 book.
func oddsAttempts(u Upstreams, sport, regions, markets, key string) []chain.Attempt {
	secrets := []string{key}

	live := url.Values{}
	live.Set("apiKey", key)
	live.Set("regions", regions)
	live.Set("markets", markets)
	live.Set("oddsFormat", "american")

	events := url.Values{}
	events.Set("apiKey", key)

	legacy := url.Values{}
	legacy.Set("apiKey", key)
	legacy.Set("sport", sport)
	legacy.Set("region", regions)
	legacy.Set("mkt", "h2h")

	return []chain.Attempt{
		{
			Name:    "live-book",
			Method:  "GET",
			URL:     u.OddsAPI + "/v4/sports/" + url.PathEscape(sport) + "/odds/?" + live.Encode(),
			Secrets: secrets,
		},
		{
			Name:    "prematch-book",
			Method:  "GET",
			URL:     u.OddsAPI + "/v4/sports/" + url.PathEscape(sport) + "/events/?" + events.Encode(),
			Secrets: secrets,
		},
		{
			Name:    "legacy-book",
			Method:  "GET",
			URL:     u.OddsAPI + "/v3/odds/?" + legacy.Encode(),
			Secrets: secrets,
		},
	}
}

// valueBetAttempts builds the BetBurger chain. The arbs fallback only
// applies to the default valuebets endpoint, matching the legacy proxy.
func valueBetAttempts(u Upstreams, endpoint, sport string, perPage int, key string) []chain.Attempt {
	secrets := []string{key}

	primary := url.Values{}
	primary.Set("access_token", key)
	primary.Set("sport", sport)
	primary.Set("per_page", strconv.Itoa(perPage))

	attempts := []chain.Attempt{{
		Name:    endpoint,
		Method:  "GET",
		URL:     u.BetBurger + "/api/v1/" + url.PathEscape(endpoint) + "?" + primary.Encode(),
		Secrets: secrets,
	}}

	if endpoint == "valuebets" {
		arbs := url.Values{}
		arbs.Set("access_token", key)
		arbs.Set("sport", sport)
		arbs.Set("per_page", "30")
		attempts = append(attempts, chain.Attempt{
			Name:    "arbs",
			Method:  "GET",
			URL:     u.BetBurger + "/api/v1/arbs?" + arbs.Encode(),
			Secrets: secrets,
		})
	}

	return attempts
}

// ballDontLieAttempts builds the stats chain: the keyless legacy host first,
// then the keyed host when a key is available.
func ballDontLieAttempts(u Upstreams, pathAndQuery, key string) []chain.Attempt {
	attempts := []chain.Attempt{{
		Name:   "legacy-host",
		Method: "GET",
		URL:    u.BallDontLieLegacy + pathAndQuery,
	}}
	if key != "" {
		attempts = append(attempts, chain.Attempt{
			Name:    "keyed-host",
			Method:  "GET",
			URL:     u.BallDontLieKeyed + pathAndQuery,
			Headers: map[string]string{"Authorization": key},
			Secrets: []string{key},
		})
	}
	return attempts
}

func playerSearchAttempts(u Upstreams, query, key string) []chain.Attempt {
	return ballDontLieAttempts(u, "/players?search="+url.QueryEscape(query), key)
}

func seasonAverageAttempts(u Upstreams, playerID int, season, key string) []chain.Attempt {
	q := "/season_averages?player_ids[]=" + strconv.Itoa(playerID)
	if season != "" && season != "current" {
		q += "&season=" + url.QueryEscape(season)
	}
	return ballDontLieAttempts(u, q, key)
}

func gameLogAttempts(u Upstreams, playerID int, season string, limit int, key string) []chain.Attempt {
	q := "/stats?player_ids[]=" + strconv.Itoa(playerID) + "&per_page=" + strconv.Itoa(limit)
	if season != "" && season != "current" {
		q += "&seasons[]=" + url.QueryEscape(season)
	}
	return ballDontLieAttempts(u, q, key)
}

func injuryAttempts(u Upstreams, playerID int, key string) []chain.Attempt {
	return ballDontLieAttempts(u, "/player_injuries?player_ids[]="+strconv.Itoa(playerID), key)
}

// chatAttempts builds the single-variant chat chain for a provider.
func chatAttempts(completionsURL, key string, body []byte) []chain.Attempt {
	return []chain.Attempt{{
		Name:    "chat-completions",
		Method:  "POST",
		URL:     completionsURL,
		Headers: map[string]string{"Authorization": "Bearer " + key},
		Body:    body,
		Secrets: []string{key},
	}}
}

// jsonString renders s as a JSON string literal.
func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
