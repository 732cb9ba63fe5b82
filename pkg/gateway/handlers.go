package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/sbagenius/gateway/pkg/gateway/config"
	"github.com/sbagenius/gateway/pkg/gateway/normalize"
	"github.com/sbagenius/gateway/pkg/rlm"
)

const serviceName = "sba-genius-gateway"

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// handleHealth reports which provider keys are configured, without exposing
// any key material.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) error {
	configured := make(map[string]bool, len(config.Providers))
	for _, provider := range config.Providers {
		configured[provider] = g.creds.Configured(provider)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": serviceName,
		"endpoints": []string{
			"/grok", "/mistral", "/poe", "/odds-api", "/youcom", "/betburger",
			"/balldontlie", "/proxy", "/rlm", "/predictions", "/ws",
		},
		"keysConfigured": configured,
	})
	return nil
}

func (g *Gateway) handleSearch(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Query  string `json:"query"`
		APIKey string `json:"apiKey"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Query == "" {
		return badRequest("query is required")
	}

	key, err := g.resolveKey(config.ProviderYouCom, req.APIKey, "")
	if err != nil {
		return err
	}

	res, err := g.runChain(r.Context(), "search", searchAttempts(g.upstreams, req.Query, key))
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, normalize.Search(res.Body))
	return nil
}

// handleOdds serves the odds capability. The provider payload is already the
// contract, so it passes through unmodified.
func (g *Gateway) handleOdds(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Sport   string `json:"sport"`
		Regions string `json:"regions"`
		Markets string `json:"markets"`
		APIKey  string `json:"apiKey"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Sport == "" {
		return badRequest("sport is required")
	}
	if req.Regions == "" {
		req.Regions = "us"
	}
	if req.Markets == "" {
		req.Markets = "h2h,spreads,totals"
	}

	key, err := g.resolveKey(config.ProviderOddsAPI, req.APIKey, "")
	if err != nil {
		return err
	}

	res, err := g.runChain(r.Context(), "odds", oddsAttempts(g.upstreams, req.Sport, req.Regions, req.Markets, key))
	if err != nil {
		return err
	}

	writeRaw(w, http.StatusOK, res.Body)
	return nil
}

func (g *Gateway) handleValueBets(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Endpoint    string `json:"endpoint"`
		Sport       string `json:"sport"`
		PerPage     int    `json:"perPage"`
		AccessToken string `json:"accessToken"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Sport == "" {
		return badRequest("sport is required")
	}
	if req.Endpoint == "" {
		req.Endpoint = "valuebets"
	}
	if req.PerPage <= 0 {
		req.PerPage = 50
	}

	key, err := g.resolveKey(config.ProviderBetBurger, req.AccessToken, "")
	if err != nil {
		return err
	}

	res, err := g.runChain(r.Context(), "value-bets", valueBetAttempts(g.upstreams, req.Endpoint, req.Sport, req.PerPage, key))
	if err != nil {
		return err
	}

	writeRaw(w, http.StatusOK, res.Body)
	return nil
}

// ballDontLieKey resolves the stats credential. The legacy host is keyless,
// so a missing key narrows the chain instead of failing the capability.
func (g *Gateway) ballDontLieKey(override string) string {
	key, err := g.creds.Resolve(config.ProviderBallDontLie, override, "")
	if err != nil {
		return ""
	}
	return key
}

func (g *Gateway) handlePlayerLookup(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Player string `json:"player"`
		Season string `json:"season"`
		APIKey string `json:"apiKey"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Player == "" {
		return badRequest("player is required")
	}

	key := g.ballDontLieKey(req.APIKey)

	res, err := g.runChain(r.Context(), "player-lookup", playerSearchAttempts(g.upstreams, req.Player, key))
	if err != nil {
		return err
	}

	candidate, ok := normalize.PickPlayer(req.Player, res.Body)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]bool{"found": false})
		return nil
	}

	lookup := normalize.PlayerLookup{Found: true, Player: candidate.Raw}

	// A failed stats call degrades to null stats; the lookup itself stands.
	statsRes, err := g.runChain(r.Context(), "player-lookup", seasonAverageAttempts(g.upstreams, candidate.ID, req.Season, key))
	if err == nil {
		lookup.SeasonAvg, lookup.Reb, lookup.Ast, lookup.GamesPlayed = normalize.SeasonAverages(statsRes.Body)
	}

	writeJSON(w, http.StatusOK, lookup)
	return nil
}

// resolvePlayerID turns a name query into a player id via the search chain,
// unless the caller already supplied an id.
func (g *Gateway) resolvePlayerID(r *http.Request, capability, player string, playerID int, key string) (int, bool, error) {
	if playerID > 0 {
		return playerID, true, nil
	}

	res, err := g.runChain(r.Context(), capability, playerSearchAttempts(g.upstreams, player, key))
	if err != nil {
		return 0, false, err
	}

	candidate, ok := normalize.PickPlayer(player, res.Body)
	if !ok {
		return 0, false, nil
	}
	return candidate.ID, true, nil
}

func (g *Gateway) handleGameLog(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Player   string `json:"player"`
		PlayerID int    `json:"playerId"`
		Season   string `json:"season"`
		Limit    int    `json:"limit"`
		APIKey   string `json:"apiKey"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Player == "" && req.PlayerID <= 0 {
		return badRequest("player or playerId is required")
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	key := g.ballDontLieKey(req.APIKey)

	playerID, found, err := g.resolvePlayerID(r, "game-log", req.Player, req.PlayerID, key)
	if err != nil {
		return err
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]bool{"found": false})
		return nil
	}

	res, err := g.runChain(r.Context(), "game-log", gameLogAttempts(g.upstreams, playerID, req.Season, req.Limit, key))
	if err != nil {
		return err
	}

	writeRaw(w, http.StatusOK, res.Body)
	return nil
}

func (g *Gateway) handleInjuryStatus(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Player   string `json:"player"`
		PlayerID int    `json:"playerId"`
		APIKey   string `json:"apiKey"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Player == "" && req.PlayerID <= 0 {
		return badRequest("player or playerId is required")
	}

	key := g.ballDontLieKey(req.APIKey)

	playerID, found, err := g.resolvePlayerID(r, "injury-status", req.Player, req.PlayerID, key)
	if err != nil {
		return err
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]bool{"found": false})
		return nil
	}

	res, err := g.runChain(r.Context(), "injury-status", injuryAttempts(g.upstreams, playerID, key))
	if err != nil {
		return err
	}

	writeRaw(w, http.StatusOK, res.Body)
	return nil
}

// handleChat serves one OpenAI-compatible chat provider. The upstream
// response passes through unmodified.
func (g *Gateway) handleChat(provider string) handlerFunc {
	p := chatProviders[provider]

	return func(w http.ResponseWriter, r *http.Request) error {
		var req struct {
			Model     string                         `json:"model"`
			Messages  []openai.ChatCompletionMessage `json:"messages"`
			MaxTokens int                            `json:"max_tokens"`
			APIKey    string                         `json:"apiKey"`
		}
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		if len(req.Messages) == 0 {
			return badRequest("messages are required")
		}
		if req.Model == "" {
			req.Model = p.defaultModel
		}
		if req.MaxTokens <= 0 {
			req.MaxTokens = 500
		}

		authHeader := ""
		if p.allowAuthHeader {
			authHeader = r.Header.Get("Authorization")
		}
		key, err := g.resolveKey(provider, req.APIKey, authHeader)
		if err != nil {
			return err
		}

		body, err := json.Marshal(openai.ChatCompletionRequest{
			Model:     req.Model,
			Messages:  req.Messages,
			MaxTokens: req.MaxTokens,
		})
		if err != nil {
			return err
		}

		res, err := g.runChain(r.Context(), "chat-"+provider, chatAttempts(g.upstreams.Chat[provider], key, body))
		if err != nil {
			return err
		}

		writeRaw(w, http.StatusOK, res.Body)
		return nil
	}
}

// handleProxy performs exactly one raw pass-through call: no credentials, no
// chain, no normalization. The caller is trusted to supply a safe target.
func (g *Gateway) handleProxy(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		URL     string            `json:"url"`
		Method  string            `json:"method"`
		Headers map[string]string `json:"headers"`
		Body    json.RawMessage   `json:"body"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.URL == "" {
		return badRequest("url is required")
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	upReq, err := http.NewRequestWithContext(r.Context(), req.Method, req.URL, bodyReader)
	if err != nil {
		return badRequest("invalid proxy request: %v", err)
	}
	if bodyReader != nil {
		upReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		upReq.Header.Set(k, v)
	}

	resp, err := g.proxyClient.Do(upReq)
	if err != nil {
		return upstreamFailure(0, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return upstreamFailure(resp.StatusCode, err.Error())
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
	return nil
}

func (g *Gateway) handleRLM(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		OpeningLine        *float64 `json:"openingLine"`
		CurrentLine        *float64 `json:"currentLine"`
		PublicMoneyPercent *float64 `json:"publicMoneyPercent"`
		Side               string   `json:"side"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.OpeningLine == nil || req.CurrentLine == nil || req.PublicMoneyPercent == nil {
		return badRequest("openingLine, currentLine and publicMoneyPercent are required")
	}
	side := rlm.Side(req.Side)
	if side != rlm.SideOver && side != rlm.SideUnder {
		return badRequest("side must be %q or %q", rlm.SideOver, rlm.SideUnder)
	}

	signal := rlm.Classify(*req.OpeningLine, *req.CurrentLine, *req.PublicMoneyPercent, side)
	if signal.Detected {
		g.hub.BroadcastRLMSignal(signal)
	}

	writeJSON(w, http.StatusOK, signal)
	return nil
}

func (g *Gateway) handlePredictionAppend(w http.ResponseWriter, r *http.Request) error {
	var fields map[string]interface{}
	if err := decodeJSON(r, &fields); err != nil {
		return err
	}
	if fields == nil {
		return badRequest("request body must be a JSON object")
	}

	rec := g.ledger.Append(fields)
	g.hub.BroadcastPrediction(rec)
	g.updateLedgerGauges()

	writeJSON(w, http.StatusCreated, rec)
	return nil
}

func (g *Gateway) handlePredictionSettle(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		ID     string `json:"id"`
		Result string `json:"result"`
		Hit    *bool  `json:"hit"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.ID == "" || req.Result == "" || req.Hit == nil {
		return badRequest("id, result and hit are required")
	}

	rec, err := g.ledger.Settle(req.ID, req.Result, *req.Hit)
	if err != nil {
		return notFound("no prediction with id %s", req.ID)
	}
	g.hub.BroadcastSettlement(rec)
	g.updateLedgerGauges()

	writeJSON(w, http.StatusOK, rec)
	return nil
}

func (g *Gateway) handlePredictionStats(w http.ResponseWriter, r *http.Request) error {
	stats := g.ledger.Stats()
	g.metrics.SetPredictionCounts(stats.Settled, stats.Pending)
	writeJSON(w, http.StatusOK, stats)
	return nil
}

func (g *Gateway) updateLedgerGauges() {
	stats := g.ledger.Stats()
	g.metrics.SetPredictionCounts(stats.Settled, stats.Pending)
}
