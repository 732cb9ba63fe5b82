package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

var fold = cases.Fold()

// Candidate is a player candidate from the upstream player search, keeping
// the raw record so it can be returned to the caller untouched.
type Candidate struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Raw       json.RawMessage
}

type rawPlayerSearch struct {
	Data []json.RawMessage `json:"data"`
}

// PickPlayer selects the best candidate from a raw player-search payload.
// When the query looks like "First Last", a candidate matching both names
// case-insensitively is preferred over positional order; otherwise the first
// candidate wins. Returns false when the payload holds no candidates.
func PickPlayer(query string, raw []byte) (Candidate, bool) {
	var payload rawPlayerSearch
	_ = json.Unmarshal(raw, &payload)
	if len(payload.Data) == 0 {
		return Candidate{}, false
	}

	candidates := make([]Candidate, 0, len(payload.Data))
	for _, entry := range payload.Data {
		var c Candidate
		if err := json.Unmarshal(entry, &c); err != nil {
			continue
		}
		c.Raw = entry
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	if first, last, ok := splitName(query); ok {
		for _, c := range candidates {
			if fold.String(c.FirstName) == fold.String(first) &&
				fold.String(c.LastName) == fold.String(last) {
				return c, true
			}
		}
	}

	return candidates[0], true
}

// splitName interprets a query as "First Last". Everything after the first
// token belongs to the last name (handles "Gary Payton II").
func splitName(query string) (first, last string, ok bool) {
	fields := strings.Fields(query)
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[0], strings.Join(fields[1:], " "), true
}

// PlayerLookup is the canonical player-lookup shape. Stat fields are nil when
// the stats call failed or returned nothing; the lookup itself still counts
// as found.
type PlayerLookup struct {
	Found       bool            `json:"found"`
	Player      json.RawMessage `json:"player,omitempty"`
	SeasonAvg   *string         `json:"seasonAvg"`
	Reb         *string         `json:"reb"`
	Ast         *string         `json:"ast"`
	GamesPlayed *int            `json:"gamesPlayed"`
}

type rawSeasonAverages struct {
	Data []struct {
		Pts         *float64 `json:"pts"`
		Reb         *float64 `json:"reb"`
		Ast         *float64 `json:"ast"`
		GamesPlayed *int     `json:"games_played"`
	} `json:"data"`
}

// SeasonAverages extracts the headline stats from a raw season-averages
// payload, rendered to one decimal place. Missing rows or fields come back
// nil rather than erroring.
func SeasonAverages(raw []byte) (seasonAvg, reb, ast *string, gamesPlayed *int) {
	var payload rawSeasonAverages
	_ = json.Unmarshal(raw, &payload)
	if len(payload.Data) == 0 {
		return nil, nil, nil, nil
	}

	row := payload.Data[0]
	return fixed1(row.Pts), fixed1(row.Reb), fixed1(row.Ast), row.GamesPlayed
}

func fixed1(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'f', 1, 64)
	return &s
}
