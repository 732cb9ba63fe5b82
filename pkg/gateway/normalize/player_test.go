package normalize

import (
	"strings"
	"testing"
)

const playerSearchPayload = `{
	"data": [
		{"id": 1, "first_name": "Gary", "last_name": "Trent", "position": "G"},
		{"id": 2, "first_name": "Gary", "last_name": "Payton", "position": "G"},
		{"id": 3, "first_name": "Garrison", "last_name": "Mathews", "position": "G"}
	]
}`

func TestPickPlayerExactMatchBeatsOrder(t *testing.T) {
	c, ok := PickPlayer("gary payton", []byte(playerSearchPayload))
	if !ok {
		t.Fatal("Expected a candidate")
	}
	if c.ID != 2 {
		t.Errorf("Exact first+last match should win over position, got id %d", c.ID)
	}
	if !strings.Contains(string(c.Raw), `"position"`) {
		t.Error("Candidate should keep the raw provider record")
	}
}

func TestPickPlayerFallsBackToFirstCandidate(t *testing.T) {
	// No candidate matches both names, so the first one wins.
	c, ok := PickPlayer("Gary Smith", []byte(playerSearchPayload))
	if !ok {
		t.Fatal("Expected a candidate")
	}
	if c.ID != 1 {
		t.Errorf("Expected first candidate fallback, got id %d", c.ID)
	}
}

func TestPickPlayerSingleTokenQuery(t *testing.T) {
	c, ok := PickPlayer("gary", []byte(playerSearchPayload))
	if !ok {
		t.Fatal("Expected a candidate")
	}
	if c.ID != 1 {
		t.Errorf("Single-token query should take the first candidate, got id %d", c.ID)
	}
}

func TestPickPlayerMultiWordLastName(t *testing.T) {
	raw := `{"data":[
		{"id": 10, "first_name": "Gary", "last_name": "Payton"},
		{"id": 11, "first_name": "Gary", "last_name": "Payton II"}
	]}`

	c, ok := PickPlayer("Gary Payton II", []byte(raw))
	if !ok {
		t.Fatal("Expected a candidate")
	}
	if c.ID != 11 {
		t.Errorf("Everything after the first token is the last name, got id %d", c.ID)
	}
}

func TestPickPlayerEmptyPayload(t *testing.T) {
	if _, ok := PickPlayer("anyone", []byte(`{"data":[]}`)); ok {
		t.Error("Empty data should report not found")
	}
	if _, ok := PickPlayer("anyone", []byte(`{}`)); ok {
		t.Error("Missing data should report not found")
	}
	if _, ok := PickPlayer("anyone", []byte(`garbage`)); ok {
		t.Error("Malformed payload should report not found")
	}
}

func TestSeasonAveragesOneDecimal(t *testing.T) {
	raw := []byte(`{"data":[{"pts": 27.35, "reb": 7, "ast": 8.123, "games_played": 61}]}`)

	pts, reb, ast, gp := SeasonAverages(raw)
	if pts == nil || *pts != "27.3" {
		t.Errorf("Expected pts 27.3, got %v", pts)
	}
	if reb == nil || *reb != "7.0" {
		t.Errorf("Expected reb 7.0, got %v", reb)
	}
	if ast == nil || *ast != "8.1" {
		t.Errorf("Expected ast 8.1, got %v", ast)
	}
	if gp == nil || *gp != 61 {
		t.Errorf("Expected 61 games, got %v", gp)
	}
}

func TestSeasonAveragesMissingFieldsDegradeToNil(t *testing.T) {
	pts, reb, ast, gp := SeasonAverages([]byte(`{"data":[{"pts": 12.5}]}`))
	if pts == nil || *pts != "12.5" {
		t.Errorf("Expected pts 12.5, got %v", pts)
	}
	if reb != nil || ast != nil || gp != nil {
		t.Error("Absent fields must normalize to nil, not error or zero strings")
	}
}

func TestSeasonAveragesEmptyPayload(t *testing.T) {
	pts, reb, ast, gp := SeasonAverages([]byte(`{"data":[]}`))
	if pts != nil || reb != nil || ast != nil || gp != nil {
		t.Error("Empty data should yield all-nil stats")
	}
}
