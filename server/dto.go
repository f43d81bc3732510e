package server

import "github.com/VibhavTh/Sniftr/core"

// Bottle 是目录物品的对外表示。
type Bottle struct {
	OriginalIndex int64    `json:"original_index"`
	Name          string   `json:"name"`
	Brand         string   `json:"brand,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	Country       string   `json:"country,omitempty"`
	Year          int      `json:"year,omitempty"`
	MainAccords   []string `json:"main_accords,omitempty"`
	NotesTop      []string `json:"notes_top,omitempty"`
	NotesMiddle   []string `json:"notes_middle,omitempty"`
	NotesBase     []string `json:"notes_base,omitempty"`
	RatingValue   *float64 `json:"rating_value,omitempty"`
	RatingCount   *int64   `json:"rating_count,omitempty"`
	Score         float64  `json:"score,omitempty"`
}

func toBottle(it *core.Item) Bottle {
	return Bottle{
		OriginalIndex: it.ID,
		Name:          it.Name,
		Brand:         it.Brand,
		ImageURL:      it.ImageURL,
		Gender:        it.Gender,
		Country:       it.Country,
		Year:          it.Year,
		MainAccords:   it.MainAccords,
		NotesTop:      it.NotesTop,
		NotesMiddle:   it.NotesMiddle,
		NotesBase:     it.NotesBase,
		RatingValue:   it.RatingValue,
		RatingCount:   it.RatingCount,
		Score:         it.Score,
	}
}

func toBottles(items []*core.Item) []Bottle {
	out := make([]Bottle, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, toBottle(it))
		}
	}
	return out
}

// recommendResponse 是 GET /recommendations 的响应体。
type recommendResponse struct {
	Mode         string   `json:"mode"` // "seed" / "query"
	SeedBottleID *int64   `json:"seed_bottle_id,omitempty"`
	Query        string   `json:"query,omitempty"`
	K            int      `json:"k"`
	Results      []Bottle `json:"results"`
}

// candidatesResponse 是 GET /swipe/candidates 的响应体。
type candidatesResponse struct {
	SeedBottleID int64    `json:"seed_bottle_id"`
	Results      []Bottle `json:"results"`
}

// swipeRequest 是 POST /swipes 的请求体。
type swipeRequest struct {
	BottleID  int64  `json:"bottle_id"`
	Action    string `json:"action"` // like / pass
	SessionID string `json:"session_id,omitempty"`
}

// sessionResponse 是会话端点的响应体。
type sessionResponse struct {
	SessionID    string  `json:"session_id"`
	Mode         string  `json:"mode"`
	Current      *Bottle `json:"current,omitempty"`
	QueueLen     int     `json:"queue_len"`
	PassLifeUsed bool    `json:"pass_life_used"`
	SeenCount    int     `json:"seen_count"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
