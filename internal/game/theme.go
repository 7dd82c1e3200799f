package game

import "strings"

// Theme is one entry of the puzzle-setting catalog offered to the player.
type Theme struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

var themes = []Theme{
	{ID: "kitchen", Name: "賑やかなキッチン", Icon: "🍳"},
	{ID: "forest", Name: "魔法の森", Icon: "🌲"},
	{ID: "city", Name: "未来の都市", Icon: "🏙️"},
	{ID: "ocean", Name: "海底都市", Icon: "🌊"},
	{ID: "space", Name: "宇宙ステーション", Icon: "🚀"},
	{ID: "toy_store", Name: "おもちゃ屋さん", Icon: "🧸"},
}

// Themes returns a copy of the theme catalog.
func Themes() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// LookupTheme finds a catalog theme by id (case-insensitive).
func LookupTheme(id string) (Theme, bool) {
	id = strings.TrimSpace(id)
	for _, t := range themes {
		if strings.EqualFold(t.ID, id) {
			return t, true
		}
	}
	return Theme{}, false
}
