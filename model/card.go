package model

// Card is a group of players who play the night together, starting at
// StartingHole.
type Card struct {
	ID            string
	LeagueNightID string
	Name          string
	StartingHole  int
	ScorekeeperID string
	Players       []*CardPlayer
}

// CardPlayer is a seat on a card.  SortOrder is the throw order.
type CardPlayer struct {
	PlayerID  string
	SortOrder int
}

func (c *Card) HasPlayer(playerID string) bool {
	for _, cp := range c.Players {
		if cp.PlayerID == playerID {
			return true
		}
	}
	return false
}

func (c *Card) PlayerIDs() []string {
	ids := make([]string, len(c.Players))
	for i, cp := range c.Players {
		ids[i] = cp.PlayerID
	}
	return ids
}

func (c *Card) Clone() *Card {
	cpy := *c
	cpy.Players = make([]*CardPlayer, len(c.Players))
	for i, cp := range c.Players {
		cpc := *cp
		cpy.Players[i] = &cpc
	}
	return &cpy
}
