// package state manages persistence.
//
// The engine only reads roster facts (divisions, players, check-ins) and
// writes what it owns: shots, cards, and putt-offs.  Roster writes exist for
// the admin tool.
package state

import (
	"context"

	"github.com/ts4z/puttleague/model"
)

type Closer interface {
	Close()
}

type NightStorage interface {
	FetchLeagueNight(ctx context.Context, id string) (*model.LeagueNight, error)
	FetchLeagueNights(ctx context.Context) ([]*model.LeagueNight, error)
	CreateLeagueNight(ctx context.Context, n *model.LeagueNight) error
	// BumpVersion marks the night as changed and returns the new version.
	BumpVersion(ctx context.Context, id string) (int64, error)
}

type RosterStorage interface {
	FetchDivisions(ctx context.Context) ([]*model.Division, error)
	FetchPlayers(ctx context.Context) ([]*model.Player, error)
	// FetchCheckIns returns check-ins in the order they were made.
	FetchCheckIns(ctx context.Context, nightID string) ([]*model.CheckIn, error)
	SetPaid(ctx context.Context, nightID, playerID string, paid bool) error

	SaveDivision(ctx context.Context, d *model.Division) error
	SavePlayer(ctx context.Context, p *model.Player) error
	SaveCheckIn(ctx context.Context, c *model.CheckIn) error
}

type ScoreStorage interface {
	// UpsertShot writes a shot keyed by (night, player, hole, round,
	// position).  An existing row keeps its original EnteredAt.
	UpsertShot(ctx context.Context, s *model.ShotResult) error
	// UpsertShots writes all shots or none.
	UpsertShots(ctx context.Context, shots []*model.ShotResult) error
	// FetchShots returns shots in retrieval order (see scoring.OrderShots).
	FetchShots(ctx context.Context, nightID string) ([]*model.ShotResult, error)
}

type CardStorage interface {
	FetchCards(ctx context.Context, nightID string) ([]*model.Card, error)
	FetchCard(ctx context.Context, id string) (*model.Card, error)
	// ReplaceCards deletes every card for the night and inserts cards, as
	// one unit.
	ReplaceCards(ctx context.Context, nightID string, cards []*model.Card) error
	// SaveCard updates the scorekeeper and throw order of an existing card.
	SaveCard(ctx context.Context, c *model.Card) error
}

type PuttOffStorage interface {
	CreatePuttOff(ctx context.Context, p *model.PuttOff) error
	FetchPuttOff(ctx context.Context, id string) (*model.PuttOff, error)
	FetchPuttOffs(ctx context.Context, nightID string) ([]*model.PuttOff, error)
	// SavePuttOff writes status, round, and winner, and upserts participant
	// rows by (player, round).
	SavePuttOff(ctx context.Context, p *model.PuttOff) error
}

// Storage is everything the league manager needs.
type Storage interface {
	Closer
	NightStorage
	RosterStorage
	ScoreStorage
	CardStorage
	PuttOffStorage
}
