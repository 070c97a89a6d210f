package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ts4z/puttleague/dbutil"
	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/scoring"
)

// DBStorage keeps everything in a SQL database.  Queries are written with ?
// placeholders and rebound for the driver, so the same code runs against
// Postgres (pgx or pq) and SQLite.
type DBStorage struct {
	db      *sqlx.DB
	dialect Dialect
}

var _ Storage = &DBStorage{}

func NewDBStorage(db *sqlx.DB) *DBStorage {
	return &DBStorage{
		db:      db,
		dialect: DialectFor(db.DriverName()),
	}
}

func (s *DBStorage) Close() {
	s.db.Close()
}

func (s *DBStorage) DB() *sqlx.DB {
	return s.db
}

// InitSchema creates any missing tables.
func (s *DBStorage) InitSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("can't init schema: %w", err)
		}
	}
	return nil
}

func (s *DBStorage) q(query string) string {
	return s.db.Rebind(query)
}

type nightRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Date         time.Time `db:"night_date"`
	TieBreakMode string    `db:"tie_break_mode"`
	TotalHoles   int       `db:"total_holes"`
	Version      int64     `db:"version"`
}

func (r *nightRow) model() *model.LeagueNight {
	return &model.LeagueNight{
		ID:           r.ID,
		Name:         r.Name,
		Date:         r.Date,
		TieBreakMode: model.TieBreakMode(r.TieBreakMode),
		TotalHoles:   r.TotalHoles,
		Version:      r.Version,
	}
}

const nightColumns = `id, name, night_date, tie_break_mode, total_holes, version`

func (s *DBStorage) FetchLeagueNight(ctx context.Context, id string) (*model.LeagueNight, error) {
	row := nightRow{}
	err := s.db.GetContext(ctx, &row, s.q(`SELECT `+nightColumns+` FROM league_nights WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, he.NotFoundErrorf("no such league night %s", id)
	} else if err != nil {
		return nil, err
	}
	return row.model(), nil
}

func (s *DBStorage) FetchLeagueNights(ctx context.Context) ([]*model.LeagueNight, error) {
	rows := []nightRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+nightColumns+` FROM league_nights ORDER BY night_date DESC, id`); err != nil {
		return nil, err
	}
	out := make([]*model.LeagueNight, len(rows))
	for i := range rows {
		out[i] = rows[i].model()
	}
	return out, nil
}

func (s *DBStorage) CreateLeagueNight(ctx context.Context, n *model.LeagueNight) error {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO league_nights (`+nightColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		n.ID, n.Name, n.Date, string(n.TieBreakMode), n.TotalHoles, n.Version)
	return err
}

func (s *DBStorage) BumpVersion(ctx context.Context, id string) (int64, error) {
	var version int64
	err := s.db.GetContext(ctx, &version,
		s.q(`UPDATE league_nights SET version = version + 1 WHERE id = ? RETURNING version`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, he.NotFoundErrorf("no such league night %s", id)
	}
	return version, err
}

func (s *DBStorage) FetchDivisions(ctx context.Context) ([]*model.Division, error) {
	rows := []struct {
		ID        string `db:"id"`
		Code      string `db:"code"`
		Name      string `db:"name"`
		EntryFee  int64  `db:"entry_fee"`
		SortOrder int    `db:"sort_order"`
	}{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, code, name, entry_fee, sort_order FROM divisions ORDER BY sort_order, code`); err != nil {
		return nil, err
	}
	out := make([]*model.Division, len(rows))
	for i, r := range rows {
		out[i] = &model.Division{ID: r.ID, Code: r.Code, Name: r.Name, EntryFee: r.EntryFee, SortOrder: r.SortOrder}
	}
	return out, nil
}

func (s *DBStorage) FetchPlayers(ctx context.Context) ([]*model.Player, error) {
	rows := []struct {
		ID         string `db:"id"`
		Name       string `db:"name"`
		DivisionID string `db:"division_id"`
	}{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name, division_id FROM players ORDER BY name, id`); err != nil {
		return nil, err
	}
	out := make([]*model.Player, len(rows))
	for i, r := range rows {
		out[i] = &model.Player{ID: r.ID, Name: r.Name, DivisionID: r.DivisionID}
	}
	return out, nil
}

func (s *DBStorage) FetchCheckIns(ctx context.Context, nightID string) ([]*model.CheckIn, error) {
	rows := []struct {
		LeagueNightID string `db:"league_night_id"`
		PlayerID      string `db:"player_id"`
		DivisionID    string `db:"division_id"`
		Paid          bool   `db:"paid"`
	}{}
	err := s.db.SelectContext(ctx, &rows, s.q(`SELECT league_night_id, player_id, division_id, paid
		FROM check_ins WHERE league_night_id = ? ORDER BY seq, player_id`), nightID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.CheckIn, len(rows))
	for i, r := range rows {
		out[i] = &model.CheckIn{LeagueNightID: r.LeagueNightID, PlayerID: r.PlayerID, DivisionID: r.DivisionID, Paid: r.Paid}
	}
	return out, nil
}

func (s *DBStorage) SetPaid(ctx context.Context, nightID, playerID string, paid bool) error {
	result, err := s.db.ExecContext(ctx, s.q(`UPDATE check_ins SET paid = ? WHERE league_night_id = ? AND player_id = ?`),
		paid, nightID, playerID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return he.NotFoundErrorf("player %s is not checked in to %s", playerID, nightID)
	}
	return nil
}

func (s *DBStorage) SaveDivision(ctx context.Context, d *model.Division) error {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO divisions (id, code, name, entry_fee, sort_order) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET code = excluded.code, name = excluded.name,
			entry_fee = excluded.entry_fee, sort_order = excluded.sort_order`),
		d.ID, d.Code, d.Name, d.EntryFee, d.SortOrder)
	return err
}

func (s *DBStorage) SavePlayer(ctx context.Context, p *model.Player) error {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO players (id, name, division_id) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, division_id = excluded.division_id`),
		p.ID, p.Name, p.DivisionID)
	return err
}

func (s *DBStorage) SaveCheckIn(ctx context.Context, c *model.CheckIn) error {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO check_ins (league_night_id, player_id, division_id, paid, seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM check_ins))
		ON CONFLICT (league_night_id, player_id) DO UPDATE SET division_id = excluded.division_id, paid = excluded.paid`),
		c.LeagueNightID, c.PlayerID, c.DivisionID, c.Paid)
	return err
}

const upsertShotSQL = `INSERT INTO shot_results
	(league_night_id, player_id, hole_id, round_id, position, made, bonus, entered_by, entered_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (league_night_id, player_id, hole_id, round_id, position)
	DO UPDATE SET made = excluded.made, bonus = excluded.bonus, entered_by = excluded.entered_by`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *DBStorage) upsertShot(ctx context.Context, ex execer, sh *model.ShotResult) error {
	_, err := ex.ExecContext(ctx, s.q(upsertShotSQL),
		sh.LeagueNightID, sh.PlayerID, sh.HoleID, sh.RoundID, string(sh.Position),
		sh.Made, sh.Bonus, sh.EnteredBy, sh.EnteredAt)
	return err
}

func (s *DBStorage) UpsertShot(ctx context.Context, sh *model.ShotResult) error {
	return s.upsertShot(ctx, s.db, sh)
}

func (s *DBStorage) UpsertShots(ctx context.Context, shots []*model.ShotResult) error {
	tx, err := dbutil.NewTx(ctx, s.db, nil)
	if err != nil {
		return err
	}
	defer tx.MaybeRollback()
	for _, sh := range shots {
		if err := s.upsertShot(ctx, tx, sh); err != nil {
			return fmt.Errorf("can't record shot for %s: %w", sh.PlayerID, err)
		}
	}
	return tx.Commit()
}

func (s *DBStorage) FetchShots(ctx context.Context, nightID string) ([]*model.ShotResult, error) {
	rows := []struct {
		LeagueNightID string    `db:"league_night_id"`
		PlayerID      string    `db:"player_id"`
		HoleID        string    `db:"hole_id"`
		RoundID       string    `db:"round_id"`
		Position      string    `db:"position"`
		Made          int       `db:"made"`
		Bonus         bool      `db:"bonus"`
		EnteredBy     string    `db:"entered_by"`
		EnteredAt     time.Time `db:"entered_at"`
	}{}
	err := s.db.SelectContext(ctx, &rows, s.q(`SELECT league_night_id, player_id, hole_id, round_id, position,
			made, bonus, entered_by, entered_at
		FROM shot_results WHERE league_night_id = ? ORDER BY entered_at, player_id`), nightID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.ShotResult, len(rows))
	for i, r := range rows {
		out[i] = &model.ShotResult{
			LeagueNightID: r.LeagueNightID,
			PlayerID:      r.PlayerID,
			HoleID:        r.HoleID,
			RoundID:       r.RoundID,
			Position:      model.Position(r.Position),
			Made:          r.Made,
			Bonus:         r.Bonus,
			EnteredBy:     r.EnteredBy,
			EnteredAt:     r.EnteredAt,
		}
	}
	// The database's timestamp ordering is close, but this is the one
	// everybody agrees on.
	scoring.OrderShots(out)
	return out, nil
}

type cardRow struct {
	ID            string `db:"id"`
	LeagueNightID string `db:"league_night_id"`
	Name          string `db:"name"`
	StartingHole  int    `db:"starting_hole"`
	ScorekeeperID string `db:"scorekeeper_id"`
}

type cardPlayerRow struct {
	CardID    string `db:"card_id"`
	PlayerID  string `db:"player_id"`
	SortOrder int    `db:"sort_order"`
}

func (s *DBStorage) FetchCards(ctx context.Context, nightID string) ([]*model.Card, error) {
	cards := []cardRow{}
	err := s.db.SelectContext(ctx, &cards, s.q(`SELECT id, league_night_id, name, starting_hole, scorekeeper_id
		FROM cards WHERE league_night_id = ? ORDER BY starting_hole, name`), nightID)
	if err != nil {
		return nil, err
	}
	players := []cardPlayerRow{}
	err = s.db.SelectContext(ctx, &players, s.q(`SELECT cp.card_id, cp.player_id, cp.sort_order
		FROM card_players cp JOIN cards c ON c.id = cp.card_id
		WHERE c.league_night_id = ? ORDER BY cp.card_id, cp.sort_order`), nightID)
	if err != nil {
		return nil, err
	}
	return assembleCards(cards, players), nil
}

func assembleCards(cards []cardRow, players []cardPlayerRow) []*model.Card {
	byID := map[string]*model.Card{}
	out := make([]*model.Card, len(cards))
	for i, r := range cards {
		c := &model.Card{
			ID:            r.ID,
			LeagueNightID: r.LeagueNightID,
			Name:          r.Name,
			StartingHole:  r.StartingHole,
			ScorekeeperID: r.ScorekeeperID,
			Players:       []*model.CardPlayer{},
		}
		byID[r.ID] = c
		out[i] = c
	}
	for _, p := range players {
		if c, ok := byID[p.CardID]; ok {
			c.Players = append(c.Players, &model.CardPlayer{PlayerID: p.PlayerID, SortOrder: p.SortOrder})
		}
	}
	return out
}

func (s *DBStorage) FetchCard(ctx context.Context, id string) (*model.Card, error) {
	card := cardRow{}
	err := s.db.GetContext(ctx, &card, s.q(`SELECT id, league_night_id, name, starting_hole, scorekeeper_id
		FROM cards WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, he.NotFoundErrorf("no such card %s", id)
	} else if err != nil {
		return nil, err
	}
	players := []cardPlayerRow{}
	err = s.db.SelectContext(ctx, &players, s.q(`SELECT card_id, player_id, sort_order
		FROM card_players WHERE card_id = ? ORDER BY sort_order`), id)
	if err != nil {
		return nil, err
	}
	return assembleCards([]cardRow{card}, players)[0], nil
}

func (s *DBStorage) ReplaceCards(ctx context.Context, nightID string, cards []*model.Card) error {
	tx, err := dbutil.NewTx(ctx, s.db, nil)
	if err != nil {
		return err
	}
	defer tx.MaybeRollback()

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM card_players WHERE card_id IN
		(SELECT id FROM cards WHERE league_night_id = ?)`), nightID); err != nil {
		return fmt.Errorf("can't clear card players: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM cards WHERE league_night_id = ?`), nightID); err != nil {
		return fmt.Errorf("can't clear cards: %w", err)
	}
	for _, c := range cards {
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO cards (id, league_night_id, name, starting_hole, scorekeeper_id)
			VALUES (?, ?, ?, ?, ?)`), c.ID, nightID, c.Name, c.StartingHole, c.ScorekeeperID); err != nil {
			return fmt.Errorf("can't insert %s: %w", c.Name, err)
		}
		for _, cp := range c.Players {
			if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO card_players (card_id, player_id, sort_order)
				VALUES (?, ?, ?)`), c.ID, cp.PlayerID, cp.SortOrder); err != nil {
				return fmt.Errorf("can't seat %s on %s: %w", cp.PlayerID, c.Name, err)
			}
		}
	}
	zap.S().Infof("replaced cards for night %s with %d cards", nightID, len(cards))
	return tx.Commit()
}

func (s *DBStorage) SaveCard(ctx context.Context, c *model.Card) error {
	tx, err := dbutil.NewTx(ctx, s.db, nil)
	if err != nil {
		return err
	}
	defer tx.MaybeRollback()

	result, err := tx.ExecContext(ctx, s.q(`UPDATE cards SET scorekeeper_id = ? WHERE id = ?`), c.ScorekeeperID, c.ID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return he.NotFoundErrorf("no such card %s", c.ID)
	}
	for _, cp := range c.Players {
		if _, err := tx.ExecContext(ctx, s.q(`UPDATE card_players SET sort_order = ? WHERE card_id = ? AND player_id = ?`),
			cp.SortOrder, c.ID, cp.PlayerID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type puttOffRow struct {
	ID            string    `db:"id"`
	LeagueNightID string    `db:"league_night_id"`
	DivisionID    string    `db:"division_id"`
	CurrentRound  int       `db:"current_round"`
	Status        string    `db:"status"`
	WinnerID      string    `db:"winner_id"`
	CreatedAt     time.Time `db:"created_at"`
}

type participantRow struct {
	PuttOffID string `db:"putt_off_id"`
	PlayerID  string `db:"player_id"`
	Round     int    `db:"round"`
	Made      int    `db:"made"`
	Bonus     bool   `db:"bonus"`
}

const puttOffColumns = `id, league_night_id, division_id, current_round, status, winner_id, created_at`

func (s *DBStorage) CreatePuttOff(ctx context.Context, p *model.PuttOff) error {
	tx, err := dbutil.NewTx(ctx, s.db, nil)
	if err != nil {
		return err
	}
	defer tx.MaybeRollback()
	if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO putt_offs (`+puttOffColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.LeagueNightID, p.DivisionID, p.CurrentRound, string(p.Status), p.WinnerID, p.CreatedAt); err != nil {
		return err
	}
	if err := s.upsertParticipants(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *DBStorage) upsertParticipants(ctx context.Context, ex execer, p *model.PuttOff) error {
	for i, pp := range p.Participants {
		if _, err := ex.ExecContext(ctx, s.q(`INSERT INTO putt_off_participants (putt_off_id, player_id, round, made, bonus, seq)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (putt_off_id, player_id, round) DO UPDATE SET made = excluded.made, bonus = excluded.bonus`),
			p.ID, pp.PlayerID, pp.Round, pp.Made, pp.Bonus, i); err != nil {
			return fmt.Errorf("can't save putt-off participant %s: %w", pp.PlayerID, err)
		}
	}
	return nil
}

func (s *DBStorage) SavePuttOff(ctx context.Context, p *model.PuttOff) error {
	tx, err := dbutil.NewTx(ctx, s.db, nil)
	if err != nil {
		return err
	}
	defer tx.MaybeRollback()
	result, err := tx.ExecContext(ctx, s.q(`UPDATE putt_offs SET current_round = ?, status = ?, winner_id = ? WHERE id = ?`),
		p.CurrentRound, string(p.Status), p.WinnerID, p.ID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return he.NotFoundErrorf("no such putt-off %s", p.ID)
	}
	if err := s.upsertParticipants(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *DBStorage) FetchPuttOff(ctx context.Context, id string) (*model.PuttOff, error) {
	row := puttOffRow{}
	err := s.db.GetContext(ctx, &row, s.q(`SELECT `+puttOffColumns+` FROM putt_offs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, he.NotFoundErrorf("no such putt-off %s", id)
	} else if err != nil {
		return nil, err
	}
	parts := []participantRow{}
	err = s.db.SelectContext(ctx, &parts, s.q(`SELECT putt_off_id, player_id, round, made, bonus
		FROM putt_off_participants WHERE putt_off_id = ? ORDER BY round, seq`), id)
	if err != nil {
		return nil, err
	}
	return assemblePuttOffs([]puttOffRow{row}, parts)[0], nil
}

func (s *DBStorage) FetchPuttOffs(ctx context.Context, nightID string) ([]*model.PuttOff, error) {
	rows := []puttOffRow{}
	err := s.db.SelectContext(ctx, &rows, s.q(`SELECT `+puttOffColumns+` FROM putt_offs
		WHERE league_night_id = ? ORDER BY created_at, id`), nightID)
	if err != nil {
		return nil, err
	}
	parts := []participantRow{}
	err = s.db.SelectContext(ctx, &parts, s.q(`SELECT pp.putt_off_id, pp.player_id, pp.round, pp.made, pp.bonus
		FROM putt_off_participants pp JOIN putt_offs p ON p.id = pp.putt_off_id
		WHERE p.league_night_id = ? ORDER BY pp.putt_off_id, pp.round, pp.seq`), nightID)
	if err != nil {
		return nil, err
	}
	return assemblePuttOffs(rows, parts), nil
}

func assemblePuttOffs(rows []puttOffRow, parts []participantRow) []*model.PuttOff {
	byID := map[string]*model.PuttOff{}
	out := make([]*model.PuttOff, len(rows))
	for i, r := range rows {
		p := &model.PuttOff{
			ID:            r.ID,
			LeagueNightID: r.LeagueNightID,
			DivisionID:    r.DivisionID,
			CurrentRound:  r.CurrentRound,
			Status:        model.PuttOffStatus(r.Status),
			WinnerID:      r.WinnerID,
			CreatedAt:     r.CreatedAt,
		}
		byID[r.ID] = p
		out[i] = p
	}
	for _, pp := range parts {
		if p, ok := byID[pp.PuttOffID]; ok {
			p.Participants = append(p.Participants, &model.PuttOffParticipant{
				PlayerID: pp.PlayerID,
				Round:    pp.Round,
				Made:     pp.Made,
				Bonus:    pp.Bonus,
			})
		}
	}
	return out
}
