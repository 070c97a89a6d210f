package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
	"maze.io/x/duration"

	"github.com/ts4z/puttleague/config"
	"github.com/ts4z/puttleague/csvexport"
	"github.com/ts4z/puttleague/dbutil"
	"github.com/ts4z/puttleague/he"
	"github.com/ts4z/puttleague/league"
	"github.com/ts4z/puttleague/logging"
	"github.com/ts4z/puttleague/model"
	"github.com/ts4z/puttleague/notify"
	"github.com/ts4z/puttleague/puttoff"
	"github.com/ts4z/puttleague/scoring"
	"github.com/ts4z/puttleague/state"
	"github.com/ts4z/puttleague/textutil"
	"github.com/ts4z/puttleague/ts"
)

const pollInterval = time.Second

var (
	clock = ts.NewRealClock()

	nightID    string
	nightName  string
	nightDate  string
	nightHoles int
	nightMode  string

	divisionID   string
	divisionCode string
	divisionName string
	divisionFee  int64
	divisionSort int

	checkinPaid     bool
	checkinUnpaid   bool
	checkinDivision string

	shotBonus     bool
	shotEnteredBy string

	cardsMin          int
	cardsNoShuffle    bool
	assumeYes         bool
	scorekeeperRandom bool
	scorekeeperClear  bool

	rotationStation int
	rotationRound   int
	rotationHoles   int

	listenVersion int64
	listenTimeout string

	asCSV bool
)

func initLogging() error {
	_, err := logging.Init("leagueadmin", config.Env())
	return err
}

// session is a manager over a freshly opened database.  Events go to the
// configured external sinks; a running leagued hears about them through
// the database.
type session struct {
	storage *state.DBStorage
	mgr     *league.Manager
	closer  func()
}

func (s *session) Close() {
	s.closer()
	s.storage.Close()
}

func newSession(ctx context.Context) (*session, error) {
	db, err := dbutil.Connect()
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	storage := state.NewDBStorage(db)
	n, closer, err := notify.Build(ctx, notify.Options{
		Kind:         config.Notifier(),
		RedisAddr:    config.RedisAddr(),
		RedisChannel: config.RedisChannel(),
		KafkaBrokers: config.KafkaBrokers(),
		KafkaTopic:   config.KafkaTopic(),
	})
	if err != nil {
		storage.Close()
		return nil, err
	}
	mgr := league.NewManager(storage, notify.Logged{Next: n}, clock, league.Config{
		ProtectedDivision: config.ProtectedDivision(),
	})
	return &session{storage: storage, mgr: mgr, closer: closer}, nil
}

// withSession runs f against a new session and closes it after.
func withSession(f func(ctx context.Context, s *session, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		return f(ctx, s, args)
	}
}

func tab() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
}

// confirm asks on the terminal.  Without a terminal the answer is no,
// unless --yes was given.
func confirm(prompt string) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if !term.IsTerminal(int(syscall.Stdin)) {
		return false, fmt.Errorf("%s: stdin is not a terminal; pass --yes", prompt)
	}
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

var initDB = withSession(func(ctx context.Context, s *session, args []string) error {
	if err := s.storage.InitSchema(ctx); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	fmt.Println("Schema ready.")
	return nil
})

var createNight = withSession(func(ctx context.Context, s *session, args []string) error {
	mode, err := model.ParseTieBreakMode(nightMode)
	if err != nil {
		return err
	}
	date := clock.Now()
	if nightDate != "" {
		if date, err = time.Parse(time.DateOnly, nightDate); err != nil {
			return fmt.Errorf("bad date %q: %w", nightDate, err)
		}
	}
	n := &model.LeagueNight{
		ID:           nightID,
		Name:         nightName,
		Date:         date,
		TieBreakMode: mode,
		TotalHoles:   nightHoles,
	}
	if err := s.mgr.CreateNight(ctx, n); err != nil {
		return fmt.Errorf("creating night: %w", err)
	}
	fmt.Printf("Night %q created.\n", n.ID)
	return nil
})

var listNights = withSession(func(ctx context.Context, s *session, args []string) error {
	nights, err := s.mgr.Nights(ctx)
	if err != nil {
		return err
	}
	w := tab()
	fmt.Fprintf(w, "id\tname\tdate\tholes\tmode\tversion\n")
	for _, n := range nights {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\n", n.ID, n.Name, n.Date.Format(time.DateOnly), n.TotalHoles, n.TieBreakMode, n.Version)
	}
	return w.Flush()
})

var addDivision = withSession(func(ctx context.Context, s *session, args []string) error {
	if divisionCode == "" {
		return he.ValidationErrorf("--code is required")
	}
	id := divisionID
	if id == "" {
		id = divisionCode
	}
	name := divisionName
	if name == "" {
		name = divisionCode
	}
	d := &model.Division{ID: id, Code: divisionCode, Name: name, EntryFee: divisionFee, SortOrder: divisionSort}
	if err := s.mgr.SaveDivision(ctx, d); err != nil {
		return fmt.Errorf("saving division: %w", err)
	}
	fmt.Printf("Division %s (%s) saved, entry %s.\n", d.Code, d.ID, textutil.FormatMoney(d.EntryFee))
	return nil
})

var addPlayer = withSession(func(ctx context.Context, s *session, args []string) error {
	p := &model.Player{ID: args[0], Name: args[1], DivisionID: args[2]}
	if err := s.mgr.SavePlayer(ctx, p); err != nil {
		return fmt.Errorf("saving player: %w", err)
	}
	fmt.Printf("Player %q saved.\n", p.ID)
	return nil
})

var addCheckIn = withSession(func(ctx context.Context, s *session, args []string) error {
	c := &model.CheckIn{LeagueNightID: args[0], PlayerID: args[1], DivisionID: checkinDivision, Paid: checkinPaid}
	if err := s.mgr.CheckIn(ctx, c); err != nil {
		return fmt.Errorf("checking in %s: %w", c.PlayerID, err)
	}
	fmt.Printf("%s checked in to %s (paid: %v).\n", c.PlayerID, c.LeagueNightID, c.Paid)
	return nil
})

var setPaid = withSession(func(ctx context.Context, s *session, args []string) error {
	if err := s.mgr.SetPaid(ctx, args[0], args[1], !checkinUnpaid); err != nil {
		return fmt.Errorf("updating %s: %w", args[1], err)
	}
	fmt.Printf("%s paid: %v.\n", args[1], !checkinUnpaid)
	return nil
})

var listCheckIns = withSession(func(ctx context.Context, s *session, args []string) error {
	cis, err := s.mgr.CheckIns(ctx, args[0])
	if err != nil {
		return err
	}
	w := tab()
	fmt.Fprintf(w, "player\tdivision\tpaid\n")
	for _, c := range cis {
		fmt.Fprintf(w, "%s\t%s\t%v\n", c.PlayerID, c.DivisionID, c.Paid)
	}
	return w.Flush()
})

var recordShot = withSession(func(ctx context.Context, s *session, args []string) error {
	pos, err := model.ParsePosition(args[4])
	if err != nil {
		return err
	}
	made, err := strconv.Atoi(args[5])
	if err != nil {
		return he.ValidationErrorf("bad made count %q", args[5])
	}
	shot := &model.ShotResult{
		LeagueNightID: args[0],
		PlayerID:      args[1],
		HoleID:        args[2],
		RoundID:       args[3],
		Position:      pos,
		Made:          made,
		Bonus:         shotBonus,
		EnteredBy:     shotEnteredBy,
	}
	if err := s.mgr.RecordShot(ctx, shot); err != nil {
		return fmt.Errorf("recording shot: %w", err)
	}
	fmt.Printf("Recorded %d made for %s at %s/%s %s.\n", made, shot.PlayerID, shot.HoleID, shot.RoundID, pos)
	return nil
})

func printTotals(totals []*model.PlayerTotal) error {
	w := tab()
	fmt.Fprintf(w, "rank\tplayer\tdiv\tmade\tbonus\tshort\tlong\tscore\n")
	for i, t := range totals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			textutil.FormatPlace(i+1), t.PlayerName, t.DivisionCode,
			t.TotalMade, t.TotalBonus, t.ShortMade, t.LongMade, t.TotalScore)
	}
	return w.Flush()
}

var showTotals = withSession(func(ctx context.Context, s *session, args []string) error {
	totals, err := s.mgr.Totals(ctx, args[0])
	if err != nil {
		return err
	}
	if asCSV {
		return csvexport.WriteTotals(os.Stdout, totals)
	}
	return printTotals(totals)
})

func printDivisionPayout(d *model.DivisionPayout) error {
	fmt.Printf("%s %s: %d checked in, %d paid, pool %s, paying %s\n",
		d.DivisionCode, d.DivisionName, d.CheckedInCount, d.PaidCount,
		textutil.FormatMoney(d.Pool), textutil.Percentages(d.Percentages))
	w := tab()
	for _, e := range d.Entries {
		note := ""
		switch {
		case e.PendingPuttOff:
			note = "putt-off pending"
		case e.IsTied:
			note = "tied"
		}
		fmt.Fprintf(w, "  %s\t%s\t%d\t%s\t%s\n", textutil.FormatPlace(e.Place), e.PlayerName, e.TotalScore, textutil.FormatMoney(e.Payout), note)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if d.Withheld > 0 {
		fmt.Printf("  %s withheld until the putt-off ends\n", textutil.FormatMoney(d.Withheld))
	}
	return nil
}

var showPayouts = withSession(func(ctx context.Context, s *session, args []string) error {
	np, err := s.mgr.Payouts(ctx, args[0])
	if err != nil {
		return err
	}
	if asCSV {
		return csvexport.WritePayouts(os.Stdout, np.Divisions)
	}
	fmt.Printf("Payouts for %s (%s)\n\n", np.LeagueNightID, np.TieBreakMode)
	for _, d := range np.Divisions {
		if err := printDivisionPayout(d); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
})

var showTies = withSession(func(ctx context.Context, s *session, args []string) error {
	ties, err := s.mgr.DetectTies(ctx, args[0])
	if err != nil {
		return err
	}
	if len(ties) == 0 {
		fmt.Println("No ties for first.")
		return nil
	}
	for _, tg := range ties {
		names := []string{}
		for _, p := range tg.Players {
			names = append(names, fmt.Sprintf("%s (%s)", p.PlayerName, p.PlayerID))
		}
		fmt.Printf("%s (%s): %s tied at %d\n", tg.DivisionCode, tg.DivisionID, strings.Join(names, ", "), tg.Players[0].TotalScore)
	}
	return nil
})

func printPuttOff(p *model.PuttOff) {
	fmt.Printf("Putt-off %s, division %s: %s, round %d", p.ID, p.DivisionID, p.Status, p.CurrentRound)
	if p.WinnerID != "" {
		fmt.Printf(", won by %s", p.WinnerID)
	}
	fmt.Println()
	w := tab()
	for _, pp := range p.Participants {
		fmt.Fprintf(w, "  round %d\t%s\t%d\n", pp.Round, pp.PlayerID, pp.Made)
	}
	w.Flush()
}

var startPuttOff = withSession(func(ctx context.Context, s *session, args []string) error {
	p, err := s.mgr.StartPuttOff(ctx, args[0], args[1], args[2:])
	if err != nil {
		return fmt.Errorf("starting putt-off: %w", err)
	}
	printPuttOff(p)
	return nil
})

// parseScores reads player=made pairs.
func parseScores(args []string) ([]puttoff.Score, error) {
	scores := []puttoff.Score{}
	for _, a := range args {
		player, madeStr, ok := strings.Cut(a, "=")
		if !ok || player == "" {
			return nil, he.ValidationErrorf("want player=made, got %q", a)
		}
		made, err := strconv.Atoi(madeStr)
		if err != nil {
			return nil, he.ValidationErrorf("bad made count in %q", a)
		}
		scores = append(scores, puttoff.Score{PlayerID: player, Made: made})
	}
	return scores, nil
}

var recordPuttOffRound = withSession(func(ctx context.Context, s *session, args []string) error {
	scores, err := parseScores(args[1:])
	if err != nil {
		return err
	}
	p, outcome, err := s.mgr.RecordPuttOffRound(ctx, args[0], scores)
	if err != nil {
		return fmt.Errorf("recording round: %w", err)
	}
	if outcome.StillTied {
		fmt.Printf("Still tied: %s throw again in round %d.\n", strings.Join(outcome.TiedPlayerIDs, ", "), outcome.Round)
	} else {
		fmt.Printf("%s wins.\n", outcome.WinnerID)
	}
	printPuttOff(p)
	return nil
})

var abandonPuttOff = withSession(func(ctx context.Context, s *session, args []string) error {
	p, err := s.mgr.AbandonPuttOff(ctx, args[0])
	if err != nil {
		return fmt.Errorf("abandoning putt-off: %w", err)
	}
	printPuttOff(p)
	return nil
})

var listPuttOffs = withSession(func(ctx context.Context, s *session, args []string) error {
	pos, err := s.mgr.PuttOffs(ctx, args[0])
	if err != nil {
		return err
	}
	if len(pos) == 0 {
		fmt.Println("No putt-offs.")
	}
	for _, p := range pos {
		printPuttOff(p)
	}
	return nil
})

func printCards(cs []*model.Card) error {
	w := tab()
	fmt.Fprintf(w, "card\tname\thole\tscorekeeper\tplayers\n")
	for _, c := range cs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", c.ID, c.Name, c.StartingHole, c.ScorekeeperID, strings.Join(c.PlayerIDs(), ", "))
	}
	return w.Flush()
}

var generateCards = withSession(func(ctx context.Context, s *session, args []string) error {
	existing, err := s.mgr.Cards(ctx, args[0])
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		ok, err := confirm(fmt.Sprintf("Replace %d existing cards?", len(existing)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cards left alone.")
			return nil
		}
	}
	minSize := cardsMin
	if minSize <= 0 {
		minSize = config.MinPlayersPerCard()
	}
	built, plan, err := s.mgr.GenerateCards(ctx, args[0], league.GenerateOptions{
		MinPlayersPerCard: minSize,
		Shuffle:           config.ShuffleCards() && !cardsNoShuffle,
	})
	if err != nil {
		return fmt.Errorf("generating cards: %w", err)
	}
	fmt.Printf("%d cards (planned %d, max %d per card, %d protected)\n",
		len(built), plan.CardCount, plan.MaxCardSize, plan.ProtectedCards)
	return printCards(built)
})

var listCards = withSession(func(ctx context.Context, s *session, args []string) error {
	cs, err := s.mgr.Cards(ctx, args[0])
	if err != nil {
		return err
	}
	return printCards(cs)
})

var setScorekeeper = withSession(func(ctx context.Context, s *session, args []string) error {
	var c *model.Card
	var err error
	switch {
	case scorekeeperClear:
		c, err = s.mgr.ClearScorekeeper(ctx, args[0])
	case scorekeeperRandom:
		c, err = s.mgr.RandomScorekeeper(ctx, args[0])
	case len(args) == 2:
		c, err = s.mgr.AssignScorekeeper(ctx, args[0], args[1])
	default:
		return he.ValidationErrorf("name a player, or pass --random or --clear")
	}
	if err != nil {
		return fmt.Errorf("setting scorekeeper: %w", err)
	}
	return printCards([]*model.Card{c})
})

func showRotation(cmd *cobra.Command, args []string) error {
	if rotationHoles < 1 {
		return he.ValidationErrorf("--holes must be at least 1")
	}
	fmt.Printf("Station %d, round %d: hole %d of %d\n", rotationStation, rotationRound,
		scoring.StationHole(rotationStation, rotationRound, rotationHoles), rotationHoles)
	return nil
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return config.ListenTimeout(), nil
	}
	d, err := duration.ParseDuration(s)
	if err != nil {
		return 0, he.ValidationErrorf("bad timeout %q: %v", s, err)
	}
	return time.Duration(d), nil
}

// listen polls the night until its version moves, then prints the event
// a scoreboard would get.
func listen(cmd *cobra.Command, args []string) error {
	timeout, err := parseTimeout(listenTimeout)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	id := args[0]
	n, err := s.mgr.Night(ctx, id)
	if err != nil {
		return err
	}
	version := listenVersion
	if version < 0 {
		version = n.Version
	}
	zap.S().Debugf("listening for night %s past version %d", id, version)
	for n.Version == version {
		select {
		case <-ctx.Done():
			return fmt.Errorf("no change to night %s after %v", id, timeout)
		case <-clock.After(pollInterval):
		}
		if n, err = s.mgr.Night(ctx, id); err != nil {
			return err
		}
	}

	ev := &model.NightEvent{
		Type:          model.EventLeaderboardUpdated,
		LeagueNightID: id,
		Version:       n.Version,
		At:            clock.Now(),
	}
	if err := s.mgr.FillEvent(ctx, ev); err != nil {
		return err
	}
	b, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
