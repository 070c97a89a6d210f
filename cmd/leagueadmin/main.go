package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ts4z/puttleague/config"
)

func main() {
	config.Init()

	rootCmd := &cobra.Command{
		Short:         "Putting league administration tool",
		Use:           "leagueadmin",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogging()
		},
	}

	dbCmd := &cobra.Command{Use: "db", Short: "Database maintenance"}
	dbCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create tables (safe to repeat)",
		RunE:  initDB,
	})

	nightCmd := &cobra.Command{Use: "night", Short: "Manage league nights"}
	createNightCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a league night",
		RunE:  createNight,
	}
	createNightCmd.Flags().StringVar(&nightID, "id", "", "Night id (required)")
	createNightCmd.Flags().StringVar(&nightName, "name", "", "Display name (required)")
	createNightCmd.Flags().StringVar(&nightDate, "date", "", "Date, YYYY-MM-DD (default today)")
	createNightCmd.Flags().IntVar(&nightHoles, "holes", 9, "Number of holes")
	createNightCmd.Flags().StringVar(&nightMode, "mode", "SPLIT", "Tie-break mode: SPLIT or PUTT_OFF")
	nightCmd.AddCommand(createNightCmd, &cobra.Command{
		Use:   "list",
		Short: "List league nights",
		RunE:  listNights,
	})

	divisionCmd := &cobra.Command{Use: "division", Short: "Manage divisions"}
	addDivisionCmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a division",
		RunE:  addDivision,
	}
	addDivisionCmd.Flags().StringVar(&divisionID, "id", "", "Division id (default: the code)")
	addDivisionCmd.Flags().StringVar(&divisionCode, "code", "", "Short code, e.g. AAA (required)")
	addDivisionCmd.Flags().StringVar(&divisionName, "name", "", "Display name")
	addDivisionCmd.Flags().Int64Var(&divisionFee, "fee", 0, "Entry fee in whole currency units")
	addDivisionCmd.Flags().IntVar(&divisionSort, "sort", 0, "Display order")
	divisionCmd.AddCommand(addDivisionCmd)

	playerCmd := &cobra.Command{Use: "player", Short: "Manage players"}
	addPlayerCmd := &cobra.Command{
		Use:   "add [id] [name] [division-id]",
		Short: "Add or update a player",
		Args:  cobra.ExactArgs(3),
		RunE:  addPlayer,
	}
	playerCmd.AddCommand(addPlayerCmd)

	checkinCmd := &cobra.Command{Use: "checkin", Short: "Manage check-ins"}
	addCheckinCmd := &cobra.Command{
		Use:   "add [night] [player]",
		Short: "Check a player in",
		Args:  cobra.ExactArgs(2),
		RunE:  addCheckIn,
	}
	addCheckinCmd.Flags().BoolVar(&checkinPaid, "paid", false, "Player has paid the entry fee")
	addCheckinCmd.Flags().StringVar(&checkinDivision, "division", "", "Play in this division tonight (default: roster division)")
	paidCmd := &cobra.Command{
		Use:   "paid [night] [player]",
		Short: "Mark a check-in paid",
		Args:  cobra.ExactArgs(2),
		RunE:  setPaid,
	}
	paidCmd.Flags().BoolVar(&checkinUnpaid, "unpaid", false, "Mark unpaid instead")
	checkinCmd.AddCommand(addCheckinCmd, paidCmd, &cobra.Command{
		Use:   "list [night]",
		Short: "List check-ins",
		Args:  cobra.ExactArgs(1),
		RunE:  listCheckIns,
	})

	scoreCmd := &cobra.Command{Use: "score", Short: "Enter scores"}
	recordCmd := &cobra.Command{
		Use:   "record [night] [player] [hole] [round] [SHORT|LONG] [made]",
		Short: "Record one station's result",
		Args:  cobra.ExactArgs(6),
		RunE:  recordShot,
	}
	recordCmd.Flags().BoolVar(&shotBonus, "bonus", false, "Bonus earned (only with 3 made)")
	recordCmd.Flags().StringVar(&shotEnteredBy, "by", "", "Who entered the score")
	scoreCmd.AddCommand(recordCmd)

	totalsCmd := &cobra.Command{
		Use:   "totals [night]",
		Short: "Show the leaderboard",
		Args:  cobra.ExactArgs(1),
		RunE:  showTotals,
	}
	payoutsCmd := &cobra.Command{
		Use:   "payouts [night]",
		Short: "Show the payout sheet",
		Args:  cobra.ExactArgs(1),
		RunE:  showPayouts,
	}
	totalsCmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV")
	payoutsCmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV")
	tiesCmd := &cobra.Command{
		Use:   "ties [night]",
		Short: "Show first-place ties",
		Args:  cobra.ExactArgs(1),
		RunE:  showTies,
	}

	puttoffCmd := &cobra.Command{Use: "puttoff", Short: "Run sudden-death putt-offs"}
	puttoffCmd.AddCommand(
		&cobra.Command{
			Use:   "start [night] [division] [player...]",
			Short: "Start a putt-off; with no players, use the current tie",
			Args:  cobra.MinimumNArgs(2),
			RunE:  startPuttOff,
		},
		&cobra.Command{
			Use:   "round [puttoff] [player=made...]",
			Short: "Record a round",
			Args:  cobra.MinimumNArgs(2),
			RunE:  recordPuttOffRound,
		},
		&cobra.Command{
			Use:   "abandon [puttoff]",
			Short: "Give up; the division splits",
			Args:  cobra.ExactArgs(1),
			RunE:  abandonPuttOff,
		},
		&cobra.Command{
			Use:   "list [night]",
			Short: "List putt-offs",
			Args:  cobra.ExactArgs(1),
			RunE:  listPuttOffs,
		},
	)

	cardsCmd := &cobra.Command{Use: "cards", Short: "Manage cards"}
	generateCmd := &cobra.Command{
		Use:   "generate [night]",
		Short: "Deal checked-in players onto cards, replacing existing cards",
		Args:  cobra.ExactArgs(1),
		RunE:  generateCards,
	}
	generateCmd.Flags().IntVar(&cardsMin, "min", 0, "Minimum players per card (default from config)")
	generateCmd.Flags().BoolVar(&cardsNoShuffle, "no-shuffle", false, "Keep check-in order")
	generateCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Don't ask before replacing cards")
	scorekeeperCmd := &cobra.Command{
		Use:   "scorekeeper [card] [player]",
		Short: "Set a card's scorekeeper",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  setScorekeeper,
	}
	scorekeeperCmd.Flags().BoolVar(&scorekeeperRandom, "random", false, "Pick one at random")
	scorekeeperCmd.Flags().BoolVar(&scorekeeperClear, "clear", false, "Clear the scorekeeper")
	cardsCmd.AddCommand(generateCmd, scorekeeperCmd, &cobra.Command{
		Use:   "list [night]",
		Short: "List cards",
		Args:  cobra.ExactArgs(1),
		RunE:  listCards,
	})

	rotationCmd := &cobra.Command{
		Use:   "rotation",
		Short: "Show which hole a station is on",
		RunE:  showRotation,
	}
	rotationCmd.Flags().IntVar(&rotationStation, "station", 0, "Station index, 0-based")
	rotationCmd.Flags().IntVar(&rotationRound, "round", 1, "Round number")
	rotationCmd.Flags().IntVar(&rotationHoles, "holes", 9, "Number of holes")

	listenCmd := &cobra.Command{
		Use:   "listen [night]",
		Short: "Wait for the night to change and print the event",
		Args:  cobra.ExactArgs(1),
		RunE:  listen,
	}
	listenCmd.Flags().Int64Var(&listenVersion, "version", -1, "Version already seen (default: current)")
	listenCmd.Flags().StringVar(&listenTimeout, "timeout", "", "How long to wait, e.g. 90s or 1h (default from config)")

	rootCmd.AddCommand(dbCmd, nightCmd, divisionCmd, playerCmd, checkinCmd, scoreCmd,
		totalsCmd, payoutsCmd, tiesCmd, puttoffCmd, cardsCmd, rotationCmd, listenCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
