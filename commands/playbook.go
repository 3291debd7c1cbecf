package commands

import (
	"fmt"
	"io"
	"math"

	"github.com/nstehr/striker/model"
	"github.com/nstehr/striker/playbook"
	"github.com/nstehr/striker/printer"
	"github.com/spf13/cobra"
)

var (
	scoresReferee string
	scoresHasBall bool
)

var playbookCmd = &cobra.Command{
	Use:   "playbook",
	Short: "Inspect and validate playbooks",
}

var playbookCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate and compile a playbook",
	Long: `Parse a playbook, compile every condition and score expression and
build each behavior once. Without a file the built-in playbook is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlaybookCheck,
}

var playbookListCmd = &cobra.Command{
	Use:   "list [file]",
	Short: "List the plays in a playbook",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pb, err := readPlaybook(args)
		if err != nil {
			return err
		}
		outputPlays(cmd.OutOrStdout(), pb)
		return nil
	},
}

var playbookScoresCmd = &cobra.Command{
	Use:   "scores [file]",
	Short: "Show how every play scores for a referee command",
	Long: `Evaluate each play's score against a synthetic world: the given
referee command, the ball at the center spot and three of our robots.

Examples:
  striker playbook scores --referee their_penalty
  striker playbook scores plays.yaml --referee playing --has-ball`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlaybookScores,
}

func init() {
	playbookScoresCmd.Flags().StringVarP(&scoresReferee, "referee", "r", string(model.RefPlaying), "referee command")
	playbookScoresCmd.Flags().BoolVar(&scoresHasBall, "has-ball", false, "one of our robots holds the ball")

	playbookCmd.AddCommand(playbookCheckCmd, playbookListCmd, playbookScoresCmd)
	rootCmd.AddCommand(playbookCmd)
}

func readPlaybook(args []string) (*playbook.Playbook, error) {
	var (
		pb  *playbook.Playbook
		err error
	)
	if len(args) == 0 {
		pb, err = playbook.Default()
	} else {
		pb, err = playbook.Load(args[0])
	}
	if err != nil {
		return nil, printer.Error("Invalid playbook", err.Error(), nil)
	}
	return pb, nil
}

func runPlaybookCheck(cmd *cobra.Command, args []string) error {
	pb, err := readPlaybook(args)
	if err != nil {
		return err
	}
	compiled, err := playbook.Compile(pb)
	if err != nil {
		return printer.Error("Playbook does not compile", err.Error(), nil)
	}

	goalie := "no goalie"
	if compiled.Goalie != nil {
		goalie = "goalie " + pb.Goalie.Name
	}
	printer.Success("%d plays, %s\n", len(compiled.Entries), goalie)
	return nil
}

func runPlaybookScores(cmd *cobra.Command, args []string) error {
	pb, err := readPlaybook(args)
	if err != nil {
		return err
	}
	compiled, err := playbook.Compile(pb)
	if err != nil {
		return printer.Error("Playbook does not compile", err.Error(), nil)
	}

	world := sampleWorld(model.Referee(scoresReferee), scoresHasBall).View()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-20s %-8s %s\n", "PLAY", "ENABLED", "SCORE")
	for _, e := range compiled.Entries {
		score, err := e.Descriptor.Score(world)
		fmt.Fprintf(out, "%-20s %-8t %s\n", e.Descriptor.Name(), e.Enabled, formatScore(score, err))
	}
	return nil
}

func outputPlays(w io.Writer, pb *playbook.Playbook) {
	fmt.Fprintf(w, "%-20s %-8s %-10s %-7s %s\n", "PLAY", "ENABLED", "CONTINUOUS", "STATES", "SCORE")
	for _, p := range pb.Plays {
		fmt.Fprintf(w, "%-20s %-8t %-10t %-7d %s\n", p.Name, p.IsEnabled(), p.Continuous, len(p.States), p.Score)
	}
	if pb.Goalie != nil {
		fmt.Fprintf(w, "\ngoalie: %s (%d states)\n", pb.Goalie.Name, len(pb.Goalie.States))
	}
}

func formatScore(score float64, err error) string {
	switch {
	case err != nil:
		return "error: " + err.Error()
	case math.IsInf(score, -1) || math.IsNaN(score):
		return "n/a"
	default:
		return fmt.Sprintf("%.2f", score)
	}
}

func sampleWorld(ref model.Referee, hasBall bool) model.Snapshot {
	field := model.DefaultField()
	center := field.CenterPoint()
	return model.Snapshot{
		Referee: ref,
		Ball:    model.Ball{Pos: center, Visible: true},
		Ours: []model.RobotState{
			{ID: 0, Pos: model.Point{X: 0, Y: 0.2}, Visible: true},
			{ID: 1, Pos: model.Point{X: -1, Y: center.Y - 1}, Visible: true},
			{ID: 2, Pos: center, Visible: true, HasBall: hasBall},
		},
		Field: &field,
	}
}
