package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/minaorangina/canasta/deck"
	"github.com/minaorangina/canasta/engine"
	"github.com/minaorangina/canasta/internal/logging"
	"github.com/minaorangina/canasta/protocol"
	"go.uber.org/zap"
)

var errQuit = errors.New("quit")

type cliOpts struct {
	players  int
	canastas int
	seed     uint64
	logLevel string
}

func parseFlags(args []string) (cliOpts, error) {
	var opts cliOpts
	fs := flag.NewFlagSet("canasta", flag.ContinueOnError)
	fs.IntVar(&opts.players, "players", 2, "number of players sharing this terminal (2-6)")
	fs.IntVar(&opts.canastas, "canastas", 1, "canastas needed to go out")
	fs.Uint64Var(&opts.seed, "seed", 0, "shuffle seed, 0 for a random deal")
	fs.StringVar(&opts.logLevel, "log-level", "error", "engine log level")
	if err := fs.Parse(args); err != nil {
		return cliOpts{}, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	logger, err := logging.New(opts.logLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(os.Stdin, os.Stdout, opts, logger); err != nil {
		logger.Error("game ended", zap.Error(err))
		os.Exit(1)
	}
}

// run plays a hot-seat game: every player shares the same terminal and
// commands always act for whoever's turn it is
func run(in io.Reader, out io.Writer, opts cliOpts, logger *zap.Logger) error {
	var shuffler deck.Shuffler
	if opts.seed != 0 {
		shuffler = deck.NewShuffler(opts.seed)
	}

	ge, err := engine.NewGameEngine(engine.GameEngineOpts{
		GameID:          "cli",
		CreatorID:       playerID(0),
		CanastasToGoOut: opts.canastas,
		Shuffler:        shuffler,
		Logger:          logger,
	})
	if err != nil {
		return err
	}
	for i := 0; i < opts.players; i++ {
		if err := ge.AddPlayer(playerID(i), fmt.Sprintf("Player %d", i+1)); err != nil {
			return err
		}
	}
	if err := ge.Start(); err != nil {
		return err
	}

	engine.SendText(out, "Let's play Canasta! Type \"help\" for the commands.\n")

	scanner := bufio.NewScanner(in)
	lastTurn := ""
	for {
		view, err := currentView(ge)
		if err != nil {
			return err
		}
		if view.CurrentPlayerID != lastTurn {
			lastTurn = view.CurrentPlayerID
			engine.SendText(out, engine.TurnPrompt(view))
			engine.SendText(out, engine.RenderView(view))
		}

		engine.SendText(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		reply, err := handleLine(ge, view, scanner.Text())
		if errors.Is(err, errQuit) {
			engine.SendText(out, "Bye!\n")
			return nil
		}
		if err != nil {
			engine.SendText(out, "✗ %s\n", err)
		} else if reply.text != "" {
			engine.SendText(out, "%s\n", reply.text)
		}
		if reply.over {
			final, err := ge.View(view.CurrentPlayerID)
			if err != nil {
				return err
			}
			engine.SendText(out, engine.GameOverText(final))
			return nil
		}
	}
}

type reply struct {
	text string
	over bool
}

func handleLine(ge engine.GameEngine, view protocol.GameView, line string) (reply, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return reply{}, nil
	}

	msg := protocol.InboundMessage{PlayerID: view.CurrentPlayerID}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "help":
		return reply{text: engine.HelpText}, nil
	case "hand":
		return reply{text: engine.HandText(view)}, nil
	case "table":
		return reply{text: engine.TableText(view)}, nil
	case "quit", "exit":
		return reply{}, errQuit

	case "draw":
		msg.Command = protocol.Draw
	case "take":
		msg.Command = protocol.TakePile
	case "clear":
		msg.Command = protocol.ClearStaged
	case "stage":
		if len(args) < 2 {
			return reply{}, errors.New("usage: stage <rank> <id>...")
		}
		msg.Command = protocol.Stage
		msg.Rank = args[0]
		ids, err := parseIDs(args[1:])
		if err != nil {
			return reply{}, err
		}
		msg.Cards = ids
	case "unstage":
		ids, err := parseIDs(args)
		if err != nil {
			return reply{}, err
		}
		msg.Command = protocol.Unstage
		msg.Cards = ids
	case "commit":
		if len(args) != 1 {
			return reply{}, errors.New("usage: commit <rank>")
		}
		msg.Command = protocol.Commit
		msg.Rank = args[0]
	case "discard":
		if len(args) != 1 {
			return reply{}, errors.New("usage: discard <id>")
		}
		ids, err := parseIDs(args)
		if err != nil {
			return reply{}, err
		}
		msg.Command = protocol.Discard
		msg.Cards = ids

	default:
		return reply{}, fmt.Errorf("unknown command %q", fields[0])
	}

	out, err := ge.Do(msg)
	if err != nil {
		return reply{over: ge.PlayState() == engine.Finished}, err
	}

	r := reply{text: out.Message, over: out.Command == protocol.GameOver}
	if r.text == "" && out.Command != protocol.EndOfTurn && out.State != nil {
		r.text = engine.HandText(*out.State)
	}
	return r, nil
}

func parseIDs(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, errors.New("no card ids given")
	}
	ids := make([]int, len(args))
	for i, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%q is not a card id", a)
		}
		ids[i] = id
	}
	return ids, nil
}

// currentView is the table as the player whose turn it is sees it
func currentView(ge engine.GameEngine) (protocol.GameView, error) {
	view, err := ge.View(playerID(0))
	if err != nil {
		return protocol.GameView{}, err
	}
	return ge.View(view.CurrentPlayerID)
}

func playerID(seat int) string {
	return fmt.Sprintf("player-%d", seat+1)
}
