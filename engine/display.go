package engine

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minaorangina/canasta/deck"
	"github.com/minaorangina/canasta/protocol"
)

const (
	HelpText = `Commands:
  draw                   draw from the deck
  take                   take the discard pile
  stage <rank> <id>...   put cards from your hand towards a meld
  unstage <id>...        return staged cards to your hand
  commit <rank>          lay down the cards staged at a rank
  clear                  return every staged card to your hand
  discard <id>           throw a card and end your turn
  hand                   show your cards
  table                  show the table
  help                   show this text
  quit                   leave the game
`
	turnText     = "\n%s, it's your turn (%s phase)\n"
	gameOverText = "\nGame over! %s\n"
)

func SendText(w io.Writer, text string, a ...interface{}) {
	fmt.Fprintf(w, text, a...)
}

// TurnPrompt introduces the current player
func TurnPrompt(v protocol.GameView) string {
	name := v.CurrentPlayerID
	if v.CurrentPlayer < len(v.Seats) {
		name = v.Seats[v.CurrentPlayer].Name
	}
	return fmt.Sprintf(turnText, name, v.Phase)
}

// GameOverText names the winner, if there is one
func GameOverText(v protocol.GameView) string {
	if v.WinnerID == "" {
		return fmt.Sprintf(gameOverText, "The deck ran out.")
	}
	for _, s := range v.Seats {
		if s.PlayerID == v.WinnerID {
			return fmt.Sprintf(gameOverText, s.Name+" went out.")
		}
	}
	return fmt.Sprintf(gameOverText, v.WinnerID+" went out.")
}

// HandText lists the viewer's hand by rank, with the ids commands refer to
func HandText(v protocol.GameView) string {
	var b strings.Builder

	b.WriteString("In your hand 🤲\n")
	hand := make([]deck.Card, len(v.Hand))
	copy(hand, v.Hand)
	sort.Slice(hand, func(i, j int) bool {
		if hand[i].Rank != hand[j].Rank {
			return hand[i].Rank < hand[j].Rank
		}
		return hand[i].ID < hand[j].ID
	})
	for _, c := range hand {
		fmt.Fprintf(&b, "  [%3d] %s\n", c.ID, c)
	}

	if len(v.Staged) > 0 {
		ranks := make([]string, 0, len(v.Staged))
		for r := range v.Staged {
			ranks = append(ranks, r)
		}
		sort.Strings(ranks)

		b.WriteString("Staged\n")
		for _, r := range ranks {
			fmt.Fprintf(&b, "  %s: %s\n", r, cardList(v.Staged[r]))
		}
	}

	return b.String()
}

// TableText shows the piles and every seat's melds
func TableText(v protocol.GameView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Deck: %d cards\n", v.DeckCount)
	if v.DiscardTop != nil {
		fmt.Fprintf(&b, "Discard pile: %s on top, %d cards", v.DiscardTop, v.DiscardSize)
	} else {
		b.WriteString("Discard pile: empty")
	}
	if v.DiscardFrozen {
		b.WriteString(" 🧊 frozen")
	}
	b.WriteString("\n")

	for _, s := range v.Seats {
		marker := " "
		if s.Seat == v.CurrentPlayer {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s: %d cards, %d canasta(s)", marker, s.Name, s.HandSize, s.Canastas)
		if len(s.RedThrees) > 0 {
			fmt.Fprintf(&b, ", %d red three(s)", len(s.RedThrees))
		}
		b.WriteString("\n")
		for _, m := range s.Melds {
			kind := "mixed"
			if m.Natural {
				kind = "natural"
			}
			if m.Complete {
				kind += " canasta"
			}
			fmt.Fprintf(&b, "    %s x%d (%s): %s\n", m.Rank, len(m.Naturals)+len(m.Wilds), kind,
				cardList(append(append([]deck.Card{}, m.Naturals...), m.Wilds...)))
		}
	}

	return b.String()
}

// RenderView is the whole table followed by the viewer's own cards
func RenderView(v protocol.GameView) string {
	return TableText(v) + "\n" + HandText(v)
}

func cardList(cards []deck.Card) string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}
