package internal

import (
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/minaorangina/canasta/deck"
)

// CardMaker hands out cards with fresh ids, well clear of the ids in a real deck
type CardMaker struct {
	next int
}

func NewCardMaker() *CardMaker {
	return &CardMaker{next: 1000}
}

// Card makes one card
func (m *CardMaker) Card(suit deck.Suit, rank deck.Rank) deck.Card {
	c := deck.NewCard(m.next, suit, rank)
	m.next++
	return c
}

// Many makes n black-suited cards of the same rank
func (m *CardMaker) Many(rank deck.Rank, n int) []deck.Card {
	cards := make([]deck.Card, n)
	for i := range cards {
		suit := deck.Clubs
		if i%2 == 1 {
			suit = deck.Spades
		}
		cards[i] = m.Card(suit, rank)
	}
	return cards
}

// Jokers makes n jokers
func (m *CardMaker) Jokers(n int) []deck.Card {
	cards := make([]deck.Card, n)
	for i := range cards {
		cards[i] = m.Card(deck.Hearts, deck.Joker)
	}
	return cards
}

// IDs lists the ids of the cards in order
func IDs(cards ...deck.Card) []int {
	ids := make([]int, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

// Concat joins groups of cards into one slice
func Concat(groups ...[]deck.Card) []deck.Card {
	out := []deck.Card{}
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// AssertSameCards checks both slices hold the same cards, ignoring order
func AssertSameCards(t *testing.T, got, want []deck.Card) {
	t.Helper()

	gotIDs, wantIDs := IDs(got...), IDs(want...)
	sort.Ints(gotIDs)
	sort.Ints(wantIDs)
	if !reflect.DeepEqual(gotIDs, wantIDs) {
		t.Errorf("\nGot cards: %s\nwant: %s", TypeToString(gotIDs), TypeToString(wantIDs))
	}
}

// TypeToString returns the string representation of a non-string type
func TypeToString(obj interface{}) string {
	return fmt.Sprintf("%+v", obj)
}

// AssertNoError checks for the non-existence of an error
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("Unexpected error: %s", err.Error())
	}
}

// AssertErrored checks for the existence of an error
func AssertErrored(t *testing.T, err error) {
	t.Helper()

	if err == nil {
		t.Error("Expected an error, but there wasn't one")
	}
}

// AssertTrue checks that a value is true
func AssertTrue(t *testing.T, val bool) {
	t.Helper()

	if !val {
		t.Errorf("Expected true, got false")
	}
}
