package statemachine

import (
	"fmt"
	"strings"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor models.Actor       `json:"actor"`
}

// nonTerminal are the states a delivery code can still be redeemed from.
var nonTerminal = []models.OrderStatus{
	models.StatusAwaitingConfirmation,
	models.StatusConfirmed,
	models.StatusPreparing,
	models.StatusReady,
	models.StatusDispatched,
}

// validTransitions is the authoritative state machine definition
var validTransitions = func() []Transition {
	t := []Transition{
		// Restaurant answers a new order
		{From: models.StatusAwaitingConfirmation, To: models.StatusConfirmed, Actor: models.ActorRestaurant},
		{From: models.StatusAwaitingConfirmation, To: models.StatusRejected, Actor: models.ActorRestaurant},
		{From: models.StatusAwaitingConfirmation, To: models.StatusCancelled, Actor: models.ActorRestaurant},
		// Restaurant cancels after accepting
		{From: models.StatusConfirmed, To: models.StatusCancelled, Actor: models.ActorRestaurant},
		// Optional kitchen sub-states
		{From: models.StatusConfirmed, To: models.StatusPreparing, Actor: models.ActorRestaurant},
		{From: models.StatusPreparing, To: models.StatusReady, Actor: models.ActorRestaurant},
		// Order leaves the kitchen; sub-states are not required
		{From: models.StatusConfirmed, To: models.StatusDispatched, Actor: models.ActorRestaurant},
		{From: models.StatusPreparing, To: models.StatusDispatched, Actor: models.ActorRestaurant},
		{From: models.StatusReady, To: models.StatusDispatched, Actor: models.ActorRestaurant},
		// Sweeper demotes orders the restaurant never answered
		{From: models.StatusAwaitingConfirmation, To: models.StatusExpired, Actor: models.ActorSystem},
	}
	// Delivery confirmation by code
	for _, from := range nonTerminal {
		t = append(t,
			Transition{From: from, To: models.StatusDelivered, Actor: models.ActorCustomer},
			Transition{From: from, To: models.StatusDelivered, Actor: models.ActorCourier},
		)
	}
	return t
}()

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.Actor
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// Sources returns every state the actor may move an order to "to" from.
// The result is the status guard of the conditional update.
func Sources(to models.OrderStatus, actor models.Actor) []models.OrderStatus {
	var from []models.OrderStatus
	for _, t := range validTransitions {
		if t.To == to && t.Actor == actor {
			from = append(from, t.From)
		}
	}
	return from
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.OrderStatus, actor models.Actor) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("invalid transition: %s → %s is not allowed for actor '%s'. Valid transitions from %s are: %s",
		from, to, actor, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}
