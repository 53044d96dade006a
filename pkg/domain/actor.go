package domain

import (
	"encoding/json"
	"fmt"
)

// ActorKind discriminates who performed an action.
type ActorKind string

const (
	ActorAI    ActorKind = "AI"
	ActorHuman ActorKind = "HUMAN"
)

// Actor records provenance on entities and audit rows. It is a tagged
// value rather than a free-text string so call sites cannot invent a
// third kind, and so human actions always carry the acting user.
type Actor struct {
	Kind   ActorKind `json:"kind"`
	UserID string    `json:"user_id,omitempty"`
}

// AI is the engine acting on its own behalf.
func AI() Actor {
	return Actor{Kind: ActorAI}
}

// Human identifies a reviewer by user ID.
func Human(userID string) Actor {
	return Actor{Kind: ActorHuman, UserID: userID}
}

// IsHuman reports whether the actor is a human reviewer.
func (a Actor) IsHuman() bool {
	return a.Kind == ActorHuman
}

func (a Actor) String() string {
	if a.Kind == ActorHuman && a.UserID != "" {
		return fmt.Sprintf("HUMAN:%s", a.UserID)
	}
	return string(a.Kind)
}

// Validate rejects actors that are neither AI nor an identified human.
func (a Actor) Validate() error {
	switch a.Kind {
	case ActorAI:
		return nil
	case ActorHuman:
		if a.UserID == "" {
			return fmt.Errorf("human actor requires a user id")
		}
		return nil
	default:
		return fmt.Errorf("unrecognized actor kind %q", string(a.Kind))
	}
}

// UnmarshalJSON validates the kind on decode so stored rows cannot
// smuggle in unknown provenance.
func (a *Actor) UnmarshalJSON(data []byte) error {
	type alias Actor
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*a = Actor(decoded)
	return a.Validate()
}
