package synth

import (
	"github.com/mcoot/playerregistry/internal/dependencies/random"
)

// Adjectives and Nouns make up the 100 possible synthesized usernames
var (
	Adjectives = []string{
		"Swift", "Brave", "Mighty", "Clever", "Fierce", "Silent", "Bold", "Quick", "Wise", "Strong",
	}
	Nouns = []string{
		"Warrior", "Mage", "Knight", "Rogue", "Archer", "Paladin", "Wizard", "Hunter", "Ninja", "Samurai",
	}
)

// Synthesizer produces usernames for demo players
type Synthesizer interface {
	Synthesize() string
}

// RandomSynthesizer picks an adjective and a noun independently and uniformly
type RandomSynthesizer struct {
	random random.Random
}

// New creates a RandomSynthesizer
func New(rnd random.Random) *RandomSynthesizer {
	return &RandomSynthesizer{random: rnd}
}

// Ensure RandomSynthesizer implements Synthesizer
var _ Synthesizer = (*RandomSynthesizer)(nil)

// Synthesize returns e.g. "SwiftNinja". Repeats across calls are expected.
func (s *RandomSynthesizer) Synthesize() string {
	adjective := Adjectives[s.random.Intn(len(Adjectives))]
	noun := Nouns[s.random.Intn(len(Nouns))]
	return adjective + noun
}
