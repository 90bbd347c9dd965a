package engine

import (
	"fmt"
	"math/rand"
)

// Word lists for memorable game names. The generated name doubles as the
// game id.
var adjectives = []string{
	"red", "blue", "green", "golden", "silver", "purple", "orange", "crimson",
	"azure", "jade", "coral", "amber", "ivory", "scarlet", "violet", "indigo",
	"rusty", "dusty", "misty", "stormy", "sunny", "cloudy", "frosty", "fiery",
	"swift", "quiet", "bold", "brave", "clever", "gentle", "mighty", "noble",
}

var nouns = []string{
	"dragon", "phoenix", "griffin", "unicorn", "tiger", "eagle", "falcon", "raven",
	"wolf", "bear", "lion", "panther", "cobra", "viper", "hawk", "owl",
	"storm", "thunder", "lightning", "blizzard", "tornado", "volcano", "glacier", "canyon",
	"castle", "tower", "fortress", "citadel", "palace", "temple", "shrine", "beacon",
}

var materials = []string{
	"velvet", "silk", "satin", "linen", "cotton", "leather", "suede", "denim",
	"marble", "granite", "obsidian", "crystal", "diamond", "ruby", "emerald", "sapphire",
	"oak", "maple", "cedar", "pine", "birch", "willow", "bamboo", "teak",
	"bronze", "copper", "iron", "steel", "titanium", "platinum", "gold", "silver",
}

// RandomName builds an adjective-noun-material name like "misty-falcon-oak".
func RandomName() string {
	return fmt.Sprintf("%s-%s-%s",
		adjectives[rand.Intn(len(adjectives))],
		nouns[rand.Intn(len(nouns))],
		materials[rand.Intn(len(materials))])
}
