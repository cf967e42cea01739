// Customer spawning builds random shoppers for the seed queue and for
// synthetic walk-ins once the queue is exhausted.
package customer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/talgya/storesim/internal/catalog"
	"github.com/talgya/storesim/internal/entropy"
)

// SpawnConfig controls random customer generation.
type SpawnConfig struct {
	MinMoney    float64 `yaml:"min_money"`
	MaxMoney    float64 `yaml:"max_money"`
	MinAttempts float64 `yaml:"min_attempts"`
	MaxAttempts float64 `yaml:"max_attempts"`
}

// DefaultSpawnConfig mirrors the console defaults: up to 500 in cash and up
// to 10 buy attempts.
func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		MinMoney:    1,
		MaxMoney:    500,
		MinAttempts: 1,
		MaxAttempts: 10,
	}
}

// Spawner creates customers with unique synthetic names.
type Spawner struct {
	cfg    SpawnConfig
	rng    *entropy.Source
	tags   []string
	nextID int
}

// NewSpawner creates a spawner drawing interests from tags. The wildcard tag
// is dropped: generated customers always have specific interests.
func NewSpawner(cfg SpawnConfig, tags []string, rng *entropy.Source) *Spawner {
	known := make([]string, 0, len(tags))
	for _, t := range tags {
		if key := catalog.NormalizeTag(t); key != "" && key != catalog.WildcardTag {
			known = append(known, key)
		}
	}
	return &Spawner{
		cfg:    cfg,
		rng:    rng,
		tags:   known,
		nextID: 1,
	}
}

// Spawn creates one random customer.
func (s *Spawner) Spawn() *Customer {
	id := s.nextID
	s.nextID++

	money := decimal.NewFromFloat(s.rng.Uniform(s.cfg.MinMoney, s.cfg.MaxMoney)).Round(2)
	attempts := s.rng.Uniform(s.cfg.MinAttempts, s.cfg.MaxAttempts)
	credit := s.rng.Chance(0.5)

	return New(s.generateName(id), s.randomTags(), money, attempts, credit)
}

// SpawnBatch creates n random customers.
func (s *Spawner) SpawnBatch(n int) []*Customer {
	out := make([]*Customer, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.Spawn())
	}
	return out
}

// randomTags picks a non-empty random subset of the known tags.
func (s *Spawner) randomTags() []string {
	if len(s.tags) == 0 {
		// Nothing specific to want; the engine sends such shoppers straight home.
		return []string{"none"}
	}

	pool := append([]string(nil), s.tags...)
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	n := s.rng.IntBetween(1, len(pool))
	return pool[:n]
}

// generateName combines a random first and last name with the serial, which
// keeps every generated name unique.
func (s *Spawner) generateName(id int) string {
	first := firstNames[s.rng.Intn(len(firstNames))]
	last := lastNames[s.rng.Intn(len(lastNames))]
	return fmt.Sprintf("%s %s #%d", first, last, id)
}

var firstNames = []string{
	"Aldric", "Astrid", "Bram", "Brenna", "Cedric", "Calla", "Doran",
	"Daria", "Erik", "Elara", "Finn", "Freya", "Gareth", "Greta",
	"Hugo", "Iris", "Jasper", "Juno", "Kira", "Leif", "Lena", "Magnus",
	"Mira", "Nils", "Nessa", "Oswin", "Petra", "Quinn", "Rowan", "Runa",
	"Thea", "Vera", "Wren", "Yara", "Zander",
}

var lastNames = []string{
	"Ashford", "Blackwood", "Carver", "Dunmore", "Ellery", "Fairbanks",
	"Greystone", "Hale", "Ironside", "Kestrel", "Larkin", "Merriweather",
	"Northcott", "Oakley", "Penrose", "Redfern", "Stirling", "Thorne",
	"Underhill", "Whitlock",
}
