package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/viapip/pothos-todo-sub004/internal/engine"
)

// Generator produces plausible todo items with a deterministic sequence for
// a given seed, so repeated runs against a fresh engine are reproducible.
type Generator struct {
	rnd      *rand.Rand
	sequence int64
	now      func() time.Time
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewSource(seed)),
		now: func() time.Time { return time.Now().UTC() },
	}
}

var (
	seedVerbs = []string{"Buy", "Review", "Write", "Fix", "Call", "Schedule", "Prepare", "Clean", "Update", "Plan"}
	seedNouns = []string{
		"groceries", "the quarterly report", "meeting notes", "the leaky faucet",
		"the dentist", "a team sync", "the slide deck", "the garage",
		"project dependencies", "the weekend trip",
	}
	seedTags = []string{"home", "work", "errands", "health", "finance"}
)

func (g *Generator) NextTodo() engine.Todo {
	g.sequence++
	createdAt := g.now()

	todo := engine.Todo{
		ID:        fmt.Sprintf("seed-%020d", g.sequence),
		Title:     fmt.Sprintf("%s %s", pickOne(g.rnd, seedVerbs), pickOne(g.rnd, seedNouns)),
		Status:    g.pickStatus(),
		Priority:  g.pickPriority(),
		CreatedAt: createdAt,
	}
	if g.rnd.Intn(100) < 60 {
		due := createdAt.AddDate(0, 0, g.rnd.Intn(14)+1)
		todo.DueDate = due.Format("2006-01-02")
	}
	if g.rnd.Intn(100) < 40 {
		todo.Tags = []string{pickOne(g.rnd, seedTags)}
	}
	return todo
}

func (g *Generator) pickStatus() string {
	p := g.rnd.Intn(100)
	switch {
	case p < 55:
		return "pending"
	case p < 80:
		return "in_progress"
	default:
		return "completed"
	}
}

func (g *Generator) pickPriority() string {
	p := g.rnd.Intn(100)
	switch {
	case p < 30:
		return "high"
	case p < 75:
		return "medium"
	default:
		return "low"
	}
}

func pickOne(rnd *rand.Rand, values []string) string {
	return values[rnd.Intn(len(values))]
}
