// Package scoring rates visitor conversations by the buying signals they contain.
package scoring

import (
	"strings"

	"github.com/okian/leadgate/internal/domain/model"
)

// Category is a named set of trigger phrases worth Weight points.
type Category struct {
	Name     string
	Keywords []string
	Weight   int
}

// Option applies a configuration option to a Table under construction.
type Option func(*Table)

// WithWeights overrides category weights by name. Unknown names and
// non-positive weights are ignored.
func WithWeights(weights map[string]int) Option {
	return func(t *Table) {
		for i := range t.categories {
			if w, ok := weights[t.categories[i].Name]; ok && w > 0 {
				t.categories[i].Weight = w
			}
		}
	}
}

// Table is an immutable category table. It is safe for concurrent use.
type Table struct {
	categories []Category
}

// NewTable builds a table from categories. Keywords are lower-cased and
// categories with a non-positive weight or no keywords are dropped.
func NewTable(categories []Category, opts ...Option) *Table {
	t := &Table{categories: make([]Category, 0, len(categories))}
	for _, c := range categories {
		kws := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kws = append(kws, k)
			}
		}
		t.categories = append(t.categories, Category{Name: c.Name, Keywords: kws, Weight: c.Weight})
	}

	for _, opt := range opts {
		opt(t)
	}

	kept := t.categories[:0]
	for _, c := range t.categories {
		if c.Weight > 0 && len(c.Keywords) > 0 {
			kept = append(kept, c)
		}
	}
	t.categories = kept
	return t
}

// DefaultTable returns the stock seven-category table.
func DefaultTable(opts ...Option) *Table {
	return NewTable(defaultCategories(), opts...)
}

// Categories returns a copy of the table's categories in evaluation order.
func (t *Table) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = Category{Name: c.Name, Keywords: append([]string(nil), c.Keywords...), Weight: c.Weight}
	}
	return out
}

// Score sums ScoreMessage over every visitor-authored message. Assistant turns
// and empty messages contribute nothing.
func (t *Table) Score(messages []model.Message) int {
	total := 0
	for _, m := range messages {
		if m.Role != model.RoleUser || m.Content == "" {
			continue
		}
		total += t.ScoreMessage(m.Content)
	}
	return total
}

// ScoreMessage scores a single piece of text. Each category counts at most
// once no matter how many of its keywords appear.
func (t *Table) ScoreMessage(content string) int {
	text := strings.ToLower(content)
	score := 0
	for _, c := range t.categories {
		for _, k := range c.Keywords {
			if strings.Contains(text, k) {
				score += c.Weight
				break
			}
		}
	}
	return score
}

func defaultCategories() []Category {
	return []Category{
		{Name: "pricing", Weight: 5, Keywords: []string{
			"cost", "price", "pricing", "how much", "fee", "$", "afford", "expensive", "cheap", "discount",
		}},
		{Name: "instructors", Weight: 8, Keywords: []string{
			"instructor", "coach", "lesson", "teacher", "pga", "who teaches",
		}},
		{Name: "signup", Weight: 15, Keywords: []string{
			"sign up", "signup", "register", "registration", "enroll", "join", "book", "reserve", "count me in",
		}},
		{Name: "scheduling", Weight: 8, Keywords: []string{
			"schedule", "hours", "what time", "dates", "weekend", "evening", "when", "open on",
		}},
		{Name: "comparison", Weight: 5, Keywords: []string{
			"compare", "versus", "difference between", "which is better", "worth it",
		}},
		{Name: "facilities", Weight: 5, Keywords: []string{
			"simulator", "launch monitor", "facility", "equipment", "indoor", "practice",
		}},
		{Name: "urgency", Weight: 10, Keywords: []string{
			"spots left", "limited", "filling up", "still available", "asap", "soon", "today",
		}},
	}
}
