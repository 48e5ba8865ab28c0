package reflection

import (
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/socratic-dialogue/internal/domain"
)

//go:embed fallback_questions.yaml
var defaultPoolYAML []byte

// Pool is a table of fallback reflection questions keyed by stage.
// Selection is round-robin per stage unless a random source is set.
type Pool struct {
	mu        sync.Mutex
	questions map[domain.Stage][]string
	next      map[domain.Stage]int
	rnd       *rand.Rand
}

type poolFile struct {
	Ground  []string `yaml:"ground"`
	Stretch []string `yaml:"stretch"`
	Deepen  []string `yaml:"deepen"`
}

// DefaultPool returns the pool shipped with the binary.
func DefaultPool() *Pool {
	p, err := ParsePool(defaultPoolYAML)
	if err != nil {
		panic(fmt.Sprintf("reflection: embedded fallback pool is invalid: %v", err))
	}
	return p
}

// LoadPool reads a YAML pool file. An empty path returns the default pool.
func LoadPool(path string) (*Pool, error) {
	if path == "" {
		return DefaultPool(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fallback pool %s: %w", path, err)
	}
	return ParsePool(data)
}

// ParsePool decodes a YAML pool. Every stage needs at least one question.
func ParsePool(data []byte) (*Pool, error) {
	var f poolFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding fallback pool: %w", err)
	}

	questions := map[domain.Stage][]string{
		domain.StageGround:  f.Ground,
		domain.StageStretch: f.Stretch,
		domain.StageDeepen:  f.Deepen,
	}
	for stage, qs := range questions {
		if len(qs) == 0 {
			return nil, fmt.Errorf("fallback pool has no questions for stage %q", stage)
		}
	}

	return &Pool{
		questions: questions,
		next:      make(map[domain.Stage]int),
	}, nil
}

// WithRandom switches selection to random picks from r.
func (p *Pool) WithRandom(r *rand.Rand) *Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rnd = r
	return p
}

// Questions returns a copy of the questions for a stage.
func (p *Pool) Questions(stage domain.Stage) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.questionsFor(stage)...)
}

// Pick selects a fallback question for the stage.
func (p *Pool) Pick(stage domain.Stage) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	qs := p.questionsFor(stage)
	if p.rnd != nil {
		return qs[p.rnd.Intn(len(qs))]
	}

	i := p.next[stage] % len(qs)
	p.next[stage] = i + 1
	return qs[i]
}

func (p *Pool) questionsFor(stage domain.Stage) []string {
	if qs, ok := p.questions[stage]; ok {
		return qs
	}
	return p.questions[domain.StageGround]
}
