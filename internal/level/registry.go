package level

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"go.uber.org/zap"

	"github.com/eliteGoblin/synapsis/internal/domain"
)

//go:embed levels/*.yaml
var builtin embed.FS

// FallbackLevel is loaded when a requested level does not exist.
const FallbackLevel = 1

// Registry holds every known level table keyed by number.
type Registry struct {
	levels map[int]domain.Level
}

// NewRegistry loads the built-in level tables.
func NewRegistry() (*Registry, error) {
	r := &Registry{levels: make(map[int]domain.Level)}

	files, err := fs.Glob(builtin, "levels/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	for _, name := range files {
		data, err := builtin.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		def, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := r.Register(def.ToLevel()); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewRegistryWithLevels creates a registry with custom levels (for testing).
func NewRegistryWithLevels(levels ...domain.Level) *Registry {
	r := &Registry{levels: make(map[int]domain.Level)}
	for _, l := range levels {
		r.levels[l.Number] = l
	}
	return r
}

// Register adds a level. Numbers must be unique.
func (r *Registry) Register(l domain.Level) error {
	if _, dup := r.levels[l.Number]; dup {
		return fmt.Errorf("duplicate level number %d", l.Number)
	}
	r.levels[l.Number] = l
	return nil
}

// Get returns a level by number.
func (r *Registry) Get(n int) (domain.Level, bool) {
	l, ok := r.levels[n]
	return l, ok
}

// GetAll returns all levels ordered by number.
func (r *Registry) GetAll() []domain.Level {
	result := make([]domain.Level, 0, len(r.levels))
	for _, n := range r.List() {
		result = append(result, r.levels[n])
	}
	return result
}

// List returns all level numbers in order.
func (r *Registry) List() []int {
	nums := make([]int, 0, len(r.levels))
	for n := range r.levels {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Store adapts Registry to implement domain.LevelStore.
type Store struct {
	registry *Registry
	logger   *zap.Logger
}

// NewStore creates a LevelStore backed by the built-in levels.
func NewStore(logger *zap.Logger) (*Store, error) {
	r, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	return NewStoreWithRegistry(r, logger), nil
}

// NewStoreWithRegistry creates a store over an existing registry.
func NewStoreWithRegistry(r *Registry, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{registry: r, logger: logger}
}

func (s *Store) GetAll() []domain.Level {
	return s.registry.GetAll()
}

func (s *Store) GetByNumber(n int) (*domain.Level, error) {
	l, ok := s.registry.Get(n)
	if !ok {
		return nil, fmt.Errorf("level %d: %w", n, domain.ErrLevelNotFound)
	}
	return &l, nil
}

// Load returns level n. Unknown numbers fall back to level 1 with a
// warning.
func (s *Store) Load(n int) domain.Level {
	if l, ok := s.registry.Get(n); ok {
		return l
	}
	s.logger.Warn("level not found, falling back",
		zap.Int("requested", n),
		zap.Int("fallback", FallbackLevel))
	l, _ := s.registry.Get(FallbackLevel)
	return l
}

func (s *Store) List() []int {
	return s.registry.List()
}

// Ensure Store implements domain.LevelStore.
var _ domain.LevelStore = (*Store)(nil)
