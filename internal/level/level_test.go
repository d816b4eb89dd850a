package level

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/synapsis/internal/domain"
)

const minimalTable = `
number: 12
name: Test
start_energy: 50
time_limit: 45s
temporary_connections: true
temporary_duration: 5s
nodes:
  - {x: 0, y: 0, kind: start}
  - {x: 100, y: 0, kind: neutral}
  - {x: 200, y: 0, kind: finish}
links:
  - {a: 0, b: 1, kind: enhanced}
`

func TestParse(t *testing.T) {
	def, err := Parse([]byte(minimalTable))
	require.NoError(t, err)

	l := def.ToLevel()
	assert.Equal(t, 12, l.Number)
	assert.Equal(t, 45*time.Second, l.TimeLimit)
	assert.True(t, l.TemporaryConnections)
	assert.Equal(t, 5*time.Second, l.TemporaryDuration)
	require.Len(t, l.Nodes, 3)
	assert.Equal(t, domain.NodeFinish, l.Nodes[2].Kind)
	require.Len(t, l.Links, 1)
	assert.Equal(t, domain.LinkSpec{A: 0, B: 1, Kind: domain.ConnEnhanced}, l.Links[0])

	// Optional fields stay unset until the match applies defaults.
	assert.Zero(t, l.MaxConnectionLength)
	assert.Equal(t, domain.DefaultMaxConnectionLength, l.WithDefaults().MaxConnectionLength)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		table string
	}{
		{
			name:  "malformed yaml",
			table: "number: [1",
		},
		{
			name: "missing energy",
			table: `
number: 1
name: x
nodes:
  - {x: 0, y: 0, kind: start}
  - {x: 10, y: 0, kind: finish}
`,
		},
		{
			name: "unknown node kind",
			table: `
number: 1
name: x
start_energy: 10
nodes:
  - {x: 0, y: 0, kind: start}
  - {x: 10, y: 0, kind: router}
  - {x: 20, y: 0, kind: finish}
`,
		},
		{
			name: "off canvas",
			table: `
number: 1
name: x
start_energy: 10
nodes:
  - {x: 0, y: 0, kind: start}
  - {x: 1000, y: 0, kind: finish}
`,
		},
		{
			name: "two starts",
			table: `
number: 1
name: x
start_energy: 10
nodes:
  - {x: 0, y: 0, kind: start}
  - {x: 10, y: 0, kind: start}
  - {x: 20, y: 0, kind: finish}
`,
		},
		{
			name: "no finish",
			table: `
number: 1
name: x
start_energy: 10
nodes:
  - {x: 0, y: 0, kind: start}
  - {x: 10, y: 0, kind: neutral}
`,
		},
		{
			name: "link to missing node",
			table: `
number: 1
name: x
start_energy: 10
nodes:
  - {x: 0, y: 0, kind: start}
  - {x: 10, y: 0, kind: finish}
links:
  - {a: 0, b: 5}
`,
		},
		{
			name: "self link",
			table: `
number: 1
name: x
start_energy: 10
nodes:
  - {x: 0, y: 0, kind: start}
  - {x: 10, y: 0, kind: finish}
links:
  - {a: 1, b: 1}
`,
		},
		{
			name: "bonus out of range",
			table: `
number: 1
name: x
start_energy: 10
time_bonus: 1.5
nodes:
  - {x: 0, y: 0, kind: start}
  - {x: 10, y: 0, kind: finish}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.table))
			assert.Error(t, err)
		})
	}
}

func TestNewRegistry_BuiltinLevels(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, r.List())

	for _, l := range r.GetAll() {
		assert.NotEmpty(t, l.Name, "level %d", l.Number)
		assert.Positive(t, l.StartEnergy, "level %d", l.Number)
		assert.GreaterOrEqual(t, len(l.Nodes), 4, "level %d", l.Number)
	}

	l7, ok := r.Get(7)
	require.True(t, ok)
	assert.True(t, l7.TemporaryConnections)
	assert.Equal(t, 8*time.Second, l7.TemporaryDuration)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := NewRegistryWithLevels(domain.Level{Number: 1})

	assert.Error(t, r.Register(domain.Level{Number: 1}))
	assert.NoError(t, r.Register(domain.Level{Number: 2}))
	assert.Equal(t, []int{1, 2}, r.List())
}

func TestStore(t *testing.T) {
	r := NewRegistryWithLevels(
		domain.Level{Number: 2, Name: "second"},
		domain.Level{Number: 1, Name: "first"},
	)
	s := NewStoreWithRegistry(r, zap.NewNop())

	all := s.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Name)

	l, err := s.GetByNumber(2)
	require.NoError(t, err)
	assert.Equal(t, "second", l.Name)

	_, err = s.GetByNumber(99)
	assert.True(t, errors.Is(err, domain.ErrLevelNotFound))

	assert.Equal(t, "second", s.Load(2).Name)
	assert.Equal(t, "first", s.Load(99).Name)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(nil)
	require.NoError(t, err)
	assert.Len(t, s.List(), 10)
	assert.Equal(t, 1, s.Load(0).Number)
}
