package rules

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltlint/voltlint/pkg/schema"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	rule := NewServiceDisconnectRule()

	require.NoError(t, reg.Register(rule))
	assert.True(t, reg.Has(rule.ID()))
	assert.Equal(t, 1, reg.Count())

	got, err := reg.Get(rule.ID())
	require.NoError(t, err)
	assert.Same(t, rule, got)
}

func TestRegistry_DuplicateID(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewServiceDisconnectRule()))

	err := reg.Register(NewServiceDisconnectRule())
	require.Error(t, err)
	var ee *schema.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, schema.ErrCodeConflict, ee.Code)
}

func TestRegistry_NilAndEmptyID(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(nil)
	require.Error(t, err)
	var ee *schema.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, schema.ErrCodeValidation, ee.Code)
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("nope")
	require.Error(t, err)
	var ee *schema.EngineError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, schema.ErrCodeNotFound, ee.Code)
}

func TestRegistry_AllPreservesRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewWireColorRule()))
	require.NoError(t, reg.Register(NewBus120Rule()))
	require.NoError(t, reg.Register(NewLabelingRule()))

	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, "connection.wire_color", all[0].ID())
	assert.Equal(t, "system.bus_120_percent", all[1].ID())
	assert.Equal(t, "component.labeling", all[2].ID())
}

func TestRegistry_ListSortedByID(t *testing.T) {
	reg := DefaultRegistry()

	infos := reg.List()
	require.Len(t, infos, reg.Count())
	assert.True(t, sort.SliceIsSorted(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	}))
	for _, info := range infos {
		assert.NotEmpty(t, info.Title, "rule %s has no title", info.ID)
		assert.NotEmpty(t, info.Section, "rule %s has no section", info.ID)
	}
}

func TestDefaultRegistry_Builtins(t *testing.T) {
	reg := DefaultRegistry()

	assert.Equal(t, 10, reg.Count())
	for _, id := range []string{
		"component.service_disconnect",
		"component.grounding_electrode",
		"component.rapid_shutdown",
		"component.labeling",
		"component.breaker_rating",
		"connection.evse_branch",
		"connection.wire_color",
		"connection.endpoints",
		"system.bus_120_percent",
		"system.service_capacity",
	} {
		assert.True(t, reg.Has(id), "missing builtin %s", id)
	}
}
