package traverse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentic-research/populate/internal/query"
)

func TestPathStrategy(t *testing.T) {
	s := PathStrategy{}
	data := query.Path("a.b.c")

	t.Run("keys is the root segment", func(t *testing.T) {
		assert.Equal(t, []string{"a"}, s.Keys(data))
		assert.Equal(t, []string{"a"}, s.Keys(query.Path("a")))
		assert.Empty(t, s.Keys(query.Path("")))
	})

	t.Run("get strips the root", func(t *testing.T) {
		v, ok := s.Get("a", data)
		assert.True(t, ok)
		assert.Equal(t, query.Path("b.c"), v)

		_, ok = s.Get("b", data)
		assert.False(t, ok)

		v, ok = s.Get("a", query.Path("a"))
		assert.True(t, ok)
		assert.Equal(t, query.Path(""), v)

		v, _ = s.Get("a", query.Path("a.*"))
		assert.Equal(t, query.Wildcard{}, v)
	})

	t.Run("set re-prefixes the remainder", func(t *testing.T) {
		assert.Equal(t, query.Path("a.x.y"), s.Set("a", query.Path("x.y"), data))
		assert.Equal(t, query.Path("a"), s.Set("a", nil, data))
		assert.Equal(t, query.Path("a"), s.Set("a", query.Path(""), data))
		assert.Equal(t, query.Path("a.*"), s.Set("a", query.Wildcard{}, data))
		assert.Equal(t, data, s.Set("z", query.Path("x"), data))
	})

	t.Run("remove drops the whole path", func(t *testing.T) {
		assert.Nil(t, s.Remove("a", data))
		assert.Equal(t, data, s.Remove("b", data))
	})

	t.Run("transform trims", func(t *testing.T) {
		assert.Equal(t, query.Path("a.b"), s.Transform(query.Path("  a.b ")))
	})
}

func TestMappingStrategy(t *testing.T) {
	s := MappingStrategy{}
	data := query.MustParse(`{"a":true,"b":"x.y"}`)

	assert.Equal(t, []string{"a", "b"}, s.Keys(data))

	v, ok := s.Get("b", data)
	assert.True(t, ok)
	assert.Equal(t, query.Path("x.y"), v)

	assert.Equal(t, `{"a":true,"b":"*"}`, query.MustJSON(s.Set("b", query.Wildcard{}, data)))
	assert.Equal(t, `{"b":"x.y"}`, query.MustJSON(s.Set("a", nil, data)))
	assert.Equal(t, `{"a":true}`, query.MustJSON(s.Remove("b", data)))
	assert.Equal(t, `{"a":true,"b":"x.y"}`, query.MustJSON(data), "input untouched")

	clone := s.Transform(data)
	assert.NotSame(t, data, clone)
	assert.Equal(t, query.MustJSON(data), query.MustJSON(clone))
}
