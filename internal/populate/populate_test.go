package populate

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/populate/api"
	"github.com/agentic-research/populate/internal/query"
	"github.com/agentic-research/populate/internal/registry"
	"github.com/agentic-research/populate/internal/traverse"
)

const articleUID = "api::article.article"

func loadFixtures(t *testing.T) *registry.MemoryRegistry {
	t.Helper()
	reg := registry.NewMemoryRegistry()
	n, err := registry.LoadDir(osfs.New("testdata"), "schemas", reg)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	return reg
}

func run(t *testing.T, p *Populator, v traverse.Visitor, in string) string {
	t.Helper()
	out, err := p.TraverseUID(context.Background(), v, articleUID, query.MustParse(in))
	require.NoError(t, err)
	return query.MustJSON(out)
}

// recorder remembers which schema each raw path was visited under.
type recorder struct {
	mu   sync.Mutex
	seen map[string][]string
}

func newRecorder() *recorder {
	return &recorder{seen: make(map[string][]string)}
}

func (r *recorder) visit(_ context.Context, v *traverse.Visit) (query.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid := "-"
	if v.Schema != nil {
		uid = v.Schema.UID
	}
	r.seen[v.Path.Raw] = append(r.seen[v.Path.Raw], uid)
	return v.Value, nil
}

func TestPopulate_StringArray(t *testing.T) {
	p := New(loadFixtures(t))

	in := `["author", "author.avatar", "cover", "unknown.field"]`
	assert.Equal(t, `["author","author.avatar","cover","unknown.field"]`, run(t, p, nil, in))

	// Each element behaves as if passed alone.
	for _, el := range []string{"author", "author.avatar", "cover", "unknown.field"} {
		assert.Equal(t, `"`+el+`"`, run(t, p, nil, `"`+el+`"`))
	}

	// A dropped element stays in place as null.
	assert.Equal(t, `["author",null]`, run(t, p, nil, `["author", "subject.anything"]`))
}

func TestPopulate_Wildcard(t *testing.T) {
	p := New(loadFixtures(t))
	never := func(context.Context, *traverse.Visit) (query.Node, error) {
		t.Fatal("visitor must not run for a wildcard")
		return nil, nil
	}

	out, err := p.Traverse(context.Background(), never, traverse.Options{}, query.Wildcard{})
	require.NoError(t, err)
	assert.Equal(t, query.Wildcard{}, out)

	assert.Equal(t, `"*"`, run(t, p, never, `"*"`))
	assert.Equal(t, `{"author":{"populate":"*"}}`, run(t, p, nil, `{"author":{"populate":"*"}}`))
}

func TestPopulate_IgnoresQueryModifiers(t *testing.T) {
	p := New(loadFixtures(t))

	assert.Equal(t, `{"title":true}`, run(t, p, nil, `{"sort":"name","title":true}`))
	assert.Equal(t,
		`{"author":{"populate":{"avatar":true}}}`,
		run(t, p, nil, `{"author":{"fields":["name"],"sort":["name:asc"],"filters":{"name":{"$eq":"x"}},"populate":{"avatar":true}}}`))
}

func TestPopulate_PopulateKeywordKeepsSchema(t *testing.T) {
	rec := newRecorder()
	p := New(loadFixtures(t))

	out := run(t, p, rec.visit, `{"populate":{"author":{"populate":["avatar"]}}}`)
	assert.Equal(t, `{"populate":{"author":{"populate":["avatar"]}}}`, out)

	assert.Equal(t, []string{articleUID}, rec.seen["populate"])
	assert.Equal(t, []string{articleUID}, rec.seen["populate.author"])
	assert.Equal(t, []string{"api::person.person"}, rec.seen["populate.author.populate"])
	assert.Equal(t, []string{"api::person.person"}, rec.seen["populate.author.populate.avatar"])
}

func TestPopulate_MorphFanOut(t *testing.T) {
	rec := newRecorder()
	p := New(loadFixtures(t))

	out := run(t, p, rec.visit, `{"subject":{"on":{"api::person.person":{"populate":"avatar","fields":["name"]},"api::tag.tag":{"fields":["name"]}}}}`)
	assert.Equal(t, `{"subject":{"on":{"api::person.person":{"populate":"avatar"},"api::tag.tag":{}}}}`, out)

	assert.Equal(t, []string{articleUID}, rec.seen["subject.on"])
	assert.Equal(t, []string{"api::person.person"}, rec.seen["subject.on[api::person.person].populate"])
	assert.Equal(t, []string{"api::person.person"}, rec.seen["subject.on[api::person.person].populate.avatar"])
}

func TestPopulate_MorphWithoutFragmentIsDropped(t *testing.T) {
	p := New(loadFixtures(t))

	cases := map[string]string{
		"bare boolean":       `{"subject":true,"title":true}`,
		"mapping without on": `{"subject":{"populate":"*"},"title":true}`,
		"on is not a map":    `{"subject":{"on":"api::tag.tag"},"title":true}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, `{"title":true}`, run(t, p, nil, in))
		})
	}

	t.Run("dotted path", func(t *testing.T) {
		out, err := p.TraverseUID(context.Background(), nil, articleUID, query.Path("subject.name"))
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("extra keys beside on are dropped", func(t *testing.T) {
		assert.Equal(t,
			`{"subject":{"on":{"api::tag.tag":true}}}`,
			run(t, p, nil, `{"subject":{"populate":"*","on":{"api::tag.tag":true}}}`))
	})
}

func TestPopulate_MediaUsesUploadSchema(t *testing.T) {
	rec := newRecorder()
	p := New(loadFixtures(t))

	out := run(t, p, rec.visit, `{"cover":{"fields":["url"],"populate":{"related":true,"url":true}}}`)
	assert.Equal(t, `{"cover":{"populate":{"url":true}}}`, out)
	assert.Equal(t, []string{"plugin::upload.file"}, rec.seen["cover.populate.url"])
}

func TestPopulate_Component(t *testing.T) {
	rec := newRecorder()
	p := New(loadFixtures(t))

	out := run(t, p, rec.visit, `{"seo":{"populate":{"image":true}}}`)
	assert.Equal(t, `{"seo":{"populate":{"image":true}}}`, out)
	assert.Equal(t, []string{"shared.seo"}, rec.seen["seo.populate.image"])
}

func TestPopulate_DynamicZoneMergesBothSyntaxes(t *testing.T) {
	rec := newRecorder()
	p := New(loadFixtures(t))

	out := run(t, p, rec.visit,
		`{"blocks":{"on":{"shared.quote":{"populate":{"author":true}}},"caption":true,"fields":["x"]}}`)
	assert.Equal(t,
		`{"blocks":{"caption":true,"on":{"shared.quote":{"populate":{"author":true}}}}}`,
		out)

	// The legacy part is folded through every declared component, in order.
	assert.Equal(t, []string{"shared.quote", "shared.media-block"}, rec.seen["blocks.caption"])
	// The explicit part is read against the zone's own schema first.
	assert.Equal(t, []string{articleUID}, rec.seen["blocks.on"])
	assert.Equal(t, []string{"shared.quote"}, rec.seen["blocks.on[shared.quote].populate.author"])
}

func TestPopulate_DynamicZoneNonMapping(t *testing.T) {
	rec := newRecorder()
	p := New(loadFixtures(t))

	assert.Equal(t, `{"blocks":true}`, run(t, p, rec.visit, `{"blocks":true}`))
	assert.Equal(t, `"blocks"`, run(t, p, nil, `"blocks"`))
	assert.Equal(t, `{"blocks":"*"}`, run(t, p, nil, `{"blocks":"*"}`))

	t.Run("falsy on is ignored", func(t *testing.T) {
		assert.Equal(t, `{"blocks":{"caption":true}}`, run(t, p, nil, `{"blocks":{"caption":true,"on":null}}`))
	})
}

func TestPopulate_Idempotent(t *testing.T) {
	p := New(loadFixtures(t))
	in := `{
  "author": {"populate": ["avatar", "articles.cover"], "fields": ["name"]},
  "tags": "*",
  "subject": {"on": {"api::person.person": {"populate": "avatar"}}},
  "cover": true,
  "seo": {"populate": {"image": {"populate": "*"}}},
  "blocks": {"on": {"shared.media-block": {"populate": ["file"]}}, "populate": "*"},
  "sort": "title"
}`
	first := run(t, p, nil, in)
	second := run(t, p, nil, first)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second pass changed the fragment (-first +second):\n%s", diff)
	}
	assert.NotContains(t, first, `"sort"`)
	assert.NotContains(t, first, `"fields"`)
}

func TestPopulate_ParallelMatchesSequential(t *testing.T) {
	reg := loadFixtures(t)
	in := `{"author":{"populate":{"avatar":true,"articles":{"populate":["tags","cover"]}}},"tags":true,"blocks":{"on":{"shared.quote":{"populate":"*"}}},"cover":{"populate":"*"}}`

	seq := run(t, New(reg), nil, in)
	par := run(t, New(reg, WithTraverseOptions(traverse.WithParallel(true))), nil, in)
	assert.Equal(t, seq, par)
}

func TestPopulate_UnknownTargetFails(t *testing.T) {
	reg := loadFixtures(t)
	require.NoError(t, reg.Register(&api.ContentType{
		UID: "api::broken.broken",
		Attributes: map[string]*api.Attribute{
			"ghost": {Type: "relation", Relation: "oneToOne", Target: "api::ghost.ghost"},
		},
	}))
	p := New(reg)

	out, err := p.TraverseUID(context.Background(), nil, "api::broken.broken", query.MustParse(`{"ghost":true}`))
	assert.ErrorIs(t, err, registry.ErrUnknownSchema)
	assert.Nil(t, out)

	_, err = p.TraverseUID(context.Background(), nil, articleUID, query.MustParse(`{"subject":{"on":{"api::ghost.ghost":true}}}`))
	var unknown *registry.UnknownSchemaError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "api::ghost.ghost", unknown.UID)

	_, err = New(reg, WithMediaUID("plugin::missing.file")).TraverseUID(context.Background(), nil, articleUID, query.MustParse(`{"cover":true}`))
	assert.ErrorIs(t, err, registry.ErrUnknownSchema)

	_, err = p.TraverseUID(context.Background(), nil, "api::nope.nope", query.True)
	assert.ErrorIs(t, err, registry.ErrUnknownSchema)
}

func TestPopulate_DepthGuardOnSelfReferencingComponent(t *testing.T) {
	reg := loadFixtures(t)
	deep := strings.Repeat("child.", 80) + "label"

	p := New(reg)
	out, err := p.TraverseUID(context.Background(), nil, "shared.nested", query.Path(deep))
	assert.ErrorIs(t, err, traverse.ErrCyclicSchema)
	assert.Nil(t, out)

	p = New(reg, WithTraverseOptions(traverse.WithMaxDepth(100)))
	out, err = p.TraverseUID(context.Background(), nil, "shared.nested", query.Path(deep))
	require.NoError(t, err)
	assert.Equal(t, query.Path(deep), out)
}

func TestPopulate_MixedArrayIsAConfigurationFault(t *testing.T) {
	p := New(loadFixtures(t))
	_, err := p.TraverseUID(context.Background(), nil, articleUID, query.MustParse(`{"author":["avatar",{"articles":true}]}`))
	var cfgErr *traverse.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "author", cfgErr.Path)
}
