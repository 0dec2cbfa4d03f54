package populate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/populate/api"
	"github.com/agentic-research/populate/internal/query"
	"github.com/agentic-research/populate/internal/registry"
	"github.com/agentic-research/populate/internal/traverse"
)

// The same fragments give the same results whether schemas come from memory
// or from a SQLite registry, sequentially or in parallel.
func TestPopulate_SQLiteRegistry(t *testing.T) {
	ctx := context.Background()
	mem := loadFixtures(t)

	uids, err := mem.UIDs(ctx)
	require.NoError(t, err)
	types := make([]*api.ContentType, 0, len(uids))
	for _, uid := range uids {
		ct, err := mem.Resolve(ctx, uid)
		require.NoError(t, err)
		types = append(types, ct)
	}

	dbPath := filepath.Join(t.TempDir(), "schemas.db")
	require.NoError(t, registry.WriteSQLite(ctx, dbPath, types))
	db, err := registry.OpenSQLite(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, registry.Validate(ctx, db, MediaUID))

	fragments := []string{
		`["author.avatar", "tags", "subject"]`,
		`{"author":{"populate":{"articles":{"populate":["cover","blocks"]}}},"sort":"title"}`,
		`{"subject":{"on":{"api::person.person":{"populate":"avatar"},"plugin::upload.file":true}}}`,
		`{"blocks":{"on":{"shared.media-block":{"populate":"file"}},"populate":"*"},"seo":{"populate":"image"}}`,
	}
	for _, in := range fragments {
		want := run(t, New(mem), nil, in)
		for _, p := range []*Populator{
			New(db),
			New(db, WithTraverseOptions(traverse.WithParallel(true))),
		} {
			out, err := p.TraverseUID(ctx, nil, articleUID, query.MustParse(in))
			require.NoError(t, err)
			assert.Equal(t, want, query.MustJSON(out), in)
		}
	}
}
