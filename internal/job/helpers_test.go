package job

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/scribe-gw/internal/storage"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLStore(db)
}

func readmeInputs() Inputs {
	return Inputs{"project_name": "scribe", "description": "Generates docs", "tech_stack": "Go"}
}
