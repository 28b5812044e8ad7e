package publish

import (
	"context"
	"testing"

	"github.com/publibase/publibase/internal/geoserver"
	"github.com/publibase/publibase/internal/logr"
	"github.com/stretchr/testify/require"
)

const testSLD = `<?xml version="1.0" encoding="UTF-8"?>
<StyledLayerDescriptor version="1.0.0"><NamedLayer><Name>rodovia</Name></NamedLayer></StyledLayerDescriptor>`

func newTestService(t *testing.T, srv *geoserver.TestServer) *Service {
	t.Helper()

	client, err := geoserver.NewClient(geoserver.Config{
		URL:      srv.GeoServerURL(),
		User:     geoserver.DefaultUser,
		Password: geoserver.DefaultPassword,
	})
	require.NoError(t, err)
	return NewService(client, logr.Discard())
}

// fakeTables is a schema of tables and views.
type fakeTables struct {
	tables []string
	views  []string
	err    error
}

func (f *fakeTables) ListTables(ctx context.Context, schema string, baseTablesOnly bool) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if baseTablesOnly {
		return f.tables, nil
	}
	return append(append([]string{}, f.tables...), f.views...), nil
}
