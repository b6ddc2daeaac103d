package version_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db2fs/db2fs/internal/remote"
	"github.com/db2fs/db2fs/internal/remote/remotetest"
	"github.com/db2fs/db2fs/internal/version"
)

func TestConsensus(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		want     string
	}{
		{name: "majority", versions: []string{"8.0.1.3", "8.0.2.1", "7.0.5.0"}, want: "8.0"},
		{name: "tie goes to first seen", versions: []string{"6.1.1.0", "7.0.1.0"}, want: "6.1"},
		{name: "empty versions skipped", versions: []string{"", "", "6.0.3"}, want: "6.0"},
		{name: "no versions", versions: nil, want: ""},
		{name: "only empty", versions: []string{"", " "}, want: ""},
		{name: "short label", versions: []string{"9"}, want: "9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, version.Consensus(tt.versions))
		})
	}
}

func TestMajorMinor(t *testing.T) {
	assert.Equal(t, "6.1", version.MajorMinor("6.1.1.2"))
	assert.Equal(t, "7.0", version.MajorMinor(" 7.0 "))
	assert.Equal(t, "", version.MajorMinor(""))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		modules []*remotetest.Module
		want    string
		wantErr error
	}{
		{
			name: "installed modules vote",
			modules: []*remotetest.Module{
				{Name: "base", State: "installed", Version: "8.0.1.3"},
				{Name: "mail", State: "installed", Version: "8.0.2.1"},
				{Name: "legacy", State: "installed", Version: "7.0.5.0"},
				{Name: "sale", State: "uninstalled", Version: "7.0.1.0"},
				{Name: "crm", State: "uninstalled", Version: "7.0.1.0"},
			},
			want: "8.0",
		},
		{
			name:    "nothing installed",
			modules: []*remotetest.Module{{Name: "base", State: "uninstalled", Version: "6.1.1"}},
			wantErr: version.ErrVersionNotFound,
		},
		{
			name:    "installed without version",
			modules: []*remotetest.Module{{Name: "base", State: "installed"}},
			wantErr: version.ErrVersionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			odoo := remotetest.New(1, remotetest.RouteByConfig)
			odoo.Modules = tt.modules

			got, err := version.Detect(context.Background(), odoo)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Zero(t, odoo.Mutations)
		})
	}
}

func TestDetectFault(t *testing.T) {
	odoo := remotetest.New(1, remotetest.RouteByConfig)
	odoo.Modules = []*remotetest.Module{{Name: "base", State: "installed", Version: "6.0.1"}}
	odoo.Fail = func(_, method string, _ []int64) error {
		if method == "read" {
			return &remote.Fault{Model: remote.ModelModule, Method: method, Message: "AccessError"}
		}

		return nil
	}

	_, err := version.Detect(context.Background(), odoo)
	require.Error(t, err)
	assert.True(t, remote.IsFault(err))
}

func TestDetectLogsWithContextLogger(t *testing.T) {
	odoo := remotetest.New(1, remotetest.RouteByConfig)
	odoo.Modules = []*remotetest.Module{{Name: "base", State: "installed", Version: "7.0.1.0"}}

	var buf bytes.Buffer

	logger := zerolog.New(&buf).With().Str("run", "run-1").Logger()
	ctx := logger.WithContext(context.Background())

	_, err := version.Detect(ctx, odoo)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"run":"run-1"`)
	assert.Contains(t, buf.String(), `"version":"7.0"`)
}
