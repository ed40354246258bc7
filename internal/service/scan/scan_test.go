package scan

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/panbanda/nearclone/internal/testutil"
	"github.com/panbanda/nearclone/pkg/analyzer"
	"github.com/panbanda/nearclone/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.CreateFileTree(t, dir, map[string]string{
		"src/users/UserList.tsx":       testutil.ListComponent("UserList", 10),
		"src/teams/TeamList.tsx":       testutil.ListComponent("TeamList", 20),
		"src/util/math.ts":             testutil.ClampSource,
		"node_modules/lib/CopyList.js": testutil.ListComponent("CopyList", 30),
	})
	return dir
}

func TestNew(t *testing.T) {
	svc := New()
	require.NotNil(t, svc.Config())
	assert.Equal(t, config.ProfileStrict, svc.Config().Profile)

	cfg := config.DefaultConfig()
	assert.Same(t, cfg, New(WithConfig(cfg)).Config())
}

func TestRun(t *testing.T) {
	dir := writeProject(t)

	res, err := New().Run(context.Background(), []string{dir})
	require.NoError(t, err)

	assert.Len(t, res.Files, 3, "node_modules is never collected")
	require.Len(t, res.Report.Clusters, 1)
	assert.Equal(t, []string{
		filepath.Join(dir, "src", "teams", "TeamList.tsx"),
		filepath.Join(dir, "src", "users", "UserList.tsx"),
	}, res.Report.Clusters[0].Members)
}

func TestRunUsesConfiguredRoots(t *testing.T) {
	dir := writeProject(t)
	cfg := config.DefaultConfig()
	cfg.Scan.Roots = []string{filepath.Join(dir, "src", "users")}

	res, err := New(WithConfig(cfg)).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Files, 1)
	assert.Empty(t, res.Report.Clusters)
}

func TestRunIncludeScope(t *testing.T) {
	dir := writeProject(t)
	cfg := config.DefaultConfig()
	cfg.Scan.Include = []string{"users/"}

	res, err := New(WithConfig(cfg)).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.TotalCandidates)
	assert.Empty(t, res.Report.Clusters)
	assert.Len(t, res.Report.Excluded, 2)
}

func TestRunIncludeAnchoredAtRoot(t *testing.T) {
	dir := writeProject(t)
	cfg := config.DefaultConfig()
	cfg.Scan.Include = []string{"src/*/*List.tsx"}

	res, err := New(WithConfig(cfg)).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Report.TotalCandidates)
	assert.Len(t, res.Report.Clusters, 1)
	require.Len(t, res.Report.Excluded, 1)
	assert.Equal(t, filepath.Join(dir, "src", "util", "math.ts"), res.Report.Excluded[0].Path)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Thresholds.MinOverlap = 2

	res, err := New(WithConfig(cfg)).Run(context.Background(), []string{t.TempDir()})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "thresholds.min_overlap")
}

func TestRunProgress(t *testing.T) {
	dir := writeProject(t)

	var loads atomic.Int32
	svc := New(WithProgress(func(stage analyzer.Stage, current, total int, item string) {
		if stage == analyzer.StageLoad {
			loads.Add(1)
		}
	}))

	_, err := svc.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, int32(3), loads.Load())
}

func TestRunMissingRoot(t *testing.T) {
	_, err := New().Run(context.Background(), []string{"/nonexistent/nearclone"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
