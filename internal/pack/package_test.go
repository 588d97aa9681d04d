package pack

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSamplePack(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeMinimalPack(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# p"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "eval", "results"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "eval", "questions.jsonl"), []byte(`{"id":"1","question":"q","ground_truth":"a"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("secret"), 0o644))
	return dir
}

func TestPackagePackThenUnpackagePackRoundTrips(t *testing.T) {
	srcDir := buildSamplePack(t)
	tarball := filepath.Join(t.TempDir(), "p.tar.gz")
	require.NoError(t, PackagePack(srcDir, tarball))

	installDir := t.TempDir()
	require.NoError(t, UnpackagePack(tarball, installDir))

	destDir := filepath.Join(installDir, "p")
	assert.NoError(t, ValidatePackStructure(destDir))

	origManifest, err := os.ReadFile(filepath.Join(srcDir, "manifest.json"))
	require.NoError(t, err)
	newManifest, err := os.ReadFile(filepath.Join(destDir, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, origManifest, newManifest)

	origDB, err := os.ReadFile(filepath.Join(srcDir, "pack.db"))
	require.NoError(t, err)
	newDB, err := os.ReadFile(filepath.Join(destDir, "pack.db"))
	require.NoError(t, err)
	assert.Equal(t, origDB, newDB)

	_, err = os.Stat(filepath.Join(destDir, ".hidden"))
	assert.True(t, os.IsNotExist(err), "hidden files must be excluded from the archive")
}

func TestPackagePackRejectsIncompleteSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{}`), 0o644))
	err := PackagePack(dir, filepath.Join(t.TempDir(), "out.tar.gz"))
	assert.Error(t, err)
}

func buildMaliciousTarball(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evil.tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return path
}

func TestUnpackagePackRejectsPathTraversal(t *testing.T) {
	tarball := buildMaliciousTarball(t, map[string]string{
		"../../etc/passwd": "pwned",
	})
	err := UnpackagePack(tarball, t.TempDir())
	assert.Error(t, err)
}

func TestUnpackagePackRejectsAbsolutePath(t *testing.T) {
	tarball := buildMaliciousTarball(t, map[string]string{
		"/etc/passwd": "pwned",
	})
	err := UnpackagePack(tarball, t.TempDir())
	assert.Error(t, err)
}

func TestUnpackagePackRejectsSymlinkMember(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evil.tar.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	hdr := &tar.Header{Name: "link", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd"}
	require.NoError(t, tw.WriteHeader(hdr))
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	err = UnpackagePack(path, t.TempDir())
	assert.Error(t, err)
}

func TestIsExcludedFiltersHiddenAndCacheEntries(t *testing.T) {
	assert.True(t, isExcluded(".git", dirInfo{}))
	assert.True(t, isExcluded("build.tmp", fileInfo{}))
	assert.False(t, isExcluded("manifest.json", fileInfo{}))
}

type dirInfo struct{ os.FileInfo }

func (dirInfo) IsDir() bool  { return true }
func (dirInfo) Name() string { return "" }

type fileInfo struct{ os.FileInfo }

func (fileInfo) IsDir() bool  { return false }
func (fileInfo) Name() string { return "" }
