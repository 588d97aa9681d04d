package pack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validManifest() *Manifest {
	return &Manifest{
		Name:        "geography-101",
		Version:     "0.1.0",
		Description: "World geography facts.",
		License:     "CC0",
		GraphStats:  GraphStats{Articles: 10, Entities: 5, Relationships: 3, SizeMB: 1},
	}
}

func TestValidateManifestAcceptsWellFormedManifest(t *testing.T) {
	assert.NoError(t, ValidateManifest(validManifest()))
}

func TestValidateManifestRejectsEmptyRequiredFields(t *testing.T) {
	m := validManifest()
	m.Name = ""
	assert.Error(t, ValidateManifest(m))

	m = validManifest()
	m.Description = ""
	assert.Error(t, ValidateManifest(m))

	m = validManifest()
	m.License = ""
	assert.Error(t, ValidateManifest(m))
}

func TestValidateManifestRejectsBadSemver(t *testing.T) {
	m := validManifest()
	m.Version = "not-a-version"
	assert.Error(t, ValidateManifest(m))
}

func TestValidateManifestAcceptsSemverWithPrereleaseAndBuild(t *testing.T) {
	m := validManifest()
	m.Version = "1.0.0-beta.1+build.5"
	assert.NoError(t, ValidateManifest(m))
}

func TestValidateManifestRejectsNegativeStats(t *testing.T) {
	m := validManifest()
	m.GraphStats.Articles = -1
	assert.Error(t, ValidateManifest(m))
}

func TestValidateManifestRejectsOutOfRangeEvalScores(t *testing.T) {
	m := validManifest()
	m.EvalScores = &EvalScores{Accuracy: 1.5}
	assert.Error(t, ValidateManifest(m))
}

func TestValidateManifestAcceptsInRangeEvalScores(t *testing.T) {
	m := validManifest()
	m.EvalScores = &EvalScores{Accuracy: 0.9, HallucinationRate: 0.1, CitationQuality: 0.8}
	assert.NoError(t, ValidateManifest(m))
}

func writeMinimalPack(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{"name":"p","version":"1.0.0","description":"d","license":"MIT"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skill.md"), []byte("---\nname: p\n---\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kg_config.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pack.db"), []byte("sqlite"), 0o644))
}

func TestValidatePackStructureAcceptsCompletePack(t *testing.T) {
	dir := t.TempDir()
	writeMinimalPack(t, dir)
	assert.NoError(t, ValidatePackStructure(dir))
}

func TestValidatePackStructureRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeMinimalPack(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, "skill.md")))
	assert.Error(t, ValidatePackStructure(dir))
}

func TestValidatePackStructureRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeMinimalPack(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte("not json"), 0o644))
	assert.Error(t, ValidatePackStructure(dir))
}

func TestValidatePackStructureAcceptsDirectoryPackDB(t *testing.T) {
	dir := t.TempDir()
	writeMinimalPack(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, "pack.db")))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "pack.db"), 0o755))
	assert.NoError(t, ValidatePackStructure(dir))
}
