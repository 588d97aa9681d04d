package pack

import (
	"os"
	"path/filepath"
)

// PackInstaller installs and updates packs under a fixed install
// directory.
type PackInstaller struct {
	InstallDir string
}

// Install unpacks archive into the installer's install directory.
func (p *PackInstaller) Install(archive string) error {
	if err := os.MkdirAll(p.InstallDir, 0o755); err != nil {
		return err
	}
	return UnpackagePack(archive, p.InstallDir)
}

// Update replaces an installed pack's contents from archive while
// preserving its eval/results/ directory across the upgrade.
func (p *PackInstaller) Update(name, archive string) error {
	dest := filepath.Join(p.InstallDir, name)
	resultsDir := filepath.Join(dest, "eval", "results")

	preserved, err := preserveResults(resultsDir)
	if err != nil {
		return err
	}

	if err := UnpackagePack(archive, p.InstallDir); err != nil {
		return err
	}

	return restoreResults(resultsDir, preserved)
}

// Uninstall removes an installed pack entirely.
func (p *PackInstaller) Uninstall(name string) error {
	return os.RemoveAll(filepath.Join(p.InstallDir, name))
}

func preserveResults(resultsDir string) (map[string][]byte, error) {
	entries, err := os.ReadDir(resultsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	preserved := map[string][]byte{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(resultsDir, e.Name()))
		if err != nil {
			return nil, err
		}
		preserved[e.Name()] = data
	}
	return preserved, nil
}

func restoreResults(resultsDir string, preserved map[string][]byte) error {
	if len(preserved) == 0 {
		return nil
	}
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return err
	}
	for name, data := range preserved {
		if err := os.WriteFile(filepath.Join(resultsDir, name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
