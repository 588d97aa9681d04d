package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewExpandCmdRequiresSeedsFlag(t *testing.T) {
	cmd := NewExpandCmd()
	assert.Equal(t, "expand", cmd.Use)
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	assert.Error(t, err, "missing required --seeds flag should fail")
}

func TestNewQueryCmdRequiresExactlyOneArg(t *testing.T) {
	cmd := NewQueryCmd()
	assert.Equal(t, "query [question]", cmd.Use)
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	assert.Error(t, err)
}

func TestNewPackCmdRegistersSubcommands(t *testing.T) {
	cmd := NewPackCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["build"])
	assert.True(t, names["install"])
	assert.True(t, names["uninstall"])
	assert.True(t, names["list"])
	assert.True(t, names["validate"])
}

func TestNewBrowseCmdUse(t *testing.T) {
	cmd := NewBrowseCmd()
	assert.Equal(t, "browse", cmd.Use)
}
