package topics

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"specs.md":            {Data: []byte("# Specs\n\n100~110 is a range")},
		"option-backup.txt":   {Data: []byte("The live site directory")},
		"guides/pointers.md":  {Data: []byte("# Pointer files")},
		"notes.json":          {Data: []byte(`{"ignored": true}`)},
		"option-exclude.txxt": {Data: []byte("not a default extension")},
	}
}

func TestLoad(t *testing.T) {
	m, err := Load(testFS(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"option-backup", "pointers", "specs"}, m.Names())

	topic, ok := m.Get("specs")
	require.True(t, ok)
	assert.Equal(t, ".md", topic.Ext)
	assert.Contains(t, topic.Content, "100~110")

	_, ok = m.Get("notes")
	assert.False(t, ok)
}

func TestLoad_CustomExtensions(t *testing.T) {
	m, err := Load(testFS(), Options{Extensions: []string{".txxt"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"option-exclude"}, m.Names())
}

func TestGet_FlagStyle(t *testing.T) {
	m, err := Load(testFS(), Options{})
	require.NoError(t, err)

	for _, name := range []string{"--backup", "-backup", "backup", "option-backup"} {
		topic, ok := m.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, "option-backup", topic.Name)
	}
}

type upperRenderer struct{}

func (upperRenderer) Render(content, ext string) string {
	return strings.ToUpper(content)
}

func newRoot(t *testing.T, r Renderer) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	root := &cobra.Command{Use: "tool", Run: func(cmd *cobra.Command, args []string) {}}
	root.AddCommand(&cobra.Command{Use: "pack", Short: "Pack things", Run: func(cmd *cobra.Command, args []string) {}})

	m, err := Load(testFS(), Options{Renderer: r})
	require.NoError(t, err)
	m.Install(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	return root, &out
}

func TestInstall_ShowsTopic(t *testing.T) {
	root, out := newRoot(t, upperRenderer{})
	root.SetArgs([]string{"help", "specs"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "100~110 IS A RANGE")
}

func TestInstall_ListsTopics(t *testing.T) {
	root, out := newRoot(t, nil)
	root.SetArgs([]string{"help", "topics"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "General topics:\n  pointers\n  specs\n")
	assert.Contains(t, out.String(), "Option topics:\n  --backup\n")
	assert.Contains(t, out.String(), "Use 'tool help <topic>'")
}

func TestInstall_FallsBackToCommandHelp(t *testing.T) {
	root, out := newRoot(t, nil)
	root.SetArgs([]string{"help", "pack"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Pack things")
}

func TestGlamourRenderer_PassesThroughText(t *testing.T) {
	r := NewGlamourRenderer()
	assert.Equal(t, "plain text", r.Render("plain text", ".txt"))
	assert.NotEmpty(t, r.Render("# Title", ".md"))
}
