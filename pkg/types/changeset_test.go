package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeType_Predicates(t *testing.T) {
	tests := []struct {
		name     string
		ct       ChangeType
		isAdd    bool
		isDelete bool
		isMerge  bool
	}{
		{"plain edit", ChangeEdit, false, false, false},
		{"add with encoding", ChangeAdd | ChangeEdit | ChangeEncoding, true, false, false},
		{"delete", ChangeDelete, false, true, false},
		{"merge disguising an add", ChangeMerge | ChangeBranch, false, false, true},
		{"merged delete", ChangeMerge | ChangeDelete, false, true, true},
		{"none", ChangeNone, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isAdd, tt.ct.IsAdd())
			assert.Equal(t, tt.isDelete, tt.ct.IsDelete())
			assert.Equal(t, tt.isMerge, tt.ct.IsMerge())
		})
	}
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "none", ChangeNone.String())
	assert.Equal(t, "edit", ChangeEdit.String())
	assert.Equal(t, "add, edit, encoding", (ChangeEncoding | ChangeAdd | ChangeEdit).String())
	assert.Equal(t, "rename, sourceRename", (ChangeRename | ChangeSourceRename).String())
}

func TestParseChangeType(t *testing.T) {
	tests := []struct {
		in      string
		want    ChangeType
		wantErr bool
	}{
		{"edit", ChangeEdit, false},
		{"add, edit, encoding", ChangeAdd | ChangeEdit | ChangeEncoding, false},
		{"Merge,Edit", ChangeMerge | ChangeEdit, false},
		{"sourcerename", ChangeSourceRename, false},
		{"", ChangeNone, false},
		{"none", ChangeNone, false},
		{"edit, teleport", ChangeNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseChangeType(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChangeType_RoundTripsString(t *testing.T) {
	ct := ChangeAdd | ChangeDelete | ChangeMerge | ChangeProperty
	parsed, err := ParseChangeType(ct.String())
	require.NoError(t, err)
	assert.Equal(t, ct, parsed)
}

func TestItem_IsFile(t *testing.T) {
	assert.True(t, Item{ServerPath: "$/P/a.txt", Kind: ItemFile}.IsFile())
	assert.False(t, Item{ServerPath: "$/P/bin", Kind: ItemFolder}.IsFile())
	assert.Equal(t, "folder", ItemFolder.String())
	assert.Equal(t, "file", ItemFile.String())
}
