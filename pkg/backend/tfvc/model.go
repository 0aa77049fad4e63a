package tfvc

import (
	"time"

	"github.com/arthur-debert/changepack/pkg/types"
)

type identity struct {
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
}

type changesetRef struct {
	ChangesetID int       `json:"changesetId"`
	Author      identity  `json:"author"`
	CheckedInBy identity  `json:"checkedInBy"`
	CreatedDate time.Time `json:"createdDate"`
	Comment     string    `json:"comment"`
}

type changesetList struct {
	Count int            `json:"count"`
	Value []changesetRef `json:"value"`
}

type itemRef struct {
	Path     string `json:"path"`
	Version  int    `json:"version"`
	IsFolder bool   `json:"isFolder"`
}

type change struct {
	ChangeType string  `json:"changeType"`
	Item       itemRef `json:"item"`
}

type changeList struct {
	Count int      `json:"count"`
	Value []change `json:"value"`
}

func (r changesetRef) toChangeset() *types.Changeset {
	owner := r.CheckedInBy.UniqueName
	if owner == "" {
		owner = r.Author.UniqueName
	}
	if owner == "" {
		owner = r.Author.DisplayName
	}
	return &types.Changeset{
		ID:        r.ChangesetID,
		Owner:     owner,
		Comment:   r.Comment,
		CreatedAt: r.CreatedDate,
	}
}

func (c change) toChange(changesetID int) (types.Change, error) {
	ct, err := types.ParseChangeType(c.ChangeType)
	if err != nil {
		return types.Change{}, err
	}
	kind := types.ItemFile
	if c.Item.IsFolder {
		kind = types.ItemFolder
	}
	version := c.Item.Version
	if version == 0 {
		version = changesetID
	}
	return types.Change{
		Type: ct,
		Item: types.Item{ServerPath: c.Item.Path, Kind: kind, Version: version},
	}, nil
}
