// Package tfvc is a client for the TFVC REST API of Azure DevOps Server /
// TFS collections.
//
// Only the calls a packaging run needs are implemented: fetching a
// changeset with its changes, querying the history of a folder and
// downloading an item at a changeset. Authentication is a personal access
// token sent as basic auth.
package tfvc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/logging"
	"github.com/arthur-debert/changepack/pkg/types"
)

const (
	defaultAPIVersion = "7.1"
	defaultPageSize   = 100
	defaultTimeout    = 60 * time.Second
)

// Options configures a client
type Options struct {
	// URL is the collection URL, e.g. https://tfs.example.com/tfs/DefaultCollection
	URL        string
	Project    string
	Token      string
	APIVersion string
	Timeout    time.Duration
	PageSize   int
	// HTTPClient replaces the default client; Timeout is then ignored
	HTTPClient *http.Client
}

// Client implements types.VersionControl over the TFVC REST API
type Client struct {
	base       *url.URL
	project    string
	token      string
	apiVersion string
	pageSize   int
	http       *http.Client
	logger     zerolog.Logger
}

// New creates a client for the collection at opts.URL
func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New(errors.ErrConfigValid, "tfvc backend needs a collection url")
	}
	base, err := url.Parse(strings.TrimRight(opts.URL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.Newf(errors.ErrConfigValid, "invalid collection url %q", opts.URL)
	}

	c := &Client{
		base:       base,
		project:    opts.Project,
		token:      opts.Token,
		apiVersion: opts.APIVersion,
		pageSize:   opts.PageSize,
		http:       opts.HTTPClient,
		logger:     logging.GetLogger("tfvc"),
	}
	if c.apiVersion == "" {
		c.apiVersion = defaultAPIVersion
	}
	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	return c, nil
}

// GetChangeset fetches changeset id and all of its changes
func (c *Client) GetChangeset(ctx context.Context, id int) (*types.Changeset, error) {
	var ref changesetRef
	if err := c.getJSON(ctx, fmt.Sprintf("_apis/tfvc/changesets/%d", id), nil, false, &ref); err != nil {
		return nil, err
	}
	cs := ref.toChangeset()

	changes, err := c.changes(ctx, id)
	if err != nil {
		return nil, err
	}
	cs.Changes = changes
	return cs, nil
}

// QueryHistory lists the changesets touching serverPath between fromID and
// toID, newest first, each with its changes
func (c *Client) QueryHistory(ctx context.Context, serverPath string, fromID, toID int) ([]*types.Changeset, error) {
	var out []*types.Changeset
	for skip := 0; ; skip += c.pageSize {
		query := url.Values{}
		query.Set("searchCriteria.itemPath", serverPath)
		query.Set("searchCriteria.fromId", strconv.Itoa(fromID))
		query.Set("searchCriteria.toId", strconv.Itoa(toID))
		query.Set("$orderby", "id desc")
		query.Set("$top", strconv.Itoa(c.pageSize))
		query.Set("$skip", strconv.Itoa(skip))

		var page changesetList
		if err := c.getJSON(ctx, "_apis/tfvc/changesets", query, true, &page); err != nil {
			return nil, err
		}
		for _, ref := range page.Value {
			cs := ref.toChangeset()
			changes, err := c.changes(ctx, cs.ID)
			if err != nil {
				return nil, err
			}
			cs.Changes = changes
			out = append(out, cs)
		}
		if len(page.Value) < c.pageSize {
			break
		}
	}
	c.logger.Debug().Str("serverPath", serverPath).Int("changesets", len(out)).Msg("History loaded")
	return out, nil
}

// Download streams item at the changeset it was changed in
func (c *Client) Download(ctx context.Context, item types.Item) (io.ReadCloser, error) {
	query := url.Values{}
	query.Set("path", item.ServerPath)
	query.Set("versionDescriptor.version", strconv.Itoa(item.Version))
	query.Set("versionDescriptor.versionType", "changeset")
	query.Set("download", "true")

	resp, err := c.do(ctx, "_apis/tfvc/items", query, false, "application/octet-stream")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) changes(ctx context.Context, id int) ([]types.Change, error) {
	var out []types.Change
	for skip := 0; ; skip += c.pageSize {
		query := url.Values{}
		query.Set("$top", strconv.Itoa(c.pageSize))
		query.Set("$skip", strconv.Itoa(skip))

		var page changeList
		if err := c.getJSON(ctx, fmt.Sprintf("_apis/tfvc/changesets/%d/changes", id), query, false, &page); err != nil {
			return nil, err
		}
		for _, ch := range page.Value {
			change, err := ch.toChange(id)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrBackendResponse, "changeset %d has an unreadable change", id).
					WithDetail("serverPath", ch.Item.Path)
			}
			out = append(out, change)
		}
		if len(page.Value) < c.pageSize {
			return out, nil
		}
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, project bool, v interface{}) error {
	resp, err := c.do(ctx, path, query, project, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrapf(err, errors.ErrBackendResponse, "failed to decode response of %s", path)
	}
	return nil
}

// do sends a GET and returns the response when the status is 2xx
func (c *Client) do(ctx context.Context, path string, query url.Values, project bool, accept string) (*http.Response, error) {
	u := c.endpoint(path, project)
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", c.apiVersion)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "failed to build request for %s", path)
	}
	req.Header.Set("Accept", accept)
	if c.token != "" {
		req.SetBasicAuth("", c.token)
	}

	c.logger.Trace().Str("url", u.String()).Msg("GET")
	resp, err := c.http.Do(req)
	if err != nil {
		code := errors.ErrBackendUnavailable
		if ctx.Err() != nil {
			code = errors.ErrCanceled
		}
		return nil, errors.Wrapf(err, code, "request to %s failed", u.Host).WithDetail("path", path)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
	return nil, statusError(resp.StatusCode, path, body)
}

func (c *Client) endpoint(path string, project bool) *url.URL {
	u := *c.base
	prefix := strings.TrimRight(u.Path, "/")
	if project && c.project != "" {
		prefix += "/" + url.PathEscape(c.project)
	}
	u.Path = prefix + "/" + path
	return &u
}

func statusError(status int, path string, body []byte) error {
	message := apiMessage(body)
	details := map[string]interface{}{"status": status, "path": path}

	switch {
	case status == http.StatusNotFound:
		return errors.Newf(errors.ErrNotFound, "%s not found: %s", path, message).WithDetails(details)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Newf(errors.ErrBackendUnavailable, "access denied (%d), check backend.token", status).WithDetails(details)
	case status >= 500:
		return errors.Newf(errors.ErrBackendUnavailable, "server error %d: %s", status, message).WithDetails(details)
	default:
		return errors.Newf(errors.ErrBackendResponse, "unexpected status %d: %s", status, message).WithDetails(details)
	}
}

// apiMessage extracts the message of an Azure DevOps error body
func apiMessage(body []byte) string {
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return strings.TrimSpace(string(body))
}
