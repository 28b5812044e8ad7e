package geoserver

import (
	"context"
	"strconv"

	"github.com/publibase/publibase/internal/style"
)

type styleList struct {
	Styles collection `json:"styles"`
}

// ListStyles lists the names of the styles of a workspace.
func (c *Client) ListStyles(ctx context.Context, workspace string) ([]string, error) {
	var list styleList
	if err := c.get(ctx, c.restURL("workspaces", workspace, "styles"), &list); err != nil {
		return nil, err
	}
	return list.Styles.names(), nil
}

// GetStyleSLD retrieves the SLD document of a workspace style.
func (c *Client) GetStyleSLD(ctx context.Context, workspace, name string) ([]byte, error) {
	return c.getRaw(ctx, c.restURL("workspaces", workspace, "styles", name+style.SLDExt))
}

// UploadStyleZip creates a workspace style from a zip archive containing an
// SLD document.
func (c *Client) UploadStyleZip(ctx context.Context, workspace, name string, zip []byte) error {
	req, err := c.newRequest(ctx, "POST", c.restURL("workspaces", workspace, "styles"), zip,
		withHeader("Content-Type", "application/zip"),
		withQuery("name", name),
	)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// DeleteStyle deletes a workspace style. If recurse is true then layers using
// the style are reassigned the default style; otherwise GeoServer refuses to
// delete a style that is in use.
func (c *Client) DeleteStyle(ctx context.Context, workspace, name string, recurse bool) error {
	req, err := c.newRequest(ctx, "DELETE", c.restURL("workspaces", workspace, "styles", name), nil,
		withQuery("recurse", strconv.FormatBool(recurse)),
	)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}
