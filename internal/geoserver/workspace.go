package geoserver

import (
	"context"
	"encoding/xml"
	"net/http"

	"github.com/publibase/publibase/internal"
)

type workspacePayload struct {
	XMLName xml.Name `xml:"workspace"`
	Name    string   `xml:"name"`
}

// CreateWorkspace creates a workspace. GeoServer must answer 201 Created;
// any other response is an error.
func (c *Client) CreateWorkspace(ctx context.Context, name string) error {
	if name == "" {
		return internal.ErrRequiredName
	}
	body, err := xml.Marshal(workspacePayload{Name: name})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, "POST", c.restURL("workspaces"), body, withHeader("Content-Type", "text/xml"))
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return &internal.HTTPError{Code: resp.StatusCode, Message: "expected 201 Created"}
	}
	return nil
}
