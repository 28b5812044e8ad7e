package geoserver

import (
	"context"
	"encoding/json"
	"strings"
)

type (
	layerEnvelope struct {
		Layer layer `json:"layer"`
	}

	layer struct {
		Name         string    `json:"name,omitempty"`
		DefaultStyle *styleRef `json:"defaultStyle,omitempty"`
	}

	styleRef struct {
		Name      string `json:"name"`
		Workspace string `json:"workspace,omitempty"`
	}
)

// QualifiedStyleName joins a workspace and style name, e.g. cite:roads. A
// style without a workspace is global and is returned unqualified.
func QualifiedStyleName(workspace, name string) string {
	if workspace == "" {
		return name
	}
	return workspace + ":" + name
}

// SplitStyleName splits a qualified style name into workspace and name. The
// workspace is empty for an unqualified name.
func SplitStyleName(qualified string) (workspace, name string) {
	workspace, name, found := strings.Cut(qualified, ":")
	if !found {
		return "", qualified
	}
	return workspace, name
}

func layerPath(workspace, name string) []string {
	return []string{"layers", workspace + ":" + name}
}

// GetLayerDefaultStyle retrieves the qualified name of the default style of a
// layer, e.g. cite:roads, or just the name for a global style. An empty string
// is returned if the layer has no default style.
func (c *Client) GetLayerDefaultStyle(ctx context.Context, workspace, name string) (string, error) {
	var envelope layerEnvelope
	if err := c.get(ctx, c.restURL(layerPath(workspace, name)...), &envelope); err != nil {
		return "", err
	}
	ref := envelope.Layer.DefaultStyle
	if ref == nil {
		return "", nil
	}
	// Some GeoServer versions return the workspace separately.
	if ref.Workspace != "" && !strings.Contains(ref.Name, ":") {
		return QualifiedStyleName(ref.Workspace, ref.Name), nil
	}
	return ref.Name, nil
}

// SetLayerDefaultStyle sets the default style of a layer to a style belonging
// to styleWorkspace, or to a global style if styleWorkspace is empty.
func (c *Client) SetLayerDefaultStyle(ctx context.Context, workspace, name, styleWorkspace, style string) error {
	body, err := json.Marshal(layerEnvelope{
		Layer: layer{DefaultStyle: &styleRef{Name: QualifiedStyleName(styleWorkspace, style)}},
	})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, "PUT", c.restURL(layerPath(workspace, name)...), body,
		withHeader("Content-Type", "application/json"),
	)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}
