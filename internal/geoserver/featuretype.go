package geoserver

import (
	"context"
	"encoding/xml"

	"github.com/publibase/publibase/internal"
)

// FeatureType is a vector layer published from a data store. Empty fields are
// omitted from updates, leaving the existing values untouched.
type FeatureType struct {
	XMLName    xml.Name `xml:"featureType" json:"-"`
	Name       string   `xml:"name,omitempty" json:"name,omitempty"`
	NativeName string   `xml:"nativeName,omitempty" json:"nativeName,omitempty"`
	Title      string   `xml:"title,omitempty" json:"title,omitempty"`
	Abstract   string   `xml:"abstract,omitempty" json:"abstract,omitempty"`
	Advertised *bool    `xml:"advertised,omitempty" json:"advertised,omitempty"`
}

type featureTypeList struct {
	FeatureTypes collection `json:"featureTypes"`
}

type featureTypeEnvelope struct {
	FeatureType FeatureType `json:"featureType"`
}

func featureTypePath(workspace, store string, name ...string) []string {
	return append([]string{"workspaces", workspace, "datastores", store, "featuretypes"}, name...)
}

// ListFeatureTypes lists the names of the feature types of a data store.
func (c *Client) ListFeatureTypes(ctx context.Context, workspace, store string) ([]string, error) {
	var list featureTypeList
	if err := c.get(ctx, c.restURL(featureTypePath(workspace, store)...), &list); err != nil {
		return nil, err
	}
	return list.FeatureTypes.names(), nil
}

func (c *Client) GetFeatureType(ctx context.Context, workspace, store, name string) (*FeatureType, error) {
	var envelope featureTypeEnvelope
	if err := c.get(ctx, c.restURL(featureTypePath(workspace, store, name)...), &envelope); err != nil {
		return nil, err
	}
	return &envelope.FeatureType, nil
}

// UpdateFeatureType modifies the feature type with the given name. Only the
// non-empty fields of ft are changed; setting ft.Name renames it.
func (c *Client) UpdateFeatureType(ctx context.Context, workspace, store, name string, ft FeatureType) error {
	body, err := xml.Marshal(ft)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, "PUT", c.restURL(featureTypePath(workspace, store, name)...), body,
		withHeader("Content-Type", "text/xml"),
	)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// CreateFeatureType publishes a table of the data store as a feature type.
func (c *Client) CreateFeatureType(ctx context.Context, workspace, store string, ft FeatureType) error {
	if ft.Name == "" {
		return internal.ErrRequiredName
	}
	body, err := xml.Marshal(ft)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, "POST", c.restURL(featureTypePath(workspace, store)...), body,
		withHeader("Content-Type", "text/xml"),
	)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}
