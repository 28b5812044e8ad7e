package geoserver

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type (
	// collection is a GeoServer list of named resources, e.g.
	// {"style": [{"name": "roads", "href": "..."}]}. GeoServer renders an
	// empty collection as an empty string rather than an empty object.
	collection struct {
		items []namedResource
	}

	namedResource struct {
		Name string `json:"name"`
		Href string `json:"href,omitempty"`
	}
)

func (c *collection) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte(`""`)) || bytes.Equal(data, []byte("null")) {
		c.items = nil
		return nil
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("unexpected collection: %w", err)
	}
	c.items = nil
	for _, raw := range wrapper {
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '{' {
			// single item rendered as an object
			var item namedResource
			if err := json.Unmarshal(raw, &item); err != nil {
				return err
			}
			c.items = append(c.items, item)
			continue
		}
		var items []namedResource
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
		c.items = append(c.items, items...)
	}
	return nil
}

func (c collection) names() []string {
	names := make([]string, len(c.items))
	for i, item := range c.items {
		names[i] = item.Name
	}
	return names
}
