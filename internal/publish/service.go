// Package publish implements the algorithms that publish layers and manage
// styles on GeoServer.
package publish

import (
	"github.com/publibase/publibase/internal/geoserver"
	"github.com/publibase/publibase/internal/logr"
)

// Service runs GeoServer algorithms.
type Service struct {
	client *geoserver.Client
	logger logr.Logger
}

func NewService(client *geoserver.Client, logger logr.Logger) *Service {
	return &Service{client: client, logger: logger}
}
