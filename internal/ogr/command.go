package ogr

import "strings"

type (
	// Command holds the arguments of an ogr2ogr or ogrinfo invocation.
	Command struct {
		Args []string
		// Args with secrets masked
		redacted []string
	}

	// Datasource is an OGR datasource name that may embed a secret, e.g. the
	// password of a PostgreSQL connection.
	Datasource struct {
		Name string
		// Name with the secret masked
		Redacted string
	}
)

func (c *Command) add(args ...string) {
	c.Args = append(c.Args, args...)
	c.redacted = append(c.redacted, args...)
}

func (c *Command) addDatasource(ds Datasource) {
	c.Args = append(c.Args, ds.Name)
	redacted := ds.Redacted
	if redacted == "" {
		redacted = ds.Name
	}
	c.redacted = append(c.redacted, redacted)
}

// String renders the redacted arguments, quoting those containing spaces.
func (c Command) String() string {
	quoted := make([]string, len(c.redacted))
	for i, arg := range c.redacted {
		if strings.ContainsAny(arg, " \t") {
			arg = `"` + arg + `"`
		}
		quoted[i] = arg
	}
	return strings.Join(quoted, " ")
}

// ExportGeoPackage exports the source to a GeoPackage, overwriting its
// layers, optionally clipped to the geometries of a shapefile.
func ExportGeoPackage(out, clip string, src Datasource) Command {
	var cmd Command
	cmd.add("-f", "GPKG", out, "-overwrite")
	if clip != "" {
		cmd.add("-clipsrc", clip)
	}
	cmd.addDatasource(src)
	return cmd
}

// ExportShapefiles exports the source to a folder of shapefiles. List fields
// are converted to strings, the shapefile format having no list type.
func ExportShapefiles(dir, clip string, src Datasource) Command {
	var cmd Command
	cmd.add(
		"-fieldTypeToString", "IntegerList,Integer64List,RealList,StringList",
		"-lco", "ENCODING=UTF-8",
		"-f", "ESRI Shapefile", dir,
	)
	if clip != "" {
		cmd.add("-clipsrc", clip)
	}
	cmd.add("-overwrite")
	cmd.addDatasource(src)
	return cmd
}

// ExportReambulation exports the source to a GeoPackage for field
// reambulation. Constraints are relaxed so that features can be edited
// freely, and features are optionally restricted to those intersecting the
// extent.
func ExportReambulation(out string, extent *Extent, src Datasource) Command {
	var cmd Command
	cmd.add("-f", "GPKG", out, "-overwrite", "-forceNullable")
	if extent != nil {
		cmd.add("-spat")
		cmd.add(extent.Args()...)
	}
	cmd.addDatasource(src)
	return cmd
}

// ImportLayer appends the features of a GeoPackage layer to the table of the
// same name in the destination schema.
func ImportLayer(dst Datasource, gpkg, layer, schema string) Command {
	var cmd Command
	cmd.add("-f", "PostgreSQL")
	cmd.addDatasource(dst)
	cmd.add(gpkg, layer, "-append", "-nln", schema+"."+layer)
	return cmd
}
