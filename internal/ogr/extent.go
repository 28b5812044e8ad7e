package ogr

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var extentRegex = regexp.MustCompile(`^Extent: \(([^,]+), ([^)]+)\) - \(([^,]+), ([^)]+)\)`)

// Extent is a bounding box.
type Extent struct {
	MinX, MinY, MaxX, MaxY float64
}

// Args renders the extent as the xmin ymin xmax ymax arguments of -spat.
func (e Extent) Args() []string {
	return []string{formatFloat(e.MinX), formatFloat(e.MinY), formatFloat(e.MaxX), formatFloat(e.MaxY)}
}

func (e Extent) String() string {
	return fmt.Sprintf("(%s, %s) - (%s, %s)", formatFloat(e.MinX), formatFloat(e.MinY), formatFloat(e.MaxX), formatFloat(e.MaxY))
}

func (e Extent) union(other Extent) Extent {
	return Extent{
		MinX: min(e.MinX, other.MinX),
		MinY: min(e.MinY, other.MinY),
		MaxX: max(e.MaxX, other.MaxX),
		MaxY: max(e.MaxY, other.MaxY),
	}
}

// ParseExtent parses the output of ogrinfo -so -al, returning the union of
// the extents of every layer.
func ParseExtent(output []byte) (Extent, error) {
	var (
		extent Extent
		found  bool
	)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		m := extentRegex.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		var coords [4]float64
		for i, s := range m[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return Extent{}, fmt.Errorf("parsing extent: %w", err)
			}
			coords[i] = v
		}
		layerExtent := Extent{MinX: coords[0], MinY: coords[1], MaxX: coords[2], MaxY: coords[3]}
		if found {
			extent = extent.union(layerExtent)
		} else {
			extent = layerExtent
			found = true
		}
	}
	if err := scanner.Err(); err != nil {
		return Extent{}, err
	}
	if !found {
		return Extent{}, errors.New("no extent found")
	}
	return extent, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
