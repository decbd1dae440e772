// Package disks offers named volume-size presets for the CLI, so `ssfs
// format --preset floppy-1.44mb image.ssfs` can pick a block count without
// the caller doing arithmetic. This is a convenience layer on top of, not a
// replacement for, the numeric `format <img> <inodes>` form named in
// spec.md section 6.
//
// Adapted from the teacher's DiskGeometry/GetPredefinedDiskGeometry, which
// loaded physical floppy/drive geometries from a CSV via gocsv. SSFS has no
// heads/tracks/sectors to model, so the preset table is flattened to the
// two numbers Volume.FormatDevice actually needs: total blocks and a
// suggested inode count.
package disks

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

//go:embed disk-presets.csv
var presetsRawCSV string

// Preset names a volume size along with a reasonable default inode count,
// looked up by Slug.
type Preset struct {
	Name          string `csv:"name"`
	Slug          string `csv:"slug"`
	NumBlocks     uint32 `csv:"num_blocks"`
	DefaultInodes uint32 `csv:"default_inodes"`
	Notes         string `csv:"notes"`
}

var presetsBySlug map[string]Preset

func init() {
	presetsBySlug = make(map[string]Preset)

	reader := strings.NewReader(presetsRawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Preset) error {
		if _, exists := presetsBySlug[row.Slug]; exists {
			return fmt.Errorf("duplicate preset slug %q", row.Slug)
		}
		presetsBySlug[row.Slug] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}

// Lookup returns the named preset, or an error if no preset uses that slug.
func Lookup(slug string) (Preset, error) {
	preset, ok := presetsBySlug[slug]
	if !ok {
		return Preset{}, fmt.Errorf("no predefined volume size exists with slug %q", slug)
	}
	return preset, nil
}

// Slugs lists every known preset slug, for `ssfs format --help`-style
// listings.
func Slugs() []string {
	slugs := make([]string, 0, len(presetsBySlug))
	for slug := range presetsBySlug {
		slugs = append(slugs, slug)
	}
	return slugs
}
