package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/henneberg-systemdesign/devsync/internal/category"
	"github.com/henneberg-systemdesign/devsync/internal/devsyncerr"
)

// Overrides is the optional .devsync-categories.yaml file (SPEC_FULL.md
// domain stack): it lets a project attach additional marker filenames to
// one of the existing build/special categories, without touching the
// fixed SyncOptions toggle set or the built-in rule order. A category
// recognized only via an override is still gated by that category's own
// toggle (e.g. an extra Cargo marker is still off by default).
type Overrides struct {
	Markers []MarkerOverride `yaml:"markers"`
}

// MarkerOverride says "if a directory contains Entry, also recognize it as
// Category" — Category must name one of the existing build/special tags.
type MarkerOverride struct {
	Category string `yaml:"category"`
	Entry    string `yaml:"entry"`
}

var overridableCategories = map[string]category.Category{
	"cargo":   category.BuildCargo,
	"cmake":   category.BuildCMake,
	"flutter": category.BuildFlutter,
	"meson":   category.BuildMeson,
	"ninja":   category.BuildNinja,
	"yocto":   category.SpecialYocto,
	"sysroot": category.SpecialSysroot,
}

// LoadOverrides reads and validates a .devsync-categories.yaml file. A
// missing file is not an error — it simply means no overrides apply.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, devsyncerr.New(devsyncerr.Config, path, err)
	}

	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, devsyncerr.New(devsyncerr.Config, path, err)
	}

	for _, m := range o.Markers {
		if _, ok := overridableCategories[m.Category]; !ok {
			return nil, devsyncerr.Newf(devsyncerr.Config, path,
				"unknown override category %q (want one of cargo, cmake, flutter, meson, ninja, yocto, sysroot)", m.Category)
		}
		if m.Entry == "" {
			return nil, devsyncerr.Newf(devsyncerr.Config, path, "override for category %q has an empty entry", m.Category)
		}
	}
	return &o, nil
}

// rules converts each marker override into a recognition rule, inserted
// ahead of Plain but after the built-in table — an override never takes
// priority over a built-in recognition (§4.B order is otherwise fixed).
func (o *Overrides) rules() []rule {
	out := make([]rule, 0, len(o.Markers))
	for _, m := range o.Markers {
		cat := overridableCategories[m.Category]
		entry := m.Entry
		out = append(out, rule{
			cat: cat,
			recognize: func(names map[string]bool) bool {
				return names[entry]
			},
		})
	}
	return out
}

func (m MarkerOverride) String() string {
	return fmt.Sprintf("%s:%s", m.Category, m.Entry)
}
