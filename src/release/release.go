// Package release holds the bundled database of known OpenJDK builds used to
// fingerprint the vendor, the install type and how far behind the latest
// build a crashed runtime is.
package release

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed releases.yaml
var releasesYAML []byte

// BuildTimeLayout is the layout of the "built on" timestamp in vm_info lines.
const BuildTimeLayout = "Jan _2 2006 15:04:05"

// Install describes how a build is distributed.
type Install string

const (
	InstallPackage Install = "package"
	InstallArchive Install = "archive"
)

// Key identifies one table of releases.
type Key struct {
	Platform string
	Arch     string
	Major    int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Platform, k.Arch, k.Major)
}

// Release is one known build.
type Release struct {
	ID      string
	Version string
	// Built is the zero time when the build time is not recorded.
	Built   time.Time
	Ordinal int
	Key     Key
	Install Install
}

// BuildKnown reports whether the build time is recorded. A midnight build
// time in the table means the identity is unconfirmed.
func (r Release) BuildKnown() bool {
	return !r.Built.IsZero()
}

type tableYAML struct {
	Platform string        `yaml:"platform"`
	Arch     string        `yaml:"arch"`
	Major    int           `yaml:"major"`
	Install  Install       `yaml:"install"`
	Releases []releaseYAML `yaml:"releases"`
}

type releaseYAML struct {
	ID      string `yaml:"id"`
	Version string `yaml:"version"`
	Built   string `yaml:"built"`
}

// Database is a read-only lookup of releases by (platform, arch, major).
type Database struct {
	tables map[Key][]Release
	byID   map[string]Release
	keys   []Key
}

var (
	defaultOnce sync.Once
	defaultDB   *Database
)

// Default returns the bundled database, decoding it on first use.
// A malformed bundle is a build defect and panics.
func Default() *Database {
	defaultOnce.Do(func() {
		db, err := Load(releasesYAML)
		if err != nil {
			panic(fmt.Sprintf("release: bundled database: %v", err))
		}
		defaultDB = db
	})
	return defaultDB
}

// Load decodes a release database from YAML.
func Load(data []byte) (*Database, error) {
	var tables []tableYAML
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("decode releases: %w", err)
	}

	db := &Database{
		tables: make(map[Key][]Release),
		byID:   make(map[string]Release),
	}
	for _, t := range tables {
		key := Key{Platform: t.Platform, Arch: t.Arch, Major: t.Major}
		if _, dup := db.tables[key]; dup {
			return nil, fmt.Errorf("duplicate table %s", key)
		}
		if t.Install != InstallPackage && t.Install != InstallArchive {
			return nil, fmt.Errorf("table %s: unknown install type %q", key, t.Install)
		}
		releases := make([]Release, 0, len(t.Releases))
		for i, r := range t.Releases {
			built, err := parseBuilt(r.Built)
			if err != nil {
				return nil, fmt.Errorf("table %s release %s: %w", key, r.ID, err)
			}
			rel := Release{
				ID:      r.ID,
				Version: r.Version,
				Built:   built,
				Ordinal: i,
				Key:     key,
				Install: t.Install,
			}
			if _, dup := db.byID[r.ID]; dup {
				return nil, fmt.Errorf("duplicate release id %s", r.ID)
			}
			db.byID[r.ID] = rel
			releases = append(releases, rel)
		}
		db.tables[key] = releases
		db.keys = append(db.keys, key)
	}
	sort.Slice(db.keys, func(i, j int) bool {
		return db.keys[i].String() < db.keys[j].String()
	})
	return db, nil
}

func parseBuilt(s string) (time.Time, error) {
	t, err := time.Parse(BuildTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse build time %q: %w", s, err)
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return time.Time{}, nil
	}
	return t, nil
}

// Keys returns all table keys in a stable order.
func (d *Database) Keys() []Key {
	return append([]Key(nil), d.keys...)
}

// Releases returns the releases of one table, oldest first.
func (d *Database) Releases(k Key) []Release {
	return d.tables[k]
}

// ByID looks up a release by its package or archive identifier.
func (d *Database) ByID(id string) (Release, bool) {
	r, ok := d.byID[id]
	return r, ok
}

// Latest returns the newest release of a table.
func (d *Database) Latest(k Key) (Release, bool) {
	releases := d.tables[k]
	if len(releases) == 0 {
		return Release{}, false
	}
	return releases[len(releases)-1], true
}

// Match finds the release with the given version and build time across all
// tables for arch and major. When several tables carry the version, the one
// whose build time equals built wins; a table entry without a recorded build
// time matches on version alone and is returned only if nothing matches
// exactly.
func (d *Database) Match(arch string, major int, version string, built time.Time) (Release, bool) {
	var unconfirmed *Release
	for _, key := range d.keys {
		if key.Arch != arch || key.Major != major {
			continue
		}
		for _, r := range d.tables[key] {
			if r.Version != version {
				continue
			}
			if r.BuildKnown() && !built.IsZero() && r.Built.Equal(built) {
				return r, true
			}
			if !r.BuildKnown() && unconfirmed == nil {
				rr := r
				unconfirmed = &rr
			}
		}
	}
	if unconfirmed != nil {
		return *unconfirmed, true
	}
	return Release{}, false
}

// FindInPath returns the release whose identifier appears as a path element
// of path, as in /usr/lib/jvm/<id>/jre/lib/amd64/server/libjvm.so.
func (d *Database) FindInPath(path string) (Release, bool) {
	path = strings.ReplaceAll(path, "\\", "/")
	for _, part := range strings.Split(path, "/") {
		if r, ok := d.byID[part]; ok {
			return r, true
		}
	}
	return Release{}, false
}

// Behind reports how many releases and days r trails the latest release of
// its table. Days is unknown (-1) when either build time is not recorded.
func (d *Database) Behind(r Release) (releases int, days int) {
	latest, ok := d.Latest(r.Key)
	if !ok {
		return 0, -1
	}
	releases = latest.Ordinal - r.Ordinal
	if !latest.BuildKnown() || !r.BuildKnown() {
		return releases, -1
	}
	return releases, int(latest.Built.Sub(r.Built).Hours() / 24)
}
