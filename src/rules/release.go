package rules

import (
	"fmt"
	"strings"

	"hserr-agent/src/analysis"
	"hserr-agent/src/facts"
	"hserr-agent/src/release"
)

// Age thresholds in days.
const (
	oldRuntimeDays = 365
	staleLogDays   = 30
)

// ltsReleases receive updates after the next feature release ships.
var ltsReleases = map[int]bool{8: true, 11: true, 17: true, 21: true, 25: true}

// latestFeatureRelease is the newest Java feature release still updated
// without being LTS.
const latestFeatureRelease = 27

func versionOrUnknown(c *Context) string {
	if v := facts.JavaVersion(c.Doc); v != "" {
		return v
	}
	return "unknown version"
}

func releaseLatest(c *Context) []Candidate {
	r, ok := facts.Release(c.Doc)
	if !ok {
		return nil
	}
	var out []Candidate
	db := release.Default()
	if behind, days := db.Behind(r); behind > 0 {
		latest, _ := db.Latest(r.Key)
		gap := ""
		if days >= 0 {
			gap = fmt.Sprintf(", built %d days later", days)
		}
		out = append(out, front(analysis.ReleaseNotLatest, r.Version, behind, latest.ID, gap)...)
	}
	if !facts.IsConfirmedRelease(c.Doc) {
		out = append(out, emit(analysis.ReleaseUnconfirmed, r.Version, r.ID)...)
	}
	return out
}

// releaseUnknownBuild flags a Red Hat built runtime missing from the
// reference database.
func releaseUnknownBuild(c *Context) []Candidate {
	if _, ok := facts.Release(c.Doc); ok {
		return nil
	}
	version := facts.JavaVersion(c.Doc)
	if version == "" || facts.Vendor(c.Doc) != facts.VendorRedHat {
		return nil
	}
	built := "at an unknown time"
	if t, ok := facts.BuildTime(c.Doc); ok {
		built = t.Format(release.BuildTimeLayout)
	}
	builder := facts.Builder(c.Doc)
	if builder == "" {
		builder = "an unknown builder"
	}
	return emit(analysis.ReleaseUnknownBuild, version, built, builder)
}

// releaseAge measures the runtime age from its build time, or from the
// crash when the build time is not printed.
func releaseAge(c *Context) []Candidate {
	from, ok := facts.BuildTime(c.Doc)
	if !ok {
		from, ok = facts.CrashTime(c.Doc)
	}
	if !ok {
		return nil
	}
	if days := facts.DaysBetween(from, c.Now); days > oldRuntimeDays {
		return emit(analysis.ReleaseOld, days)
	}
	return nil
}

func logAge(c *Context) []Candidate {
	crashed, ok := facts.CrashTime(c.Doc)
	if !ok {
		return nil
	}
	if days := facts.DaysBetween(crashed, c.Now); days > staleLogDays {
		return emit(analysis.LogStale, days)
	}
	return nil
}

func releaseEol(c *Context) []Candidate {
	if !c.MajorKnown || ltsReleases[c.Major] || c.Major >= latestFeatureRelease {
		return nil
	}
	return emit(analysis.ReleaseEol, c.Major)
}

func releaseDebug(c *Context) []Candidate {
	if facts.IsDebugBuild(c.Doc) {
		return emit(analysis.ReleaseDebugBuild)
	}
	return nil
}

func vendor(c *Context) []Candidate {
	switch v := facts.Vendor(c.Doc); v {
	case facts.VendorRedHat:
		return emit(analysis.VendorRedHat, versionOrUnknown(c))
	case facts.VendorUnknown:
		if facts.JavaVersion(c.Doc) == "" {
			return nil
		}
		return emit(analysis.VendorUnknown)
	default:
		return emit(analysis.VendorOther, v)
	}
}

func installType(c *Context) []Candidate {
	r, _ := facts.Release(c.Doc)
	switch facts.InstallType(c.Doc) {
	case facts.InstallPackage:
		return emit(analysis.InstallPackage, r.ID)
	case facts.InstallArchive:
		return emit(analysis.InstallArchive, r.ID)
	case facts.InstallRepackaged:
		home := facts.JavaHome(c.Doc)
		if home == "" {
			home = "an unknown directory"
		}
		return emit(analysis.InstallRepackaged, r.ID, home)
	}
	return nil
}

// rhelSupportEnds is the last RHEL major out of maintenance support.
const rhelSupportEnds = 7

// osRelease compares the RHEL release the package was built for with the
// one it runs on.
func osRelease(c *Context) []Candidate {
	var out []Candidate
	rhel, known := facts.RhelMajor(c.Doc).Get()
	if known && rhel <= rhelSupportEnds && facts.IsRhelFamily(c.Doc) {
		out = append(out, emit(analysis.OsRhelEol, rhel)...)
	}
	r, ok := facts.Release(c.Doc)
	if !ok || !strings.HasPrefix(r.Key.Platform, "rhel") {
		return out
	}
	if known && r.Key.Platform != fmt.Sprintf("rhel%d", rhel) {
		out = append(out, emit(analysis.OsRuntimeMismatch, r.ID, strings.ToUpper(r.Key.Platform[:4])+" "+r.Key.Platform[4:], rhel)...)
	}
	if c.OS == facts.OsLinux && facts.OsVendor(c.Doc) != "" && !facts.IsRhelFamily(c.Doc) && facts.OsVendor(c.Doc) != "fedora" {
		out = append(out, emit(analysis.OsUnsupported, facts.OsText(c.Doc))...)
	}
	return out
}
