package release

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(BuildTimeLayout, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tm
}

func TestDefaultLoads(t *testing.T) {
	db := Default()
	if len(db.Keys()) == 0 {
		t.Fatal("expected bundled tables")
	}
	for _, k := range db.Keys() {
		releases := db.Releases(k)
		if len(releases) == 0 {
			t.Errorf("table %s is empty", k)
		}
		for i, r := range releases {
			if r.Ordinal != i {
				t.Errorf("%s ordinal = %d, expected %d", r.ID, r.Ordinal, i)
			}
		}
	}
}

func TestMatchExactBuildTime(t *testing.T) {
	db := Default()
	r, ok := db.Match("x86_64", 8, "1.8.0_262-b10", mustTime(t, "Jul 14 2020 17:40:17"))
	if !ok {
		t.Fatal("expected a match for 1.8.0_262-b10")
	}
	expected := Key{Platform: "rhel7", Arch: "x86_64", Major: 8}
	if r.Key != expected {
		t.Errorf("Key = %v, expected %v", r.Key, expected)
	}
	if r.Install != InstallPackage {
		t.Errorf("Install = %q, expected %q", r.Install, InstallPackage)
	}
}

func TestMatchWrongBuildTime(t *testing.T) {
	db := Default()
	if _, ok := db.Match("x86_64", 8, "1.8.0_262-b10", mustTime(t, "Jul 14 2020 17:40:18")); ok {
		t.Error("expected no match when the build time differs")
	}
}

func TestMatchDisambiguatesPlatform(t *testing.T) {
	db := Default()
	r, ok := db.Match("x86_64", 8, "1.8.0_402-b06", mustTime(t, "Jan 15 2024 20:44:12"))
	if !ok {
		t.Fatal("expected a match")
	}
	if r.Key.Platform != "rhel8" {
		t.Errorf("Platform = %q, expected rhel8", r.Key.Platform)
	}
}

func TestMidnightIsUnknown(t *testing.T) {
	db := Default()
	r, ok := db.ByID("java-17-openjdk-17.0.7.0.7-1.el8.x86_64")
	if !ok {
		t.Fatal("expected release by id")
	}
	if r.BuildKnown() {
		t.Errorf("BuildKnown() = true, expected false for a midnight build time")
	}
	m, ok := db.Match("x86_64", 17, "17.0.7+7-LTS", time.Time{})
	if !ok || m.ID != r.ID {
		t.Errorf("Match on version alone = %v, %v, expected %s", m.ID, ok, r.ID)
	}
}

func TestFindInPath(t *testing.T) {
	db := Default()
	path := "/usr/lib/jvm/java-1.8.0-openjdk-1.8.0.262.b10-0.el7_8.x86_64/jre/lib/amd64/server/libjvm.so"
	r, ok := db.FindInPath(path)
	if !ok {
		t.Fatalf("FindInPath(%q) found nothing", path)
	}
	if r.Version != "1.8.0_262-b10" {
		t.Errorf("Version = %q, expected 1.8.0_262-b10", r.Version)
	}
	if _, ok := db.FindInPath("/opt/jdk/lib/server/libjvm.so"); ok {
		t.Error("expected no match for an unrelated path")
	}
}

func TestBehind(t *testing.T) {
	db := Default()
	r, _ := db.ByID("java-1.8.0-openjdk-1.8.0.402.b06-1.el7_9.x86_64")
	n, days := db.Behind(r)
	if n != 1 {
		t.Errorf("releases behind = %d, expected 1", n)
	}
	if days < 80 || days > 100 {
		t.Errorf("days behind = %d, expected about 90", days)
	}
	latest, _ := db.Latest(r.Key)
	if n, _ := db.Behind(latest); n != 0 {
		t.Errorf("latest releases behind = %d, expected 0", n)
	}
}

func TestLoadRejectsBadInstall(t *testing.T) {
	data := []byte("- platform: x\n  arch: y\n  major: 8\n  install: tarball\n  releases: []\n")
	if _, err := Load(data); err == nil {
		t.Error("expected error for unknown install type")
	}
}
