// Package facts derives crash-report properties from a parsed document.
// Every function is a pure read of the document; a property that cannot
// be determined is returned as an unknown opt.Value or a zero value.
package facts

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"hserr-agent/src/document"
	"hserr-agent/src/event"
	"hserr-agent/src/opt"
	"hserr-agent/src/release"
)

// OS families.
const (
	OsLinux   = "linux"
	OsWindows = "windows"
	OsMacOS   = "macos"
	OsSolaris = "solaris"
	OsAix     = "aix"
)

// Vendors.
const (
	VendorRedHat    = "Red Hat"
	VendorAdoptium  = "Eclipse Adoptium"
	VendorAzul      = "Azul"
	VendorAmazon    = "Amazon"
	VendorMicrosoft = "Microsoft"
	VendorOracle    = "Oracle"
	VendorIBM       = "IBM"
	VendorUnknown   = ""
)

// Install types.
const (
	InstallPackage    = "package"
	InstallArchive    = "archive"
	InstallRepackaged = "repackaged"
	InstallUnknown    = ""
)

var (
	javaVersion8Pattern   = regexp.MustCompile(`^1\.(\d+)\.0(?:_(\d+))?`)
	javaVersionPattern    = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?`)
	headerPlatformPattern = regexp.MustCompile(`\b(linux|windows|bsd|solaris|aix)-(amd64|x86_64|aarch64|ppc64le|ppc64|s390x|x86|i386|sparcv9|arm)\b`)
	osReleasePattern      = regexp.MustCompile(`release (\d+)(?:\.(\d+))?`)
	kernelElPattern       = regexp.MustCompile(`\.el(\d+)`)
	redHatTagPattern      = regexp.MustCompile(`\(Red_Hat-[^)]+\)`)
)

// Arch returns the normalized CPU architecture: x86_64, aarch64, ppc64le,
// s390x, x86 or "".
func Arch(doc *document.Document) string {
	if e, ok := doc.Singleton(event.Uname); ok {
		if a := normalizeArch(event.UnameLine{Event: e}.Arch()); a != "" {
			return a
		}
	}
	if p := platform(doc); p != "" {
		if i := strings.Index(p, "-"); i >= 0 {
			return normalizeArch(p[i+1:])
		}
	}
	return ""
}

func normalizeArch(a string) string {
	switch strings.ToLower(a) {
	case "x86_64", "amd64":
		return "x86_64"
	case "aarch64", "arm64":
		return "aarch64"
	case "ppc64le":
		return "ppc64le"
	case "ppc64":
		return "ppc64"
	case "s390x":
		return "s390x"
	case "x86", "i386", "i486", "i586", "i686":
		return "x86"
	case "sparcv9":
		return "sparcv9"
	case "arm":
		return "arm"
	}
	return ""
}

// platform returns the "os-arch" build platform from vm_info or the
// "# Java VM:" header line.
func platform(doc *document.Document) string {
	if e, ok := doc.Singleton(event.VmInfo); ok {
		if p := (event.VmInfoLine{Event: e}).Platform(); p != "" {
			return p
		}
	}
	for _, h := range doc.Headers() {
		if h.IsJavaVm() {
			if m := headerPlatformPattern.FindStringSubmatch(h.JavaVm()); m != nil {
				return m[0]
			}
		}
	}
	return ""
}

// Bits returns the addressing width of the process, 32 or 64.
func Bits(doc *document.Document) opt.Value[int] {
	switch Arch(doc) {
	case "":
	case "x86", "arm":
		return opt.Some(32)
	default:
		return opt.Some(64)
	}
	if e, ok := doc.Singleton(event.VmInfo); ok {
		name := (event.VmInfoLine{Event: e}).VmName()
		if strings.Contains(name, "64-Bit") {
			return opt.Some(64)
		}
		if name != "" {
			return opt.Some(32)
		}
	}
	return opt.None[int]()
}

// OsFamily returns linux, windows, macos, solaris, aix or "".
func OsFamily(doc *document.Document) string {
	if e, ok := doc.Singleton(event.Uname); ok {
		switch (event.UnameLine{Event: e}).Family() {
		case "Linux":
			return OsLinux
		case "SunOS":
			return OsSolaris
		case "AIX":
			return OsAix
		case "Darwin":
			return OsMacOS
		}
	}
	if p := platform(doc); p != "" {
		switch {
		case strings.HasPrefix(p, "linux"):
			return OsLinux
		case strings.HasPrefix(p, "windows"):
			return OsWindows
		case strings.HasPrefix(p, "bsd"):
			return OsMacOS
		case strings.HasPrefix(p, "solaris"):
			return OsSolaris
		case strings.HasPrefix(p, "aix"):
			return OsAix
		}
	}
	text := OsText(doc)
	switch {
	case strings.Contains(text, "Windows"):
		return OsWindows
	case strings.Contains(text, "Linux"):
		return OsLinux
	}
	return ""
}

// OsText returns the operating system description: the OS section, then
// the Host line.
func OsText(doc *document.Document) string {
	for _, e := range doc.Events(event.Os) {
		if t := (event.OsLine{Event: e}).Text(); t != "" {
			return t
		}
	}
	if e, ok := doc.Singleton(event.Host); ok {
		return (event.HostLine{Event: e}).OsText()
	}
	return ""
}

// OsVendor returns the distribution family: rhel, centos, rocky, alma,
// oracle, fedora, amazon, suse, ubuntu, debian, alpine, windows or "".
func OsVendor(doc *document.Document) string {
	text := OsText(doc)
	switch {
	case strings.Contains(text, "Red Hat Enterprise Linux"):
		return "rhel"
	case strings.Contains(text, "CentOS"):
		return "centos"
	case strings.Contains(text, "Rocky Linux"):
		return "rocky"
	case strings.Contains(text, "AlmaLinux"):
		return "alma"
	case strings.Contains(text, "Oracle Linux"):
		return "oracle"
	case strings.Contains(text, "Fedora"):
		return "fedora"
	case strings.Contains(text, "Amazon Linux"):
		return "amazon"
	case strings.Contains(text, "SUSE"):
		return "suse"
	case strings.Contains(text, "Ubuntu"):
		return "ubuntu"
	case strings.Contains(text, "Debian"):
		return "debian"
	case strings.Contains(text, "Alpine"):
		return "alpine"
	case strings.Contains(text, "Windows"):
		return "windows"
	}
	return ""
}

// IsRhelFamily reports RHEL or a rebuild of it.
func IsRhelFamily(doc *document.Document) bool {
	switch OsVendor(doc) {
	case "rhel", "centos", "rocky", "alma", "oracle":
		return true
	}
	return false
}

// RhelMajor returns the RHEL major version from the OS description, then
// from an ".elN" kernel release.
func RhelMajor(doc *document.Document) opt.Value[int] {
	if IsRhelFamily(doc) {
		if m := osReleasePattern.FindStringSubmatch(OsText(doc)); m != nil {
			return atoi(m[1])
		}
	}
	if e, ok := doc.Singleton(event.Uname); ok {
		if m := kernelElPattern.FindStringSubmatch((event.UnameLine{Event: e}).Kernel()); m != nil {
			return atoi(m[1])
		}
	}
	return opt.None[int]()
}

// JavaVersion returns the runtime release string, as in 1.8.0_262-b10 or
// 17.0.9+9-LTS: vm_info first, then the "# JRE version:" build.
func JavaVersion(doc *document.Document) string {
	if e, ok := doc.Singleton(event.VmInfo); ok {
		if r := (event.VmInfoLine{Event: e}).Release(); r != "" {
			return r
		}
	}
	for _, h := range doc.Headers() {
		if b := h.JreBuild(); b != "" {
			return b
		}
	}
	return ""
}

// JavaMajor returns the feature release, as in 8 or 17.
func JavaMajor(doc *document.Document) opt.Value[int] {
	major, _ := splitVersion(JavaVersion(doc))
	return major
}

// JavaUpdate returns the update number, as in 262 for 1.8.0_262 or 9 for
// 17.0.9.
func JavaUpdate(doc *document.Document) opt.Value[int] {
	_, update := splitVersion(JavaVersion(doc))
	return update
}

func splitVersion(v string) (major, update opt.Value[int]) {
	if m := javaVersion8Pattern.FindStringSubmatch(v); m != nil {
		return atoi(m[1]), atoi(m[2])
	}
	if m := javaVersionPattern.FindStringSubmatch(v); m != nil {
		return atoi(m[1]), atoi(m[3])
	}
	return opt.None[int](), opt.None[int]()
}

func atoi(s string) opt.Value[int] {
	n, err := strconv.Atoi(s)
	if err != nil {
		return opt.None[int]()
	}
	return opt.Some(n)
}

// BuildTime returns the build time from vm_info.
func BuildTime(doc *document.Document) (time.Time, bool) {
	e, ok := doc.Singleton(event.VmInfo)
	if !ok {
		return time.Time{}, false
	}
	return event.VmInfoLine{Event: e}.Built()
}

// Builder returns the user that built the runtime, as in mockbuild.
func Builder(doc *document.Document) string {
	e, ok := doc.Singleton(event.VmInfo)
	if !ok {
		return ""
	}
	return event.VmInfoLine{Event: e}.Builder()
}

// JvmLibraryPath returns the path of the mapped libjvm.so or jvm.dll.
func JvmLibraryPath(doc *document.Document) string {
	for _, m := range doc.Libraries() {
		if m.IsJvmLibrary() {
			return m.Path()
		}
	}
	return ""
}

// Release returns the known build the runtime matches: the vm_info version
// and build time first, then a release identifier in the libjvm path.
func Release(doc *document.Document) (release.Release, bool) {
	db := release.Default()
	major, ok := JavaMajor(doc).Get()
	version := JavaVersion(doc)
	built, hasBuilt := BuildTime(doc)
	if ok && version != "" {
		if r, found := db.Match(Arch(doc), major, version, built); found {
			return r, true
		}
	}
	if p := JvmLibraryPath(doc); p != "" {
		r, found := db.FindInPath(p)
		// A build time that contradicts the record means a different build
		// was placed under the package path.
		if found && hasBuilt && r.BuildKnown() && !r.Built.Equal(built) {
			return release.Release{}, false
		}
		return r, found
	}
	return release.Release{}, false
}

// IsConfirmedRelease reports a match on both version and recorded build
// time, or on a release identifier in the library path.
func IsConfirmedRelease(doc *document.Document) bool {
	r, ok := Release(doc)
	if !ok {
		return false
	}
	if r.BuildKnown() {
		return true
	}
	p := JvmLibraryPath(doc)
	return p != "" && strings.Contains(strings.ReplaceAll(p, "\\", "/"), "/"+r.ID+"/")
}

// runtimeText returns the "# JRE version:" and "# Java VM:" text.
func runtimeText(doc *document.Document) string {
	var parts []string
	for _, h := range doc.Headers() {
		if h.IsJreVersion() {
			parts = append(parts, h.JreVersion())
		}
		if h.IsJavaVm() {
			parts = append(parts, h.JavaVm())
		}
	}
	if e, ok := doc.Singleton(event.VmInfo); ok {
		parts = append(parts, e.Line)
	}
	return strings.Join(parts, " ")
}

// Vendor identifies who built the runtime. A confirmed reference database
// match identifies a Red Hat build; otherwise the vendor strings of the JRE
// and VM lines decide, and an unconfirmed match comes last.
func Vendor(doc *document.Document) string {
	if IsConfirmedRelease(doc) {
		return VendorRedHat
	}
	text := runtimeText(doc)
	if e, ok := doc.Singleton(event.VmInfo); ok && (event.VmInfoLine{Event: e}).VendorTag() != "" {
		return VendorAzul
	}
	switch {
	case redHatTagPattern.MatchString(text):
		return VendorRedHat
	case strings.Contains(text, "Temurin"), strings.Contains(text, "AdoptOpenJDK"):
		return VendorAdoptium
	case strings.Contains(text, "Zulu"):
		return VendorAzul
	case strings.Contains(text, "Corretto"):
		return VendorAmazon
	case strings.Contains(text, "Microsoft"):
		return VendorMicrosoft
	case strings.Contains(text, "IBM"), strings.Contains(text, "Semeru"):
		return VendorIBM
	case strings.Contains(text, "Java HotSpot(TM)"):
		return VendorOracle
	}
	if _, ok := Release(doc); ok || Builder(doc) == "mockbuild" {
		return VendorRedHat
	}
	return VendorUnknown
}

// InstallType classifies the deployment. Package tables give a package
// install unless libjvm is mapped from outside /usr/lib/jvm, which means
// the package contents were copied elsewhere.
func InstallType(doc *document.Document) string {
	r, ok := Release(doc)
	if !ok {
		return InstallUnknown
	}
	if r.Install == release.InstallArchive {
		return InstallArchive
	}
	p := JvmLibraryPath(doc)
	if p == "" || strings.HasPrefix(p, "/usr/lib/jvm/") {
		return InstallPackage
	}
	return InstallRepackaged
}

// JavaHome returns the runtime directory derived from the libjvm path.
func JavaHome(doc *document.Document) string {
	p := strings.ReplaceAll(JvmLibraryPath(doc), "\\", "/")
	for _, marker := range []string{"/jre/lib/", "/lib/", "/bin/"} {
		if i := strings.LastIndex(p, marker); i > 0 {
			return p[:i]
		}
	}
	return ""
}

// IsDebugBuild reports a fastdebug or slowdebug runtime.
func IsDebugBuild(doc *document.Document) bool {
	text := runtimeText(doc)
	return strings.Contains(text, "fastdebug") || strings.Contains(text, "slowdebug")
}
