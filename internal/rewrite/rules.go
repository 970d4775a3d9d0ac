package rewrite

import (
	"regexp"
	"strconv"
)

// Workspace-relative locations of identity-bearing files.
const (
	PubspecPath         = "pubspec.yaml"
	BuildGradlePath     = "android/app/build.gradle"
	AndroidManifestPath = "android/app/src/main/AndroidManifest.xml"
	InfoPlistPath       = "ios/Runner/Info.plist"
	MainDartPath        = "lib/main.dart"
	GoogleServicesPath  = "android/app/google-services.json"

	KotlinRoot     = "android/app/src/main/kotlin"
	EntryPointName = "MainActivity.kt"
)

// mandatoryFiles must exist and every non-optional rule in them must match.
var mandatoryFiles = map[string]bool{
	PubspecPath:         true,
	BuildGradlePath:     true,
	AndroidManifestPath: true,
}

var (
	androidBlock = regexp.MustCompile(`(?m)^[ \t]*android[ \t]*\{[ \t]*$`)
	packageLine  = regexp.MustCompile(`(?m)^package[ \t]+[A-Za-z0-9_.]+[ \t]*;?[ \t]*$`)
)

// Rules returns the substitutions that turn the template identity into id,
// in application order.
func (r *Rewriter) Rules(id Identity) []Rule {
	d := r.defaults
	q := regexp.QuoteMeta

	return []Rule{
		{
			Path:        PubspecPath,
			Name:        "name",
			Anchor:      regexp.MustCompile(`(?m)^name:[ \t]*` + q(d.PackageName) + `[ \t]*$`),
			Replacement: "name: " + literal(id.PackageName),
		},
		{
			Path:        PubspecPath,
			Name:        "version",
			Anchor:      regexp.MustCompile(`(?m)^version:[ \t]*` + q(d.Version) + `[ \t]*$`),
			Replacement: "version: " + literal(id.Version),
		},
		{
			Path:        BuildGradlePath,
			Name:        "applicationId",
			Anchor:      regexp.MustCompile(`(?m)^([ \t]*applicationId[ \t]*=?[ \t]*)"` + q(d.Identifier) + `"`),
			Replacement: `${1}"` + literal(id.Identifier) + `"`,
		},
		{
			Path:        BuildGradlePath,
			Name:        "namespace",
			Anchor:      regexp.MustCompile(`(?m)^([ \t]*namespace[ \t]*=?[ \t]*)"` + q(d.Identifier) + `"`),
			Replacement: `${1}"` + literal(id.Identifier) + `"`,
		},
		{
			Path:        BuildGradlePath,
			Name:        "compileSdkVersion",
			Anchor:      regexp.MustCompile(`(?m)^([ \t]*compileSdk(?:Version)?[ \t]*=?[ \t]*)\d+`),
			Replacement: "${1}" + strconv.Itoa(r.compileSdkVersion),
		},
		{
			Path:        BuildGradlePath,
			Name:        "ndkVersion",
			Anchor:      regexp.MustCompile(`(?m)^([ \t]*ndkVersion[ \t]*=?[ \t]*)"[^"\n]*"`),
			Replacement: `${1}"` + literal(r.ndkVersion) + `"`,
			InsertAfter: androidBlock,
			Insert:      `    ndkVersion "` + r.ndkVersion + `"`,
		},
		{
			Path:        AndroidManifestPath,
			Name:        "android:label",
			Anchor:      regexp.MustCompile(`android:label="` + q(xmlEscape(d.DisplayName)) + `"`),
			Replacement: `android:label="` + literal(xmlEscape(id.DisplayName)) + `"`,
		},
		{
			Path:        AndroidManifestPath,
			Name:        "package",
			Anchor:      regexp.MustCompile(`\bpackage="` + q(d.Identifier) + `"`),
			Replacement: `package="` + literal(id.Identifier) + `"`,
			Optional:    true,
		},
		{
			Path:        AndroidManifestPath,
			Name:        "MainActivity",
			Anchor:      regexp.MustCompile(`android:name="(?:\.MainActivity|` + q(d.Identifier) + `\.MainActivity)"`),
			Replacement: `android:name="` + literal(id.Identifier) + `.MainActivity"`,
		},
		{
			Path:        InfoPlistPath,
			Name:        "CFBundleDisplayName",
			Anchor:      regexp.MustCompile(`(<key>CFBundleDisplayName</key>\s*<string>)` + q(xmlEscape(d.DisplayName)) + `(</string>)`),
			Replacement: "${1}" + literal(xmlEscape(id.DisplayName)) + "${2}",
		},
		{
			Path:        MainDartPath,
			Name:        "title",
			Anchor:      regexp.MustCompile(`(title:[ \t]*)'` + q(dartEscape(d.DisplayName)) + `'`),
			Replacement: "${1}'" + literal(dartEscape(id.DisplayName)) + "'",
		},
	}
}
