// Package misc keeps build time identification of the program.
package misc

// set by linker: -X importcss/misc.version=... -X importcss/misc.gitHash=...
var (
	version = "dev"
	gitHash = "unknown"
)

const appName = "importcss"

// GetAppName returns program name used for logs, reports and temporary files.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns git revision program was built from.
func GetGitHash() string {
	return gitHash
}
