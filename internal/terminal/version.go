package terminal

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// APIVersion is the service API version terminals are checked against.
const APIVersion = "v1.0.0"

// CheckVersion validates a terminal's reported version against the
// service API version. An empty version is accepted; terminals that do
// report one must be valid semver on the same major version and at least
// as new as the API.
func CheckVersion(reported string) error {
	if reported == "" {
		return nil
	}

	v := normalizeVersion(reported)
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid terminal version %q", reported)
	}

	if semver.Major(v) != semver.Major(APIVersion) {
		return fmt.Errorf("terminal version %s incompatible with API %s", reported, APIVersion)
	}
	if semver.Compare(v, APIVersion) < 0 {
		return fmt.Errorf("terminal version %s older than API %s", reported, APIVersion)
	}

	return nil
}

// normalizeVersion adds the "v" prefix semver parsing requires.
func normalizeVersion(v string) string {
	if v == "" || v[0] == 'v' {
		return v
	}
	return "v" + v
}
