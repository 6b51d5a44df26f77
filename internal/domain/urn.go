package domain

import (
	"fmt"
	"strings"
)

const (
	urnPrefix             = "urn:li:"
	corpUserURNPrefix     = urnPrefix + "corpuser:"
	tagURNPrefix          = urnPrefix + "tag:"
	glossaryTermURNPrefix = urnPrefix + "glossaryTerm:"
	dataPlatformURNPrefix = urnPrefix + "dataPlatform:"
)

// MakeUserURN returns the corpuser urn for a username. An argument that is
// already a corpuser urn is returned as is.
func MakeUserURN(username string) string {
	if strings.HasPrefix(username, corpUserURNPrefix) {
		return username
	}
	return corpUserURNPrefix + username
}

// MakeTagURN returns the tag urn for a tag name.
func MakeTagURN(tag string) string {
	if strings.HasPrefix(tag, tagURNPrefix) {
		return tag
	}
	return tagURNPrefix + tag
}

func MakeGlossaryTermURN(name string) string {
	return glossaryTermURNPrefix + name
}

func MakeDataPlatformURN(platform string) string {
	if strings.HasPrefix(platform, dataPlatformURNPrefix) {
		return platform
	}
	return dataPlatformURNPrefix + platform
}

// MakeDatasetURN builds urn:li:dataset:(urn:li:dataPlatform:<platform>,<name>,<env>).
func MakeDatasetURN(platform, name, env string) string {
	return fmt.Sprintf("%sdataset:(%s,%s,%s)", urnPrefix, MakeDataPlatformURN(platform), name, env)
}

func MakeChartURN(platform, name string) string {
	return fmt.Sprintf("%schart:(%s,%s)", urnPrefix, platform, name)
}

func MakeDashboardURN(platform, name string) string {
	return fmt.Sprintf("%sdashboard:(%s,%s)", urnPrefix, platform, name)
}
