// Package device describes the routers taking part in a cutover.
package device

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const DefaultSSHPort = 22

// Platform selects how commands are delivered over SSH.
type Platform string

const (
	PlatformIOSXR Platform = "cisco_xr"
	PlatformIOSXE Platform = "cisco_xe"
	PlatformIOS   Platform = "cisco_ios"
)

// Interactive reports whether the platform needs a PTY shell instead of an exec channel.
// IOS-XR drops stdin-less exec sessions on most images.
func (p Platform) Interactive() bool {
	return p == PlatformIOSXR
}

func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case "", PlatformIOSXR, "ios-xr", "iosxr":
		return PlatformIOSXR, nil
	case PlatformIOSXE, "ios-xe", "iosxe":
		return PlatformIOSXE, nil
	case PlatformIOS, "ios":
		return PlatformIOS, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// InferPlatform guesses the platform from a chassis model. It reports false
// for models it does not know. ASR903/ASR920 are matched before the ASR9
// prefixes of the XR chassis.
func InferPlatform(model string) (Platform, bool) {
	m := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(model), "-", ""))
	has := func(subs ...string) bool {
		for _, sub := range subs {
			if strings.Contains(m, sub) {
				return true
			}
		}
		return false
	}
	switch {
	case m == "":
		return "", false
	case has("ASR903", "ASR920"):
		return PlatformIOSXE, true
	case has("ASR9K", "ASR90", "ASR91", "ASR99", "XRV", "IOSXR", "NCS", "CRS"):
		return PlatformIOSXR, true
	case has("ASR1", "ISR", "CSR", "IOSXE", "C8", "C11", "C12"):
		return PlatformIOSXE, true
	case has("IOSV", "VIOS"):
		return PlatformIOS, true
	}
	return "", false
}

// Role is the part a router plays in the cutover. It decides which
// prerequisite checks apply to it.
type Role string

const (
	RoleGeneric Role = "generic"
	// RoleNewPE receives the new bundle sub-interfaces, which must be staged admin-down.
	RoleNewPE Role = "new-pe"
	// RoleLegacyPE carries the BGP session towards the new device, which must be held Idle.
	RoleLegacyPE Role = "legacy-pe"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case RoleGeneric:
		return RoleGeneric, nil
	case RoleNewPE:
		return RoleNewPE, nil
	case RoleLegacyPE:
		return RoleLegacyPE, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// InferRole classifies a chassis model string. The ASR903/ASR920 patterns are
// checked before the broader ASR99xx ones so "ASR903" never matches an XR chassis.
func InferRole(model string) Role {
	m := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(model), "-", ""))
	switch {
	case strings.Contains(m, "ASR903"):
		return RoleLegacyPE
	case strings.Contains(m, "ASR9906"):
		return RoleNewPE
	default:
		return RoleGeneric
	}
}

// Descriptor holds connection parameters for one router. Hostname is the
// identity key used in the baseline and in issue text.
type Descriptor struct {
	Hostname string   `json:"hostname" yaml:"hostname"`
	Address  string   `json:"address" yaml:"address"`
	Port     int      `json:"port,omitempty" yaml:"port,omitempty"`
	Platform Platform `json:"platform" yaml:"platform"`
	Model    string   `json:"model,omitempty" yaml:"model,omitempty"`
	Role     Role     `json:"role" yaml:"role"`
	Username string   `json:"username" yaml:"username"`
	Password string   `json:"-" yaml:"password"`
}

// Endpoint returns the host:port pair to dial.
func (d Descriptor) Endpoint() string {
	port := d.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return net.JoinHostPort(d.Address, strconv.Itoa(port))
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%s)", d.Hostname, d.Address)
}
