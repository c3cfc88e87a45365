package domain

import "github.com/google/uuid"

// Device status values reported by the brain. Status is advisory and may
// lag behind the device's real state.
const (
	StatusOnline  = "Online"
	StatusOffline = "Offline"
)

// Device models a registered computing device. The UUID is stable and
// unique; everything else can change between fetches.
type Device struct {
	UUID          string   `json:"uuid"`
	Type          string   `json:"type"`
	Platform      string   `json:"platform"`
	Hostname      string   `json:"hostname"`
	Alias         string   `json:"alias"`
	Status        string   `json:"status"`
	HasProxy      bool     `json:"has_proxy"`
	HasVC         bool     `json:"has_vc"`
	NetworkAccess string   `json:"network_access"`
	Groups        []string `json:"groups"`
	CodeVersion   string   `json:"code_version"`
}

// DisplayName returns the alias when set, falling back to the hostname.
func (d *Device) DisplayName() string {
	if d.Alias != "" {
		return d.Alias
	}
	return d.Hostname
}

// Online reports whether the brain last saw this device online.
func (d *Device) Online() bool {
	return d.Status == StatusOnline
}

// SharesGroupWith reports whether the device and user belong to at least
// one common group.
func (d *Device) SharesGroupWith(u *User) bool {
	for _, dg := range d.Groups {
		for _, ug := range u.Groups {
			if dg == ug {
				return true
			}
		}
	}
	return false
}

// PlatformName maps a platform id to its human-readable name.
func PlatformName(platform string) string {
	switch platform {
	case "win32":
		return "Windows"
	case "linux":
		return "Linux"
	case "darwin":
		return "macOS"
	default:
		return "Unknown"
	}
}

// ValidUUID reports whether s parses as an RFC 4122 UUID.
func ValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
