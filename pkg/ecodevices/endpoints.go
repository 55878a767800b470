package ecodevices

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// Known device paths.
const (
	PathStatus    = "/status.xml"
	PathTeleinfo1 = "/protect/settings/teleinfo1.xml"
	PathTeleinfo2 = "/protect/settings/teleinfo2.xml"
)

// Profile selects how a device generation lays out its data.
type Profile int

const (
	// ProfileSingleEndpoint serves everything from /status.xml.
	ProfileSingleEndpoint Profile = iota
	// ProfileSplitEndpoint serves teleinformation from the
	// /protect/settings/teleinfoN.xml pages and the rest from /status.xml.
	ProfileSplitEndpoint
)

func (p Profile) valid() bool {
	return p == ProfileSingleEndpoint || p == ProfileSplitEndpoint
}

// String returns the profile name used by ParseProfile.
func (p Profile) String() string {
	switch p {
	case ProfileSingleEndpoint:
		return "single"
	case ProfileSplitEndpoint:
		return "split"
	default:
		return fmt.Sprintf("Profile(%d)", int(p))
	}
}

// ParseProfile converts "single" or "split" to a Profile.
func ParseProfile(s string) (Profile, error) {
	switch s {
	case "", "single":
		return ProfileSingleEndpoint, nil
	case "split":
		return ProfileSplitEndpoint, nil
	default:
		return 0, fmt.Errorf("unknown profile %q", s)
	}
}

// Channel identifies one of the two teleinfo or counter inputs.
type Channel int

const (
	Channel1 Channel = 1
	Channel2 Channel = 2
)

// Validate returns ErrInvalidChannel for anything other than 1 or 2.
func (ch Channel) Validate() error {
	if ch != Channel1 && ch != Channel2 {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, int(ch))
	}
	return nil
}

// ParseChannel converts "1" or "2" to a Channel.
func ParseChannel(s string) (Channel, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChannel, s)
	}
	ch := Channel(n)
	if err := ch.Validate(); err != nil {
		return 0, err
	}
	return ch, nil
}

// teleinfoPath returns the path holding teleinfo data for ch.
func (p Profile) teleinfoPath(ch Channel) string {
	if p != ProfileSplitEndpoint {
		return PathStatus
	}
	if ch == Channel2 {
		return PathTeleinfo2
	}
	return PathTeleinfo1
}

// globalPaths returns every path merged by GlobalGet, in merge order.
func (p Profile) globalPaths() []string {
	if p == ProfileSplitEndpoint {
		return []string{PathStatus, PathTeleinfo1, PathTeleinfo2}
	}
	return []string{PathStatus}
}

// endpointURL builds the absolute URL for path on host:port.
func endpointURL(host string, port int, path string) string {
	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   path,
	}
	return u.String()
}
