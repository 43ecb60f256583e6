package types

import "time"

// IPVersion represents an IP protocol version
type IPVersion string

const (
	IPv4 IPVersion = "ipv4"
	IPv6 IPVersion = "ipv6"
)

// StateFormatVersion is the current on-disk state format
const StateFormatVersion = 2

// Snapshot represents the detected public addresses at one point in time.
// An empty string means the protocol was disabled or undetectable.
type Snapshot struct {
	IPv4      string    `json:"ipv4,omitempty"`
	IPv6      string    `json:"ipv6,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Addr returns the snapshot's address for the given protocol
func (s Snapshot) Addr(version IPVersion) string {
	if version == IPv6 {
		return s.IPv6
	}
	return s.IPv4
}

// Empty reports whether no address was detected for either protocol
func (s Snapshot) Empty() bool {
	return s.IPv4 == "" && s.IPv6 == ""
}

// State represents the persisted last-known address record
type State struct {
	FormatVersion int       `json:"format_version"`
	IPv4          string    `json:"ipv4,omitempty"`
	IPv6          string    `json:"ipv6,omitempty"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Addr returns the stored address for the given protocol
func (s *State) Addr(version IPVersion) string {
	if version == IPv6 {
		return s.IPv6
	}
	return s.IPv4
}

// EventKind classifies the result of comparing a snapshot to stored state
type EventKind string

const (
	EventFirstRun  EventKind = "first_run"
	EventUnchanged EventKind = "unchanged"
	EventChanged   EventKind = "changed"
)

// ChangeEvent represents a classified comparison of a snapshot against
// the persisted state
type ChangeEvent struct {
	ID               string      `json:"id"`
	Kind             EventKind   `json:"kind"`
	Current          Snapshot    `json:"current"`
	Previous         *State      `json:"previous,omitempty"`
	ChangedProtocols []IPVersion `json:"changed_protocols,omitempty"`
	Geo              *GeoInfo    `json:"geo,omitempty"`
}

// Changed reports whether the given protocol is in the changed set
func (e *ChangeEvent) Changed(version IPVersion) bool {
	for _, v := range e.ChangedProtocols {
		if v == version {
			return true
		}
	}
	return false
}

// PreviousAddr returns the previous address for the given protocol,
// or empty when there is no prior state
func (e *ChangeEvent) PreviousAddr(version IPVersion) string {
	if e.Previous == nil {
		return ""
	}
	return e.Previous.Addr(version)
}

// GeoInfo represents optional geographic enrichment for the current address
type GeoInfo struct {
	City     string `json:"city,omitempty"`
	Region   string `json:"region,omitempty"`
	Country  string `json:"country,omitempty"`
	Org      string `json:"org,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// UpdateInfo describes a newer released version of the program
type UpdateInfo struct {
	CurrentVersion string `json:"current_version"`
	LatestVersion  string `json:"latest_version"`
	ReleaseURL     string `json:"release_url"`
	ReleaseNotes   string `json:"release_notes,omitempty"`
}

// FinalStatus represents the terminal state of a delivery attempt sequence
type FinalStatus string

const (
	StatusSuccess   FinalStatus = "success"
	StatusExhausted FinalStatus = "exhausted"
)

// Attempt records one delivery attempt within a retry sequence
type Attempt struct {
	Number int           `json:"number"`
	OK     bool          `json:"ok"`
	Error  string        `json:"error,omitempty"`
	Delay  time.Duration `json:"delay_before_attempt"`
}

// NotificationResult represents the per-provider outcome of one dispatch
type NotificationResult struct {
	Provider    string      `json:"provider"`
	Attempts    []Attempt   `json:"attempts"`
	FinalStatus FinalStatus `json:"final_status"`
}
