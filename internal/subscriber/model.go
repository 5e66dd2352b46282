package subscriber

import "time"

// GeoPoint is a last-reported latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Record represents a subscriber managed through the console. Optional fields
// are pointer typed so that absent and null survive a round trip through the
// store unchanged.
type Record struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Email                  string     `json:"email"`
	Phone                  int64      `json:"phone"`
	EmergencyPhone         *int64     `json:"emergency_phone"`
	HomeAddress            string     `json:"home_address"`
	AcceptedTerms          bool       `json:"accepted_terms"`
	Subscription           string     `json:"subscription"`
	SubscriptionExpiration *time.Time `json:"subscription_expiration,omitempty"`
	LastKnownLocation      *GeoPoint  `json:"last_known_location"`
	IsAgent                *bool      `json:"is_agent,omitempty"`
	IsSafe                 *bool      `json:"is_safe,omitempty"`
	ProfilePicture         *string    `json:"profile_picture"`
	DeviceIDs              []string   `json:"device_ids,omitempty"`
	CreatedAt              *time.Time `json:"created_at,omitempty"`
}

// Clone returns a deep copy so that rollback snapshots cannot be mutated
// through shared pointers or slices.
func (r Record) Clone() Record {
	out := r
	if r.EmergencyPhone != nil {
		v := *r.EmergencyPhone
		out.EmergencyPhone = &v
	}
	if r.SubscriptionExpiration != nil {
		v := *r.SubscriptionExpiration
		out.SubscriptionExpiration = &v
	}
	if r.LastKnownLocation != nil {
		v := *r.LastKnownLocation
		out.LastKnownLocation = &v
	}
	if r.IsAgent != nil {
		v := *r.IsAgent
		out.IsAgent = &v
	}
	if r.IsSafe != nil {
		v := *r.IsSafe
		out.IsSafe = &v
	}
	if r.ProfilePicture != nil {
		v := *r.ProfilePicture
		out.ProfilePicture = &v
	}
	if r.DeviceIDs != nil {
		out.DeviceIDs = append([]string(nil), r.DeviceIDs...)
	}
	if r.CreatedAt != nil {
		v := *r.CreatedAt
		out.CreatedAt = &v
	}
	return out
}
