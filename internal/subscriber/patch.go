package subscriber

import "time"

// Patch carries a partial update keyed by the record's JSON field names,
// exactly as it arrives in a PATCH body. Values follow JSON decoding rules
// (numbers are float64, timestamps are RFC 3339 strings, null is nil).
// `id` and `created_at` are immutable and ignored if present.
type Patch map[string]any

// Apply merges the patch over base and returns the result. Only named fields
// change; unknown keys and uncoercible values are skipped.
func (p Patch) Apply(base Record) Record {
	out := base.Clone()
	for key, raw := range p {
		switch key {
		case "name":
			if v, ok := raw.(string); ok {
				out.Name = v
			}
		case "email":
			if v, ok := raw.(string); ok {
				out.Email = v
			}
		case "phone":
			if v, ok := asInt64(raw); ok {
				out.Phone = v
			}
		case "emergency_phone":
			if raw == nil {
				out.EmergencyPhone = nil
			} else if v, ok := asInt64(raw); ok {
				out.EmergencyPhone = &v
			}
		case "home_address":
			if v, ok := raw.(string); ok {
				out.HomeAddress = v
			}
		case "accepted_terms":
			if v, ok := raw.(bool); ok {
				out.AcceptedTerms = v
			}
		case "subscription":
			if v, ok := raw.(string); ok {
				out.Subscription = v
			}
		case "subscription_expiration":
			if raw == nil {
				out.SubscriptionExpiration = nil
			} else if v, ok := asTime(raw); ok {
				out.SubscriptionExpiration = &v
			}
		case "last_known_location":
			if raw == nil {
				out.LastKnownLocation = nil
			} else if v, ok := asGeoPoint(raw); ok {
				out.LastKnownLocation = &v
			}
		case "is_agent":
			if raw == nil {
				out.IsAgent = nil
			} else if v, ok := raw.(bool); ok {
				out.IsAgent = &v
			}
		case "is_safe":
			if raw == nil {
				out.IsSafe = nil
			} else if v, ok := raw.(bool); ok {
				out.IsSafe = &v
			}
		case "profile_picture":
			if raw == nil {
				out.ProfilePicture = nil
			} else if v, ok := raw.(string); ok {
				out.ProfilePicture = &v
			}
		case "device_ids":
			if raw == nil {
				out.DeviceIDs = nil
			} else if v, ok := asStringSlice(raw); ok {
				out.DeviceIDs = v
			}
		}
	}
	return out
}

func asInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

func asTime(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

func asGeoPoint(raw any) (GeoPoint, bool) {
	switch v := raw.(type) {
	case GeoPoint:
		return v, true
	case map[string]any:
		lat, latOK := asFloat64(v["latitude"])
		lng, lngOK := asFloat64(v["longitude"])
		if !latOK || !lngOK {
			return GeoPoint{}, false
		}
		return GeoPoint{Latitude: lat, Longitude: lng}, true
	default:
		return GeoPoint{}, false
	}
}

func asFloat64(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func asStringSlice(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
