package view

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aegis-response/aegis_console/internal/subscriber"
)

// Direction orders a projected column.
type Direction string

const (
	// Unsorted keeps the collection's own order.
	Unsorted Direction = ""
	// Ascending sorts smallest first.
	Ascending Direction = "asc"
	// Descending sorts largest first.
	Descending Direction = "desc"
)

// Sort names the active sort column and direction. The zero value means
// original collection order.
type Sort struct {
	Key       string
	Direction Direction
}

// Toggle cycles the sort state for a column: a new key starts ascending, the
// same key moves ascending to descending and then back to unsorted.
func (s Sort) Toggle(key string) Sort {
	if s.Key != key || s.Direction == Unsorted {
		return Sort{Key: key, Direction: Ascending}
	}
	if s.Direction == Ascending {
		return Sort{Key: key, Direction: Descending}
	}
	return Sort{}
}

// Row pairs a record with its selection flag for presentation.
type Row struct {
	subscriber.Record
	Selected bool
}

// Project derives the presentable view of the collection: records matching the
// query, ordered per the sort state, each annotated with its selection flag.
// It never mutates its inputs.
func Project(records []subscriber.Record, query string, s Sort, selected Selection) []Row {
	q := strings.ToLower(strings.TrimSpace(query))

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		if q != "" && !matches(rec, q) {
			continue
		}
		rows = append(rows, Row{Record: rec.Clone(), Selected: selected[rec.ID]})
	}

	if s.Key != "" && s.Direction != Unsorted {
		sortRows(rows, s)
	}

	return rows
}

func matches(rec subscriber.Record, q string) bool {
	haystacks := []string{
		rec.Name,
		rec.Email,
		strconv.FormatInt(rec.Phone, 10),
		rec.HomeAddress,
		rec.Subscription,
	}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), q) {
			return true
		}
	}
	return false
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindTime
)

func keyKind(key string) fieldKind {
	switch key {
	case "phone", "emergency_phone":
		return kindNumber
	case "created_at", "subscription_expiration":
		return kindTime
	default:
		return kindString
	}
}

// sortRows orders rows stably; records missing the sort value go last in both
// directions.
func sortRows(rows []Row, s Sort) {
	kind := keyKind(s.Key)
	sort.SliceStable(rows, func(i, j int) bool {
		var cmp int
		var aOK, bOK bool
		switch kind {
		case kindNumber:
			var a, b int64
			a, aOK = numberValue(rows[i].Record, s.Key)
			b, bOK = numberValue(rows[j].Record, s.Key)
			if aOK && bOK {
				switch {
				case a < b:
					cmp = -1
				case a > b:
					cmp = 1
				}
			}
		case kindTime:
			var a, b time.Time
			a, aOK = timeValue(rows[i].Record, s.Key)
			b, bOK = timeValue(rows[j].Record, s.Key)
			if aOK && bOK {
				switch {
				case a.Before(b):
					cmp = -1
				case a.After(b):
					cmp = 1
				}
			}
		default:
			var a, b string
			a, aOK = stringValue(rows[i].Record, s.Key)
			b, bOK = stringValue(rows[j].Record, s.Key)
			if aOK && bOK {
				cmp = strings.Compare(a, b)
			}
		}

		if !aOK || !bOK {
			// nulls sort after values regardless of direction
			return aOK && !bOK
		}
		if s.Direction == Descending {
			return cmp > 0
		}
		return cmp < 0
	})
}

func numberValue(rec subscriber.Record, key string) (int64, bool) {
	switch key {
	case "phone":
		return rec.Phone, true
	case "emergency_phone":
		if rec.EmergencyPhone == nil {
			return 0, false
		}
		return *rec.EmergencyPhone, true
	}
	return 0, false
}

func timeValue(rec subscriber.Record, key string) (time.Time, bool) {
	switch key {
	case "created_at":
		if rec.CreatedAt == nil {
			return time.Time{}, false
		}
		return *rec.CreatedAt, true
	case "subscription_expiration":
		if rec.SubscriptionExpiration == nil {
			return time.Time{}, false
		}
		return *rec.SubscriptionExpiration, true
	}
	return time.Time{}, false
}

func stringValue(rec subscriber.Record, key string) (string, bool) {
	switch key {
	case "id":
		return rec.ID, true
	case "name":
		return rec.Name, true
	case "email":
		return rec.Email, true
	case "home_address":
		return rec.HomeAddress, true
	case "subscription":
		return rec.Subscription, true
	case "profile_picture":
		if rec.ProfilePicture == nil {
			return "", false
		}
		return *rec.ProfilePicture, true
	}
	return "", false
}
