// Copyright (c) 2023 BVK Chaitanya

package exchange

import (
	"fmt"
	"strings"
	"time"
)

// remoteLayouts lists the timestamp formats used by the exchange. Timestamps
// without a zone suffix are in UTC.
var remoteLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// RemoteTime is a timestamp reported by the exchange.
type RemoteTime struct {
	time.Time
}

func (v *RemoteTime) UnmarshalJSON(raw []byte) error {
	s := strings.Trim(string(raw), `"`)
	if s == "null" || s == "" {
		v.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range remoteLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			v.Time = t.UTC()
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("could not parse remote timestamp %q: %w", s, lastErr)
}

func (v RemoteTime) MarshalJSON() ([]byte, error) {
	if v.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf(`"%s"`, v.Time.UTC().Format(remoteLayouts[0]))), nil
}
