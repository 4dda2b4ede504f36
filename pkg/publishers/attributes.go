package publishers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Attribute keys attached to every message next to the JSON body, so sinks
// can route or filter without parsing the payload.
const (
	AttrWatchID      = "watch_id"
	AttrPath         = "path"
	AttrLastModified = "last_modified"
)

// attributes returns the routing attributes for evt. Empty values are omitted.
func (evt Event) attributes() map[string]string {
	attrs := map[string]string{AttrWatchID: evt.WatchID, AttrPath: evt.Path}
	if evt.LastModified != "" {
		attrs[AttrLastModified] = evt.LastModified
	}
	for k, v := range attrs {
		if v == "" {
			delete(attrs, k)
		}
	}
	return attrs
}

// dedupKey identifies one version of a watched resource. Two events for the
// same watch and Last-Modified share a key.
func (evt Event) dedupKey() string {
	sum := sha256.Sum256([]byte(evt.WatchID + "\x00" + evt.LastModified))
	return hex.EncodeToString(sum[:])
}

func (evt Event) marshal() ([]byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal event %q: %w", evt.WatchID, err)
	}
	return payload, nil
}
