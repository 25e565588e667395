package mqtt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/denwilliams/go-wled-race/internal/race"
)

// parsePayload decodes event args. Besides a JSON object it accepts a JSON
// string holding an object (double encoded), an empty body, and a bare
// number or string which is taken as the pilot color.
func parsePayload(data []byte) (race.Args, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return race.Args{}, nil
	}

	var args race.Args
	if err := json.Unmarshal(data, &args); err == nil {
		if args == nil {
			args = race.Args{}
		}
		return args, nil
	}

	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		// Not JSON at all, e.g. "#ff00ff" published raw.
		return race.Args{"color": string(data)}, nil
	}

	switch v := value.(type) {
	case float64:
		return race.Args{"color": v}, nil
	case string:
		var inner race.Args
		if err := json.Unmarshal([]byte(v), &inner); err == nil && inner != nil {
			return inner, nil
		}
		return race.Args{"color": v}, nil
	}

	return nil, fmt.Errorf("unsupported payload %s", string(data))
}

type deviceIPPayload struct {
	DeviceIP *string `json:"device_ip"`
}

// parseDeviceIP accepts a bare address, a JSON string or the
// {"device_ip": "..."} object the HTTP surface takes.
func parseDeviceIP(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", nil
	}

	switch data[0] {
	case '{':
		var p deviceIPPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return "", fmt.Errorf("invalid device payload: %w", err)
		}
		if p.DeviceIP == nil {
			return "", fmt.Errorf("device payload has no device_ip")
		}
		return strings.TrimSpace(*p.DeviceIP), nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", fmt.Errorf("invalid device payload: %w", err)
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "{") {
			return parseDeviceIP([]byte(s))
		}
		return s, nil
	}

	return string(data), nil
}
