package wled

// Device is the subset of the /json document this client uses.
type Device struct {
	State    State    `json:"state"`
	Info     Info     `json:"info"`
	Effects  []string `json:"effects"`
	Palettes []string `json:"palettes"`
}

type Info struct {
	Version   string   `json:"ver"`
	VersionID int      `json:"vid"`
	Name      string   `json:"name"`
	Brand     string   `json:"brand"`
	Product   string   `json:"product"`
	MAC       string   `json:"mac"`
	IP        string   `json:"ip"`
	LEDs      LEDsInfo `json:"leds"`
}

type LEDsInfo struct {
	Count int  `json:"count"`
	RGBW  bool `json:"rgbw"`
}

type State struct {
	On         bool           `json:"on"`
	Brightness int            `json:"bri"`
	Transition int            `json:"transition"`
	Segments   []SegmentState `json:"seg"`
}

type SegmentState struct {
	ID         int     `json:"id"`
	On         *bool   `json:"on,omitempty"`
	Brightness *int    `json:"bri,omitempty"`
	Colors     [][]int `json:"col,omitempty"`
	Effect     *int    `json:"fx,omitempty"`
	Speed      *int    `json:"sx,omitempty"`
}

// stateRequest is the body POSTed to /json/state.
type stateRequest struct {
	Transition *int           `json:"transition,omitempty"`
	Segments   []SegmentState `json:"seg"`
}

// SegmentRequest describes a segment update by effect name rather than id.
type SegmentRequest struct {
	Segment      int
	On           bool
	Brightness   int
	PrimaryColor []int
	Transition   *int
	Effect       string
	Speed        *int
}
