package device

import (
	"context"
	"errors"

	"github.com/denwilliams/go-wled-race/internal/lighting"
	"github.com/denwilliams/go-wled-race/internal/logging"
	"github.com/denwilliams/go-wled-race/internal/wled"
)

const (
	Namespace      = "wled"
	OptionDeviceIP = "device_ip"

	segmentID  = 0
	brightness = 128
)

// Options is the plugin-scoped key/value store the device address lives in.
type Options interface {
	Option(key, namespace string) string
}

// Session is one open conversation with a device.
type Session interface {
	Segment(ctx context.Context, req wled.SegmentRequest) error
	Device() *wled.Device
	Close() error
}

type Connector interface {
	Connect(ctx context.Context, address string) (Session, error)
}

// WLEDConnector opens real HTTP sessions.
type WLEDConnector struct {
	Options []wled.Option
}

func (w WLEDConnector) Connect(ctx context.Context, address string) (Session, error) {
	c, err := wled.Connect(ctx, address, w.Options...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type Adapter struct {
	options   Options
	connector Connector
}

func NewAdapter(options Options, connector Connector) *Adapter {
	return &Adapter{options: options, connector: connector}
}

// Address reads the configured device address. It is not cached.
func (a *Adapter) Address() string {
	return a.options.Option(OptionDeviceIP, Namespace)
}

// Send delivers one command. The session is opened for this call only and is
// always closed before returning.
func (a *Adapter) Send(ctx context.Context, cmd lighting.Command) (err error) {
	address := a.Address()
	defer func() {
		devicesCommanded.WithLabelValues(string(cmd.Effect), resultLabel(err)).Inc()
	}()

	session, err := a.connector.Connect(ctx, address)
	if err != nil {
		return err
	}
	defer session.Close()

	transition, speed := cmd.Transition, cmd.Speed
	err = session.Segment(ctx, wled.SegmentRequest{
		Segment:      segmentID,
		On:           true,
		Brightness:   brightness,
		PrimaryColor: cmd.Color.Slice(),
		Transition:   &transition,
		Effect:       string(cmd.Effect),
		Speed:        &speed,
	})
	if err != nil {
		return err
	}

	logging.Debug("Sent %s to %s", cmd, address)
	return nil
}

// Test opens a session against the configured address and reports the
// device info.
func (a *Adapter) Test(ctx context.Context) (string, wled.Info, error) {
	address := a.Address()

	session, err := a.connector.Connect(ctx, address)
	if err != nil {
		connectionTests.WithLabelValues(resultLabel(err)).Inc()
		return address, wled.Info{}, err
	}
	defer session.Close()

	connectionTests.WithLabelValues(resultLabel(nil)).Inc()

	var info wled.Info
	if d := session.Device(); d != nil {
		info = d.Info
	}
	return address, info, nil
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var connErr *wled.ConnectionError
	if errors.As(err, &connErr) {
		return "connection_error"
	}
	return "error"
}
