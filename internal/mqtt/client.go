package mqtt

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dchest/uniuri"
	pm "github.com/eclipse/paho.mqtt.golang"

	"github.com/denwilliams/go-wled-race/internal/logging"
	"github.com/denwilliams/go-wled-race/internal/race"
)

const (
	eventTopic    = "event/"
	setDeviceIP   = "set/device_ip"
	testTopic     = "test"
	notifyTopic   = "notify"
	actionTimeout = 30 * time.Second
)

// Dispatcher receives race events decoded from MQTT.
type Dispatcher interface {
	Emit(kind race.EventKind, args race.Args) int
}

// DeviceController handles the device address topics.
type DeviceController interface {
	SaveAddress(ctx context.Context, address string) error
	TestConnection(ctx context.Context) error
}

type MQTTClient struct {
	client     pm.Client
	prefix     string
	topic      string
	dispatcher Dispatcher
	controller DeviceController
}

func NewMQTTClient(uri *url.URL, prefix string) *MQTTClient {
	prefix = strings.TrimSuffix(prefix, "/")

	opts := pm.NewClientOptions().
		AddBroker(uri.String()).
		SetClientID("wled_race_" + uniuri.New()).
		SetAutoReconnect(true).
		SetKeepAlive(60 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(onConnectHandler).
		SetConnectionLostHandler(onConnectionLostHandler)
	if uri.User != nil {
		opts.SetUsername(uri.User.Username())
		if p, ok := uri.User.Password(); ok {
			opts.SetPassword(p)
		}
	}

	return &MQTTClient{client: pm.NewClient(opts), prefix: prefix, topic: prefix + "/#"}
}

// Connect connects to the broker and subscribes to the prefix.
func (mc *MQTTClient) Connect(d Dispatcher, c DeviceController) error {
	mc.dispatcher = d
	mc.controller = c

	if token := mc.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("error connecting to MQTT: %w", token.Error())
	}

	if token := mc.client.Subscribe(mc.topic, 1, mc.onMessage); token.Wait() && token.Error() != nil {
		return fmt.Errorf("error subscribing to %s: %w", mc.topic, token.Error())
	}
	logging.Info("Subscribed to %s", mc.topic)
	return nil
}

func (mc *MQTTClient) Disconnect() {
	logging.Info("Disconnecting from MQTT")

	if token := mc.client.Unsubscribe(mc.topic); token.Wait() && token.Error() != nil {
		logging.Warn("Error unsubscribing from %s: %s", mc.topic, token.Error())
	}

	mc.client.Disconnect(250)
}

// Publish sends payload to <prefix>/<subTopic> with QoS 1.
func (mc *MQTTClient) Publish(subTopic string, payload string) error {
	token := mc.client.Publish(mc.prefix+"/"+subTopic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Notify publishes operator notifications to <prefix>/notify.
func (mc *MQTTClient) Notify(message string) {
	if err := mc.Publish(notifyTopic, message); err != nil {
		logging.Warn("Error publishing notification: %s", err)
	}
}

func (mc *MQTTClient) onMessage(client pm.Client, msg pm.Message) {
	go mc.route(msg.Topic(), msg.Payload())
}

// route handles one message. Returns false when the topic was ignored.
func (mc *MQTTClient) route(topic string, payload []byte) bool {
	prefix := mc.prefix + "/"
	if !strings.HasPrefix(topic, prefix) {
		return false
	}
	sub := strings.TrimPrefix(topic, prefix)

	switch {
	case strings.HasPrefix(sub, eventTopic):
		kind, err := race.ParseEventKind(strings.TrimPrefix(sub, eventTopic))
		if err != nil {
			logging.Warn("Ignoring message on %s: %s", topic, err)
			return false
		}
		args, err := parsePayload(payload)
		if err != nil {
			logging.Warn("Error decoding payload on %s: %s", topic, err)
			return false
		}
		logging.Debug("Received %s %v", kind, args)
		if mc.dispatcher != nil {
			mc.dispatcher.Emit(kind, args)
		}
		return true

	case sub == setDeviceIP:
		address, err := parseDeviceIP(payload)
		if err != nil {
			logging.Warn("Error decoding payload on %s: %s", topic, err)
			return false
		}
		if mc.controller != nil {
			ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
			defer cancel()
			mc.controller.SaveAddress(ctx, address)
		}
		return true

	case sub == testTopic:
		if mc.controller != nil {
			ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
			defer cancel()
			mc.controller.TestConnection(ctx)
		}
		return true
	}

	return false
}

func onConnectHandler(c pm.Client) {
	logging.Info("Connected to MQTT")
}

func onConnectionLostHandler(c pm.Client, err error) {
	logging.Warn("MQTT connection lost: %s", err)
}
