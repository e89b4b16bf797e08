package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ubilab-escape/operator/internal/platform/logger"
	"github.com/ubilab-escape/operator/internal/platform/operr"
)

// mqttBus implements Bus over github.com/eclipse/paho.mqtt.golang. This
// is the real broker connection used in production; the library is
// named rather than grounded in the example corpus (no example repo
// imports an MQTT client), replacing the original's use of Python's
// paho.mqtt.client one-for-one.
type mqttBus struct {
	log    *logger.Logger
	client mqtt.Client

	mu        sync.Mutex
	handlers  map[string]func(topic string, payload []byte)
	onConnect []func()
}

// NewMQTT builds a bus connecting to the broker at host:port. Connect
// must be called before use.
func NewMQTT(log *logger.Logger, host string, port int, clientID string) Bus {
	b := &mqttBus{log: log.With("component", "mqttBus"), handlers: make(map[string]func(string, []byte))}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", host, port))
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetOnConnectHandler(func(mqtt.Client) { b.handleReconnect() })

	b.client = mqtt.NewClient(opts)
	return b
}

func (b *mqttBus) handleReconnect() {
	b.mu.Lock()
	handlers := make(map[string]func(string, []byte), len(b.handlers))
	for t, h := range b.handlers {
		handlers[t] = h
	}
	callbacks := append([]func(){}, b.onConnect...)
	b.mu.Unlock()

	for topic, h := range handlers {
		b.subscribeRaw(topic, h)
	}
	for _, cb := range callbacks {
		cb()
	}
}

func (b *mqttBus) Connect(ctx context.Context) error {
	token := b.client.Connect()
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	if !token.WaitTimeout(time.Until(deadline)) {
		return operr.New(operr.BusConnect, "", fmt.Errorf("timed out connecting to broker"))
	}
	if err := token.Error(); err != nil {
		return operr.New(operr.BusConnect, "", err)
	}
	return nil
}

func (b *mqttBus) Disconnect() {
	b.client.Disconnect(250)
}

func (b *mqttBus) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := b.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

func (b *mqttBus) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	b.mu.Lock()
	b.handlers[topic] = handler
	b.mu.Unlock()
	return b.subscribeRaw(topic, handler)
}

func (b *mqttBus) subscribeRaw(topic string, handler func(topic string, payload []byte)) error {
	token := b.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	return token.Error()
}

func (b *mqttBus) Unsubscribe(topic string) error {
	b.mu.Lock()
	delete(b.handlers, topic)
	b.mu.Unlock()
	token := b.client.Unsubscribe(topic)
	token.Wait()
	return token.Error()
}

func (b *mqttBus) OnConnect(cb func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onConnect = append(b.onConnect, cb)
}
