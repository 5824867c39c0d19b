package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/Nayanankulkarni/OIBSIP-PYTHONPROGRAMMING--TASK1/internal/config"
)

// ErrNotStarted is returned by Publish before Start has been called.
var ErrNotStarted = errors.New("mqtt commander not started")

// connectWait bounds how long a command waits for a broker connection.
const connectWait = 10 * time.Second

// connection is the subset of [autopaho.ConnectionManager] the
// Commander uses.
type connection interface {
	AwaitConnection(ctx context.Context) error
	Publish(ctx context.Context, p *paho.Publish) (*paho.PublishResponse, error)
	Disconnect(ctx context.Context) error
}

// Commander publishes device commands to a single topic.
type Commander struct {
	cfg        config.MQTTConfig
	instanceID string
	logger     *slog.Logger

	mu   sync.Mutex
	conn connection

	// dial is replaced in tests.
	dial func(ctx context.Context, cfg autopaho.ClientConfig) (connection, error)
}

// NewCommander creates a Commander but does not connect. Call
// [Commander.Start] to open the connection.
func NewCommander(cfg config.MQTTConfig, instanceID string, logger *slog.Logger) *Commander {
	return &Commander{
		cfg:        cfg,
		instanceID: instanceID,
		logger:     logger,
		dial: func(ctx context.Context, cfg autopaho.ClientConfig) (connection, error) {
			return autopaho.NewConnection(ctx, cfg)
		},
	}
}

func (c *Commander) availabilityTopic() string {
	return "assistant/" + c.cfg.DeviceName + "/availability"
}

func (c *Commander) clientID() string {
	id := c.instanceID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	if id == "" {
		return "assistant-" + c.cfg.DeviceName
	}
	return "assistant-" + c.cfg.DeviceName + "-" + id
}

// clientConfig builds the autopaho configuration for the broker URL.
func (c *Commander) clientConfig(ctx context.Context) (autopaho.ClientConfig, error) {
	brokerURL, err := url.Parse(c.cfg.Broker)
	if err != nil {
		return autopaho.ClientConfig{}, fmt.Errorf("parse mqtt broker URL: %w", err)
	}

	availTopic := c.availabilityTopic()
	pahoCfg := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{brokerURL},
		KeepAlive:       30,
		ConnectUsername: c.cfg.Username,
		ConnectPassword: []byte(c.cfg.Password),
		WillMessage: &paho.WillMessage{
			Topic:   availTopic,
			Payload: []byte("offline"),
			QoS:     1,
			Retain:  true,
		},
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			c.logger.Info("mqtt connected to broker", "broker", c.cfg.Broker)
			c.publishAvailability(ctx, cm, "online")
		},
		OnConnectError: func(err error) {
			c.logger.Warn("mqtt connection error", "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: c.clientID(),
		},
	}

	if brokerURL.Scheme == "mqtts" || brokerURL.Scheme == "ssl" {
		pahoCfg.TlsCfg = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	return pahoCfg, nil
}

// Start opens the broker connection. It returns once the connection
// manager is running; autopaho keeps reconnecting in the background
// until ctx is cancelled or Stop is called.
func (c *Commander) Start(ctx context.Context) error {
	pahoCfg, err := c.clientConfig(ctx)
	if err != nil {
		return err
	}

	conn, err := c.dial(ctx, pahoCfg)
	if err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Publish sends command to the command topic at QoS 1. The command is
// published as spoken, without re-encoding.
func (c *Commander) Publish(ctx context.Context, command string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotStarted
	}

	command = strings.TrimSpace(command)
	if command == "" {
		return errors.New("empty device command")
	}

	waitCtx, cancel := context.WithTimeout(ctx, connectWait)
	defer cancel()
	if err := conn.AwaitConnection(waitCtx); err != nil {
		return fmt.Errorf("mqtt broker unavailable: %w", err)
	}

	if _, err := conn.Publish(ctx, &paho.Publish{
		Topic:   c.cfg.Topic,
		Payload: []byte(command),
		QoS:     1,
	}); err != nil {
		return fmt.Errorf("publish to %s: %w", c.cfg.Topic, err)
	}

	c.logger.Debug("mqtt device command published", "topic", c.cfg.Topic, "command", command)
	return nil
}

// Connected returns nil once the broker connection is up, or the
// context's error if it is not up before ctx ends.
func (c *Commander) Connected(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotStarted
	}
	return conn.AwaitConnection(ctx)
}

// Stop publishes "offline" on the availability topic and disconnects.
// The provided context bounds both steps.
func (c *Commander) Stop(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	c.publishAvailability(ctx, conn, "offline")
	return conn.Disconnect(ctx)
}

type publisher interface {
	Publish(ctx context.Context, p *paho.Publish) (*paho.PublishResponse, error)
}

func (c *Commander) publishAvailability(ctx context.Context, p publisher, status string) {
	if _, err := p.Publish(ctx, &paho.Publish{
		Topic:   c.availabilityTopic(),
		Payload: []byte(status),
		QoS:     1,
		Retain:  true,
	}); err != nil {
		c.logger.Warn("mqtt availability publish failed", "status", status, "error", err)
	} else {
		c.logger.Info("mqtt availability published", "status", status)
	}
}
