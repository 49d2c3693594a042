package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremon "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/monitoring"
	coremqtt "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/mqtt"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`
	AuthMethod string `json:"auth_method"`
	// TopicPrefix roots every topic, e.g. ecodrive/runs/<id>/status.
	TopicPrefix string `json:"topic_prefix"`
	// QoS per message class: "status", "progress", "cancel".
	QoS        map[string]byte `json:"qos"`
	LWTTopic   string          `json:"lwt_topic"`
	LWTPayload string          `json:"lwt_payload"`
	LWTQoS     byte            `json:"lwt_qos"`
	LWTRetain  bool            `json:"lwt_retain"`
	MaxRetries int             `json:"max_retries"`
	BackoffMS  int             `json:"backoff_ms"`
	// Progress also publishes per-generation progress events.
	Progress  bool        `json:"progress"`
	TLSConfig *tls.Config `json:"-"`
}

// SetDefaults fills the prefix and the client id.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "ecodrive"
	}
	if c.ClientID == "" {
		c.ClientID = "ecodrive-planner"
	}
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// CancelTopic is the wildcard topic remote cancel commands arrive on.
func (c Config) CancelTopic() string { return strings.TrimSuffix(c.TopicPrefix, "/") + "/runs/+/cancel" }

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements the core Client interface using Eclipse Paho.
type PahoClient struct {
	cli    pahoClient
	cfg    Config
	logger logger.Logger

	mu       sync.Mutex
	onCancel func(string)

	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

var _ coremqtt.Client = (*PahoClient)(nil)

// NewPahoClient connects to the MQTT broker and subscribes to the cancel
// topic.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		cfg:        cfg,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	if pc.maxRetries <= 0 {
		pc.maxRetries = 3
	}
	if pc.backoff <= 0 {
		pc.backoff = 100 * time.Millisecond
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(cfg.CancelTopic(), pc.qos("cancel"), pc.onCancelMessage); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

func (p *PahoClient) qos(class string) byte {
	if q, ok := p.cfg.QoS[class]; ok {
		return q
	}
	return 0
}

// onCancelMessage extracts the process id from <prefix>/runs/<id>/cancel.
func (p *PahoClient) onCancelMessage(_ paho.Client, msg paho.Message) {
	parts := strings.Split(msg.Topic(), "/")
	if len(parts) < 3 || parts[len(parts)-1] != "cancel" {
		p.logger.Warnf("ignoring message on %s", msg.Topic())
		return
	}
	id := parts[len(parts)-2]
	p.mu.Lock()
	fn := p.onCancel
	p.mu.Unlock()
	if fn == nil {
		return
	}
	p.logger.Infof("cancel requested for run %s", id)
	fn(id)
}

// OnCancel registers the cancel command handler.
func (p *PahoClient) OnCancel(fn func(processID string)) {
	p.mu.Lock()
	p.onCancel = fn
	p.mu.Unlock()
}

// Publish sends payload with the QoS of its message class, retrying with
// exponential backoff.
func (p *PahoClient) Publish(topic string, payload []byte, retained bool) error {
	class := "progress"
	if retained {
		class = "status"
	}
	qos := p.qos(class)
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Debugf("published to %s", topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	coremon.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": topic})
	return publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
