package mqtt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// selfSigned writes a certificate that is its own CA.
func selfSigned(t *testing.T) (cert, key, ca string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "ecodrive-planner"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	dir := t.TempDir()
	cert = filepath.Join(dir, "client.pem")
	key = filepath.Join(dir, "client.key")
	ca = filepath.Join(dir, "ca.pem")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	require.NoError(t, os.WriteFile(cert, certPEM, 0o600))
	require.NoError(t, os.WriteFile(ca, certPEM, 0o600))
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	require.NoError(t, os.WriteFile(key, keyPEM, 0o600))
	return cert, key, ca
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := selfSigned(t)
	tlsCfg, err := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}.LoadTLSConfig()
	require.NoError(t, err)
	assert.Len(t, tlsCfg.Certificates, 1)
	assert.NotNil(t, tlsCfg.RootCAs)

	_, err = Config{UseTLS: true, ClientCert: cert}.LoadTLSConfig()
	assert.Error(t, err)
}

func TestClientOptions(t *testing.T) {
	opts, err := NewClientOptions(Config{
		Broker: "tcp://localhost:1883", ClientID: "planner", Username: "u", Password: "p",
		LWTTopic: "ecodrive/planner/online", LWTPayload: "false", LWTQoS: 1, LWTRetain: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)
	assert.True(t, opts.WillEnabled)
	assert.Equal(t, "ecodrive/planner/online", opts.WillTopic)
	assert.True(t, opts.WillRetained)

	opts, err = NewClientOptions(Config{Broker: "tcp://localhost:1883", Username: "u", AuthMethod: "certificate"})
	require.NoError(t, err)
	assert.Empty(t, opts.Username)
}

func TestConnectSubscribesToCancelTopic(t *testing.T) {
	fb := useFakeBroker(t)
	cli, err := NewPahoClient(Config{Broker: "tcp://broker:1883", QoS: map[string]byte{"cancel": 1}})
	require.NoError(t, err)
	defer cli.Disconnect()

	assert.Equal(t, "ecodrive-planner", fb.opts.ClientID)
	assert.Equal(t, byte(1), fb.qos["ecodrive/runs/+/cancel"])
}

func TestPublishUsesQoSOfMessageClass(t *testing.T) {
	fb := useFakeBroker(t)
	cli, err := NewPahoClient(Config{Broker: "tcp://broker:1883", QoS: map[string]byte{"status": 2, "progress": 0}})
	require.NoError(t, err)

	require.NoError(t, cli.Publish("ecodrive/runs/p/status", []byte(`{"kind":"completed"}`), true))
	require.NoError(t, cli.Publish("ecodrive/runs/p/progress", []byte(`{"kind":"progress"}`), false))
	calls := fb.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, publishCall{"ecodrive/runs/p/status", 2, true, []byte(`{"kind":"completed"}`)}, calls[0])
	assert.Equal(t, byte(0), calls[1].qos)
	assert.False(t, calls[1].retained)
}

func TestCancelCommandsReachHandler(t *testing.T) {
	fb := useFakeBroker(t)
	cli, err := NewPahoClient(Config{Broker: "tcp://broker:1883", TopicPrefix: "depot"})
	require.NoError(t, err)

	var mu sync.Mutex
	var got []string
	cli.OnCancel(func(id string) {
		mu.Lock()
		got = append(got, id)
		mu.Unlock()
	})
	fb.deliver("depot/runs/run-7/cancel", nil)
	fb.deliver("depot/runs/run-8/status", nil)
	fb.deliver("ecodrive/runs/run-9/cancel", nil)
	cli.onCancelMessage(nil, fakeMessage{topic: "cancel"})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"run-7"}, got)
}

func TestPublishRetriesWithBackoff(t *testing.T) {
	cases := []struct {
		name    string
		errs    []error
		calls   int
		wantErr bool
	}{
		{"first try", nil, 1, false},
		{"recovers", []error{errors.New("net fail")}, 2, false},
		{"gives up", []error{errors.New("net fail"), errors.New("net fail"), errors.New("net fail")}, 3, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fb := useFakeBroker(t)
			fb.publishErrs = tc.errs
			cli, err := NewPahoClient(Config{Broker: "tcp://broker:1883", MaxRetries: 2, BackoffMS: 1})
			require.NoError(t, err)
			err = cli.Publish("ecodrive/runs/p/status", []byte("{}"), true)
			assert.Equal(t, tc.wantErr, err != nil)
			assert.Len(t, fb.calls(), tc.calls)
		})
	}
}

func TestConnectFailure(t *testing.T) {
	fb := useFakeBroker(t)
	fb.connectErr = errors.New("refused")
	_, err := NewPahoClient(Config{Broker: "tcp://broker:1883"})
	assert.EqualError(t, err, "refused")
}

func TestDisconnectClosesConnection(t *testing.T) {
	fb := useFakeBroker(t)
	cli, err := NewPahoClient(Config{Broker: "tcp://broker:1883"})
	require.NoError(t, err)
	require.True(t, fb.IsConnected())
	cli.Disconnect()
	assert.False(t, fb.IsConnected())
	assert.Empty(t, fb.calls())
}
