// Package util starts the disposable brokers and databases the
// integration tests run against. Every Start function returns a connection
// string and a cleanup function.
package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	MosquittoReadyTimeout = 5 * time.Second
	PostgresReadyTimeout  = 60 * time.Second
	MetricTimeout         = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

const mosquittoConf = "listener 1883\nallow_anonymous true\npersistence false\nlog_dest stdout\n"

// WaitForMetric polls metricsURL until its exposition contains substr.
func WaitForMetric(ctx context.Context, metricsURL, substr string) error {
	var last string
	for {
		body, err := scrape(ctx, metricsURL)
		if err == nil && strings.Contains(body, substr) {
			return nil
		}
		if err == nil {
			last = body
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("metric %q not found in %d bytes of output: %w", substr, len(last), ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func scrape(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scrape %s: status %d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

// endpoint starts req and resolves the host address of port.
func endpoint(ctx context.Context, req tc.ContainerRequest, port nat.Port) (string, func(), error) {
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = cont.Terminate(context.Background()) }
	host, err := cont.Host(ctx)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	mapped, err := cont.MappedPort(ctx, port)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return fmt.Sprintf("%s:%s", host, mapped.Port()), cleanup, nil
}

// StartMosquitto runs an anonymous Mosquitto broker and waits until it
// accepts MQTT connections. It returns a tcp:// broker URL.
func StartMosquitto(ctx context.Context) (string, func(), error) {
	dir, err := os.MkdirTemp("", "mosquitto")
	if err != nil {
		return "", nil, err
	}
	conf := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(conf, []byte(mosquittoConf), 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}
	addr, stop, err := endpoint(ctx, tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{{
			HostFilePath:      conf,
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
	}, "1883/tcp")
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}
	cleanup := func() {
		stop()
		_ = os.RemoveAll(dir)
	}
	broker := "tcp://" + addr

	readyCtx, cancel := context.WithTimeout(ctx, MosquittoReadyTimeout)
	defer cancel()
	if err := mqttReady(readyCtx, broker); err != nil {
		cleanup()
		return "", nil, err
	}
	return broker, cleanup, nil
}

func mqttReady(ctx context.Context, broker string) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("readiness-check")
	for {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		if token.WaitTimeout(time.Second) && token.Error() == nil {
			cli.Disconnect(50)
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("broker %s not ready: %w", broker, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// StartPostgres runs PostgreSQL and returns a pgx DSN for database eco.
func StartPostgres(ctx context.Context) (string, func(), error) {
	addr, cleanup, err := endpoint(ctx, tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "eco",
			"POSTGRES_PASSWORD": "eco",
			"POSTGRES_DB":       "eco",
		},
		// The server restarts once after initdb.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(PostgresReadyTimeout),
	}, "5432/tcp")
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("postgres://eco:eco@%s/eco?sslmode=disable", addr), cleanup, nil
}

// StartRedis runs Redis and returns a redis:// URL.
func StartRedis(ctx context.Context) (string, func(), error) {
	addr, cleanup, err := endpoint(ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}, "6379/tcp")
	if err != nil {
		return "", nil, err
	}
	return "redis://" + addr + "/0", cleanup, nil
}
