package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"inbox-lab/auth"
	"inbox-lab/directory"
	"inbox-lab/observability"
	"inbox-lab/projection"
	"inbox-lab/runtime"
	"inbox-lab/runtime/workers"
	"inbox-lab/server"
	"inbox-lab/services"
	"inbox-lab/storage"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

type BaseSuite struct {
	suite.Suite
	Config   Config
	Platform *directory.Platform

	cleanup []func()
}

// SetupSuite loads the environment configuration and, unless addresses are
// given, boots an inbox over the sandbox platform.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.HTTPAddr == "" {
		s.startInProcess()
	}
}

func (s *BaseSuite) TearDownSuite() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
}

func (s *BaseSuite) startInProcess() {
	log := logs.GetLoggerFromLevel(slog.LevelWarn)
	ctx, cancel := context.WithCancel(context.Background())
	s.cleanup = append(s.cleanup, cancel)

	s.Platform = directory.NewPlatform(nil)
	s.Platform.AddAccount("alice", "pw-a")
	s.Platform.AddAccount("bob", "pw-b")
	s.Require().NoError(s.Platform.AddThread("ab", "alice", "bob"))

	store, err := storage.NewFileCredentialStore(s.T().TempDir(), log)
	s.Require().NoError(err)

	sup := workers.NewSupervisor(log, 10*time.Millisecond)
	monitor := observability.NewMonitoringManager(log, 50*time.Millisecond)
	sup.Start(ctx, monitor)

	clients := runtime.NewClientRegistry(log, s.Platform.Factory(), store, time.Second)
	watchers := runtime.NewWatcherRegistry(ctx, log, sup)
	inbox := services.NewInboxService(log, clients, watchers, projection.NewNormalizer(nil), monitor,
		services.InboxOptions{
			RemoteTimeout: time.Second,
			Watcher:       workers.WatcherConfig{Unit: time.Millisecond, Floor: 10, Ceiling: 300},
		})
	issuer, err := auth.NewTokenIssuer("an-e2e-secret-of-enough-length", time.Hour)
	s.Require().NoError(err)

	httpServer := httptest.NewServer(server.NewHTTPServer(
		log, services.NewAuthService(inbox, issuer), inbox, clients, watchers, monitor, issuer,
	).Handler())
	s.Config.HTTPAddr = httpServer.URL

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	health := server.NewHealthServer(log)
	go func() { _ = health.Serve(listener) }()
	health.SetServing(true)
	s.Config.HealthAddr = listener.Addr().String()

	s.cleanup = append(s.cleanup, func() {
		watchers.StopAll()
		httpServer.Close()
		health.Stop(context.Background())
		cancel()
		sup.Wait()
	})
}

func (s *BaseSuite) header(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// GrpcConn initializes a gRPC connection with logging, colors, and JSON debugging
func (s *BaseSuite) GrpcConn(t *testing.T, name string, addr string) *grpc.ClientConn {
	s.header(t, name)

	marshaler := protojson.MarshalOptions{
		UseProtoNames:   true,
		Multiline:       true,
		EmitUnpopulated: true,
	}

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, marshaler.Format(req.(proto.Message)))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, marshaler.Format(reply.(proto.Message)))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+addr)
	return conn
}

// Call sends a JSON request to the inbox API and decodes the response into out.
func (s *BaseSuite) Call(name, method, path, token string, body, out any) int {
	t := s.T()
	s.header(t, name)

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.Config.HTTPAddr+path, reader)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	t.Logf("HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		t.Logf("RESPONSE:\n%s", raw)
	}

	if out != nil && len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, out))
	}
	return resp.StatusCode
}
