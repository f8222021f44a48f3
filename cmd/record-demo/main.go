// Command record-demo runs a client and a server record layer over an
// in-process loopback, walks both through the cipher activation
// sequence and exchanges protected application data.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"recordlayer/record"
	"recordlayer/shared"
	"recordlayer/suite"
)

// DemoConfig holds configuration for the demo
type DemoConfig struct {
	SessionID string
	Suite     uint16
	Messages  int
}

func loadConfig() DemoConfig {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	return DemoConfig{
		SessionID: uuid.NewString(),
		Suite:     uint16(shared.GetEnvIntOrDefault("DEMO_SUITE", int(suite.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256))),
		Messages:  shared.GetEnvIntOrDefault("DEMO_MESSAGES", 3),
	}
}

func main() {
	config := loadConfig()

	logger, err := shared.NewLoggerFromEnv("record-demo")
	if err != nil {
		log.Fatalf("logger setup failed: %v", err)
	}
	defer logger.Sync()

	if err := runDemo(config, logger); err != nil {
		logger.Fatal("demo failed", zap.Error(err))
	}
	logger.Info("demo completed")
}

func runDemo(config DemoConfig, logger *shared.Logger) error {
	sessionLog := logger.WithSession(config.SessionID)

	// Two unidirectional pipes form the loopback connection.
	clientIn, serverOut := io.Pipe()
	serverIn, clientOut := io.Pipe()

	serverEcho := make(chan error, 1)
	var server *record.Stream
	server = record.NewStream(record.Config{
		Handler: record.HandlerFunc(func(typ record.ContentType, payload []byte) error {
			if typ != record.ContentTypeApplicationData {
				return nil
			}
			return server.WriteRecord(record.ContentTypeApplicationData, bytes.ToUpper(payload))
		}),
		Input:  serverIn,
		Output: serverOut,
		Logger: sessionLog.Named("server"),
	})
	server.SetWriteVersion(record.VersionTLS12)

	var replies [][]byte
	client := record.NewStream(record.Config{
		Handler: record.HandlerFunc(func(typ record.ContentType, payload []byte) error {
			replies = append(replies, append([]byte(nil), payload...))
			return nil
		}),
		Input:  clientIn,
		Output: clientOut,
		Logger: sessionLog.Named("client"),
	})
	client.SetWriteVersion(record.VersionTLS12)

	// Traffic keys would normally come out of the handshake's key
	// schedule; the demo derives the two directions from fixed material.
	clientCipher, serverCipher, err := demoCiphers(config.Suite)
	if err != nil {
		return err
	}
	if err := activate(client, clientCipher); err != nil {
		return fmt.Errorf("client activation: %w", err)
	}
	if err := activate(server, serverCipher); err != nil {
		return fmt.Errorf("server activation: %w", err)
	}
	sessionLog.Info("cipher activated on both directions", zap.Uint16("suite", config.Suite))

	// Server loop: read until the client closes its half.
	go func() {
		for {
			ok, err := server.ReadRecord()
			if err != nil {
				serverEcho <- err
				return
			}
			if !ok {
				serverEcho <- nil
				return
			}
		}
	}()

	for i := 0; i < config.Messages; i++ {
		msg := fmt.Appendf(nil, "record %d over session %s", i, config.SessionID)
		if err := client.WriteRecord(record.ContentTypeApplicationData, msg); err != nil {
			return fmt.Errorf("client write: %w", err)
		}
		ok, err := client.ReadRecord()
		if err != nil {
			return fmt.Errorf("client read: %w", err)
		}
		if !ok {
			return fmt.Errorf("server closed before reply %d", i)
		}
		sessionLog.Info("echo received", zap.ByteString("payload", replies[i]))
	}

	if err := clientOut.Close(); err != nil {
		return err
	}
	if err := <-serverEcho; err != nil {
		return fmt.Errorf("server loop: %w", err)
	}
	return client.Close()
}

// activate walks one endpoint through pending -> both directions
// active -> finalized.
func activate(s *record.Stream, c record.Cipher) error {
	if err := s.SetPending(c); err != nil {
		return err
	}
	if err := s.ActivateWrite(); err != nil {
		return err
	}
	if err := s.ActivateRead(); err != nil {
		return err
	}
	return s.Finalize()
}

// demoCiphers builds mirrored cipher instances: the client's write keys
// are the server's read keys and vice versa.
func demoCiphers(id uint16) (client, server *suite.AEADCipher, err error) {
	keyLen, ivLen := 32, 12
	if id != suite.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256 {
		ivLen = 4
		if id == suite.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256 {
			keyLen = 16
		}
	}

	material := func(fill byte, n int) []byte {
		return bytes.Repeat([]byte{fill}, n)
	}
	clientKeys := suite.Keys{Key: material(0xC1, keyLen), IV: material(0xC2, ivLen)}
	serverKeys := suite.Keys{Key: material(0x51, keyLen), IV: material(0x52, ivLen)}

	if client, err = suite.NewAEADCipher(id, clientKeys, serverKeys); err != nil {
		return nil, nil, err
	}
	if server, err = suite.NewAEADCipher(id, serverKeys, clientKeys); err != nil {
		return nil, nil, err
	}
	return client, server, nil
}
