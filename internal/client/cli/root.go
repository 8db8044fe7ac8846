package cli

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"messenger/internal/client/config"
	"messenger/pkg/protocol"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "messenger-cli",
	Short: "Command line client for the messenger backend",
}

// ServerURL should be injected via ldflags. Default for dev.
var ServerURL = "http://localhost:8080"

var sendTo uint

func Init(serverURL string) {
	if serverURL != "" {
		ServerURL = serverURL
	}

	sendCmd.Flags().UintVar(&sendTo, "to", 0, "recipient user id (omit for a self note)")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(sendCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var authCmd = &cobra.Command{
	Use:   "auth [token]",
	Short: "Save the access token obtained from /auth/login",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		cfg.Token = args[0]
		if err := config.SaveConfig(cfg); err != nil {
			log.Fatalf("Error saving config: %v", err)
		}
		path, _ := config.GetConfigPath()
		fmt.Printf("Token saved to %s\n", path)
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Connect to the chat and print incoming messages",
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.AcquireLock(); err != nil {
			log.Fatalf("%v", err)
		}
		defer config.ReleaseLock()

		conn := dial()
		defer conn.Close()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_, raw, err := conn.ReadMessage()
				if err != nil {
					return
				}
				printEnvelope(raw)
			}
		}()

		fmt.Printf("Listening on %s, press Ctrl-C to stop\n", ServerURL)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteMessage(websocket.CloseMessage, msg)
		case <-done:
			fmt.Println("Connection closed by server")
		}
	},
}

var sendCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Send one message and print the delivery echo",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conn := dial()
		defer conn.Close()

		env := protocol.Envelope{Text: strings.Join(args, " ")}
		if sendTo != 0 {
			to := sendTo
			env.ToUserID = &to
		}
		if err := conn.WriteMessage(websocket.TextMessage, protocol.Encode(env)); err != nil {
			log.Fatalf("Send failed: %v", err)
		}

		// The server echoes every message back to its sender; wait for the
		// echo as delivery confirmation.
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("No echo received: %v", err)
		}
		printEnvelope(raw)
	},
}

// dial opens the websocket session using the saved token.
func dial() *websocket.Conn {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if cfg.Token == "" {
		log.Fatal("No token found. Run 'messenger-cli auth <token>' first.")
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(cfg.Token), nil)
	if err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	return conn
}

func wsURL(token string) string {
	url := ServerURL
	url = strings.Replace(url, "https://", "wss://", 1)
	url = strings.Replace(url, "http://", "ws://", 1)
	return url + "/chat/ws?token=" + token
}

func printEnvelope(raw []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		fmt.Printf("<unparseable frame> %s\n", raw)
		return
	}

	line := fmt.Sprintf("[from %d] %s", env.SenderID, env.Text)
	if env.ImageURL != nil {
		line += fmt.Sprintf(" (image: %s)", *env.ImageURL)
	}
	fmt.Println(line)
}
