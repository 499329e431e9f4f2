package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	var wsURL string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow upload events from a running api-server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), wsURL, nil)
			if err != nil {
				return fmt.Errorf("dial %s: %w", wsURL, err)
			}
			defer conn.Close()

			go func() {
				<-cmd.Context().Done()
				_ = conn.Close()
			}()

			out := cmd.OutOrStdout()
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return err
				}
				var buf bytes.Buffer
				if err := json.Indent(&buf, bytes.TrimSpace(msg), "", "  "); err != nil {
					fmt.Fprintln(out, string(msg))
					continue
				}
				fmt.Fprintln(out, buf.String())
			}
		},
	}
	cmd.Flags().StringVar(&wsURL, "ws", "ws://localhost:8080/ws", "Websocket feed URL")
	return cmd
}
