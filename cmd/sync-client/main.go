package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"iiifhub/internal/logging"
	synchub "iiifhub/internal/sync"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP sync server address")
	raw := flag.Bool("raw", false, "print events as received")
	flag.Parse()

	logger := logging.New("info", os.Stderr).WithPrefix("sync-client")
	for {
		if err := run(*addr, *raw, logger); err != nil {
			logger.Warn("disconnected", "err", err)
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func run(addr string, raw bool, logger *log.Logger) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	logger.Info("connected", "addr", addr)

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		line := sc.Bytes()
		if raw {
			fmt.Println(string(line))
			continue
		}
		fmt.Println(describe(line))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

// describe renders upload events on one line; anything else is echoed.
func describe(line []byte) string {
	var ev synchub.UploadEvent
	if err := json.Unmarshal(line, &ev); err != nil || ev.Task.ID == "" {
		return string(line)
	}
	t := ev.Task
	switch ev.Type {
	case synchub.EventCompleted:
		return fmt.Sprintf("%s  %-8s %s -> %s", ev.At.Format(time.TimeOnly), "done", t.Filename, t.Path)
	case synchub.EventFailed:
		return fmt.Sprintf("%s  %-8s %s: %s", ev.At.Format(time.TimeOnly), "failed", t.Filename, t.LastError)
	default:
		return fmt.Sprintf("%s  %-8s %s %3d%%", ev.At.Format(time.TimeOnly), t.Status, t.Filename, t.Progress)
	}
}
