package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	listenServer     string
	listenKeepAlives bool
)

var listenCmd = &cobra.Command{
	Use:   "listen <token>",
	Short: "Follow a student's notification stream in the terminal",
	Long: `Opens the same stream a browser tab would and prints every event as it
arrives. The command exits when the gateway closes the stream, which is
also what happens straight away for an invalid or expired token.`,
	Args: cobra.ExactArgs(1),
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringVar(&listenServer, "server", "",
		"gateway base URL (default: http://<gateway.host>:<gateway.port>)")
	listenCmd.Flags().BoolVar(&listenKeepAlives, "keepalives", false, "print keep-alive comments too")
}

func runListen(cmd *cobra.Command, args []string) error {
	base, err := gatewayURL(listenServer)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		base+"/api/notifications/subscribe?token="+url.QueryEscape(args[0]), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("contacting gateway at %s: %w", base, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %s", resp.Status)
	}

	fmt.Println(headerStyle.Render("  Listening on " + base))
	frames := 0
	err = readStream(resp.Body, func(f sseFrame) {
		frames++
		if f.Comment != "" {
			if listenKeepAlives || f.Comment != "keep-alive" {
				fmt.Println(dimStyle.Render(time.Now().Format("15:04:05") + "  : " + f.Comment))
			}
			return
		}
		fmt.Printf("%s  %s %s\n", dimStyle.Render(time.Now().Format("15:04:05")), eventStyle.Render(f.Event), f.Data)
	})
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	if frames == 0 {
		fmt.Println(warnStyle.Render("Stream closed without any frames; the token was not accepted."))
		return nil
	}
	fmt.Println(dimStyle.Render("Stream closed by gateway."))
	return nil
}

// sseFrame is one dispatched event-stream block. Comment is set for
// comment-only blocks.
type sseFrame struct {
	Event   string
	Data    string
	Comment string
}

// readStream parses an event-stream body and calls fn for every frame. It
// returns nil when the stream ends cleanly.
func readStream(r io.Reader, fn func(sseFrame)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var cur sseFrame
	var data []string
	pending := false
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if pending {
				cur.Data = strings.Join(data, "\n")
				if cur.Event == "" && cur.Comment == "" {
					cur.Event = "message"
				}
				fn(cur)
			}
			cur, data, pending = sseFrame{}, nil, false
			continue
		}
		pending = true
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "":
			cur.Comment = value
		case "event":
			cur.Event = value
		case "data":
			data = append(data, value)
		}
	}
	return sc.Err()
}
