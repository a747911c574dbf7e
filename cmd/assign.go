package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hostelhub/roomcast/internal/config"
	"github.com/hostelhub/roomcast/models"
	"github.com/spf13/cobra"
)

var assignServer string

var assignCmd = &cobra.Command{
	Use:   "assign <student-id> <room>",
	Short: "Assign a room through the running gateway",
	Long: `Posts the assignment to a running 'roomcast serve' so the student's
open tabs are notified immediately.`,
	Args: cobra.ExactArgs(2),
	RunE: runAssign,
}

func init() {
	assignCmd.Flags().StringVar(&assignServer, "server", "",
		"gateway base URL (default: http://<gateway.host>:<gateway.port>)")
}

func runAssign(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid student id %q", args[0])
	}
	base, err := gatewayURL(assignServer)
	if err != nil {
		return err
	}

	body, _ := json.Marshal(map[string]string{"room_no": args[1]})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/students/%d/room", base, id), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("contacting gateway at %s: %w", base, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusCreated {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("gateway: %s", e.Error)
		}
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
	var a models.RoomAssignment
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Student %d assigned to %s", a.StudentID, a.RoomNo)))
	return nil
}

// gatewayURL returns override or the configured gateway address.
func gatewayURL(override string) (string, error) {
	if override != "" {
		return strings.TrimRight(override, "/"), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}
	return "http://" + cfg.Gateway.Addr(), nil
}
