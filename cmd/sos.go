package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	sosServer string
	sosLat    float64
	sosLng    float64
	sosType   string
)

var sosCmd = &cobra.Command{
	Use:   "sos",
	Short: "Send a test SOS request to a running server",
	RunE:  sendSOS,
}

func init() {
	sosCmd.Flags().StringVar(&sosServer, "server", "http://localhost:8080", "server base URL")
	sosCmd.Flags().Float64Var(&sosLat, "lat", 11.0168, "patient latitude")
	sosCmd.Flags().Float64Var(&sosLng, "lng", 76.9558, "patient longitude")
	sosCmd.Flags().StringVar(&sosType, "type", "general", "emergency type")
	rootCmd.AddCommand(sosCmd)
}

func sendSOS(cmd *cobra.Command, args []string) error {
	payload, err := json.Marshal(map[string]any{
		"lat":            sosLat,
		"lng":            sosLng,
		"emergency_type": sosType,
		"notes":          "test request sent from the cli",
	})
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(sosServer+"/api/sos", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("send sos: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Write(body)
	}
	fmt.Printf("%s\n%s\n", resp.Status, pretty.String())
	return nil
}
