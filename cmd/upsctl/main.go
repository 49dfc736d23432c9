// cmd/upsctl/main.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newServerFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "server",
		Usage:   "Base URL of the upscale service",
		Value:   "http://127.0.0.1:8080",
		EnvVars: []string{"UPSCALE_SERVER_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "upsctl",
		Usage: "Submit and inspect image upscale requests",
		Commands: []*cli.Command{
			{
				Name:  "submit",
				Usage: "Register a request and run it through the pipeline",
				Flags: []cli.Flag{
					newServerFlag(),
					&cli.StringFlag{
						Name:     "image-url",
						Usage:    "Source image URL",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "user-id",
						Usage: "User namespace for the output path",
					},
					&cli.StringFlag{
						Name:  "request-id",
						Usage: "Request id to reuse (re-runs overwrite the prior output)",
					},
				},
				Action: runSubmit,
			},
			{
				Name:  "status",
				Usage: "Print the status record for a request",
				Flags: []cli.Flag{
					newServerFlag(),
					&cli.StringFlag{
						Name:     "request-id",
						Usage:    "Request id to look up",
						Required: true,
					},
				},
				Action: runStatus,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runSubmit(c *cli.Context) error {
	base := strings.TrimSuffix(c.String("server"), "/")
	client := &http.Client{Timeout: 10 * time.Minute}

	// Register the pending document first; the pipeline only transitions
	// existing records.
	registered, err := postJSON(client, base+"/requests", map[string]string{
		"requestId": c.String("request-id"),
		"imageUrl":  c.String("image-url"),
		"userId":    c.String("user-id"),
	})
	if err != nil {
		return fmt.Errorf("register request: %w", err)
	}

	requestID, _ := registered["requestId"].(string)
	if requestID == "" {
		return fmt.Errorf("server did not return a request id: %v", registered)
	}
	fmt.Printf("registered request %s\n", requestID)

	result, err := postJSON(client, base+"/upscale", map[string]string{
		"requestId": requestID,
		"imageUrl":  c.String("image-url"),
		"userId":    c.String("user-id"),
	})
	if err != nil {
		return fmt.Errorf("upscale request %s: %w", requestID, err)
	}

	fmt.Printf("completed: %v\n", result["outputUrl"])
	return nil
}

func runStatus(c *cli.Context) error {
	base := strings.TrimSuffix(c.String("server"), "/")
	requestID := c.String("request-id")

	resp, err := http.Get(base + "/upscale/" + requestID)
	if err != nil {
		return fmt.Errorf("status lookup failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status lookup returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func postJSON(client *http.Client, url string, payload map[string]string) (map[string]any, error) {
	for k, v := range payload {
		if v == "" {
			delete(payload, k)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("unexpected response %q", strings.TrimSpace(string(data)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg, ok := decoded["error"].(string); ok {
			return nil, fmt.Errorf("%s: %s", resp.Status, msg)
		}
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return decoded, nil
}
