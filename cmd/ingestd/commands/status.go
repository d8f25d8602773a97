package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/marmos91/ingestd/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	statusOutput  string
	statusAPIHost string
	statusAPIPort int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ingest engine status",
	Long: `Display the current status of a running ingestd instance.

This command calls the control-surface API's health and session
endpoints and reports whether the process is reachable, ready, and
how many files it has processed.

Examples:
  # Check status (uses default API port)
  ingestd status

  # Check status on a custom host/port
  ingestd status --api-host 10.0.0.5 --api-port 9090

  # Output as JSON
  ingestd status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAPIHost, "api-host", "localhost", "API server host")
	statusCmd.Flags().IntVar(&statusAPIPort, "api-port", 8080, "API server port")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// InstanceStatus is the combined view of liveness, readiness and
// session counters reported by the status command.
type InstanceStatus struct {
	Reachable    bool   `json:"reachable" yaml:"reachable"`
	Ready        bool   `json:"ready" yaml:"ready"`
	Active       bool   `json:"active" yaml:"active"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	ProcessedOK  int64  `json:"processed_ok" yaml:"processed_ok"`
	ProcessedErr int64  `json:"processed_err" yaml:"processed_err"`
	LastError    string `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	Message      string `json:"message" yaml:"message"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	base := fmt.Sprintf("http://%s:%d", statusAPIHost, statusAPIPort)
	client := &http.Client{Timeout: 2 * time.Second}

	status := InstanceStatus{Message: "ingestd is not reachable"}

	if resp, err := client.Get(base + "/healthz/ready"); err == nil {
		_ = resp.Body.Close()
		status.Reachable = true
		status.Ready = resp.StatusCode == http.StatusOK
	}

	if status.Reachable {
		resp, err := client.Get(base + "/v1/session/status")
		if err == nil {
			defer func() { _ = resp.Body.Close() }()
			var s struct {
				Active       bool   `json:"active"`
				Name         string `json:"name,omitempty"`
				ProcessedOK  int64  `json:"processed_ok"`
				ProcessedErr int64  `json:"processed_err"`
				LastError    string `json:"last_error,omitempty"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&s); err == nil {
				status.Active = s.Active
				status.Name = s.Name
				status.ProcessedOK = s.ProcessedOK
				status.ProcessedErr = s.ProcessedErr
				status.LastError = s.LastError
			}
		}

		switch {
		case !status.Ready:
			status.Message = "ingestd is running but not yet ready"
		case status.Active:
			status.Message = fmt.Sprintf("session %q is active", status.Name)
		default:
			status.Message = "ingestd is ready, no active session"
		}
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusPlain(status)
	}

	return nil
}

func printStatusPlain(status InstanceStatus) {
	fmt.Println()
	fmt.Println("ingestd status")
	fmt.Println("===============")
	fmt.Println()

	if !status.Reachable {
		fmt.Printf("  Status:  \033[31m● Unreachable\033[0m\n")
		fmt.Println()
		return
	}

	if status.Ready {
		fmt.Printf("  Status:  \033[32m● Ready\033[0m\n")
	} else {
		fmt.Printf("  Status:  \033[33m● Starting\033[0m\n")
	}

	if status.Active {
		fmt.Printf("  Session: %s (active)\n", status.Name)
	} else {
		fmt.Printf("  Session: none active\n")
	}

	fmt.Printf("  Processed OK:  %d\n", status.ProcessedOK)
	fmt.Printf("  Processed Err: %d\n", status.ProcessedErr)
	if status.LastError != "" {
		fmt.Printf("  Last error:    %s\n", status.LastError)
	}
	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}
