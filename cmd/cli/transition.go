package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Transition request payload mirrored from the server API
type SerialParams struct {
	Device   string `json:"device"`
	BaudRate int    `json:"baud_rate,omitempty"`
	DataBits int    `json:"data_bits,omitempty"`
	StopBits int    `json:"stop_bits,omitempty"`
	Parity   string `json:"parity,omitempty"`
}

type SSHParams struct {
	Host     string `json:"host"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type NetworkParams struct {
	Hostname       string `json:"hostname"`
	Domain         string `json:"domain"`
	IPAddress      string `json:"ip_address"`
	SubnetMask     string `json:"subnet_mask"`
	Gateway        string `json:"gateway"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	EnablePassword string `json:"enable_password"`
}

type TransitionPayload struct {
	Transport     string        `json:"transport"`
	Serial        *SerialParams `json:"serial,omitempty"`
	SSH           *SSHParams    `json:"ssh,omitempty"`
	SecurityLevel string        `json:"security_level,omitempty"`
	EnableSecret  string        `json:"enable_secret,omitempty"`
	Network       NetworkParams `json:"network"`
	SkipVerify    bool          `json:"skip_verify"`
}

// Response structures (partial, enough for pretty print)
type StepView struct {
	Seq      int    `json:"seq"`
	Command  string `json:"command"`
	Outcome  string `json:"outcome"`
	Excerpt  string `json:"excerpt"`
	TimedOut bool   `json:"timed_out"`
}

type ApplyView struct {
	RunID        string     `json:"run_id"`
	Status       string     `json:"status"`
	TotalSteps   int        `json:"total_steps"`
	WarningSteps int        `json:"warning_steps"`
	Steps        []StepView `json:"steps"`
	ReportURI    string     `json:"report_uri"`
}

type VerifyView struct {
	Reachable     bool   `json:"reachable"`
	VersionBanner string `json:"version_banner"`
	Error         string `json:"error"`
}

type TransitionView struct {
	RunID       string      `json:"run_id"`
	Summary     string      `json:"summary"`
	DeviceType  string      `json:"device_type"`
	ApplyStatus string      `json:"apply_status"`
	SSHVerified bool        `json:"ssh_verified"`
	Apply       *ApplyView  `json:"apply"`
	Verify      *VerifyView `json:"verify"`
	Report      string      `json:"report"`
}

type APIResponse struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    *TransitionView `json:"data"`
}

// Printed structure with the report split into lines for readability
type TransitionViewPrinted struct {
	RunID       string      `json:"run_id"`
	Summary     string      `json:"summary"`
	DeviceType  string      `json:"device_type"`
	ApplyStatus string      `json:"apply_status"`
	SSHVerified bool        `json:"ssh_verified"`
	Apply       *ApplyView  `json:"apply"`
	Verify      *VerifyView `json:"verify"`
	ReportLines []string    `json:"report_lines"`
}

// wrap a single line by rune count width
func wrapLineByRune(s string, width int) []string {
	if width <= 0 || len(s) == 0 {
		return []string{s}
	}
	rs := []rune(s)
	out := make([]string, 0, (len(rs)/width)+1)
	for i := 0; i < len(rs); i += width {
		end := i + width
		if end > len(rs) {
			end = len(rs)
		}
		out = append(out, string(rs[i:end]))
	}
	return out
}

// build wrapped lines from the report with overall line limit
func buildWrappedLines(raw string, width int, limit int) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, limit)
	for _, ln := range lines {
		parts := wrapLineByRune(ln, width)
		for _, p := range parts {
			out = append(out, p)
			if limit > 0 && len(out) >= limit {
				return out[:limit]
			}
		}
	}
	return out
}

// kill listening process(es) on a TCP port
func killListeningOnPort(port int) ([]int, error) {
	if port <= 0 {
		return nil, nil
	}
	cmd := exec.Command("lsof", "-nP", fmt.Sprintf("-iTCP:%d", port), "-sTCP:LISTEN", "-t")
	out, err := cmd.Output()
	if err != nil {
		// if lsof not available or no listeners, return empty
		return nil, nil
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	pids := make([]int, 0, len(lines))
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		pid, e := strconv.Atoi(ln)
		if e != nil {
			continue
		}
		pids = append(pids, pid)
	}
	for _, pid := range pids {
		// try SIGTERM, then SIGKILL
		_ = syscall.Kill(pid, syscall.SIGTERM)
		time.Sleep(300 * time.Millisecond)
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
	return pids, nil
}

// parse host and port from base server URL, fallback to defaultPort
func parseHostPort(base string, defaultPort int) (string, int) {
	host := "localhost"
	port := defaultPort
	u, err := url.Parse(strings.TrimSpace(base))
	if err == nil {
		if h := u.Hostname(); h != "" {
			host = h
		}
		if ps := u.Port(); ps != "" {
			if p, e := strconv.Atoi(ps); e == nil {
				port = p
			}
		}
	}
	if port <= 0 {
		port = defaultPort
	}
	return host, port
}

func isPortOpen(host string, port int) bool {
	if host == "" {
		host = "127.0.0.1"
	}
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), 300*time.Millisecond)
	if err == nil {
		_ = conn.Close()
		return true
	}
	// fallback candidates for wildcard/unspecified hosts
	candidates := []string{"127.0.0.1", "::1", "localhost"}
	for _, h := range candidates {
		conn, err = net.DialTimeout("tcp", fmt.Sprintf("%s:%d", h, port), 300*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return true
		}
	}
	return false
}

func waitForPortReady(host string, port int, timeoutSec int) error {
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	deadline := time.Now().Add(time.Duration(timeoutSec) * time.Second)
	for time.Now().Before(deadline) {
		if isPortOpen(host, port) {
			return nil
		}
		time.Sleep(300 * time.Millisecond)
	}
	return fmt.Errorf("port %d not ready within %ds", port, timeoutSec)
}

func startServer(serverMain string) (*exec.Cmd, error) {
	cmd := exec.Command("go", "run", serverMain)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func main() {
	server := flag.String("server", "http://localhost:18000", "Server base URL, e.g. http://localhost:18000")
	path := flag.String("path", "/api/v1/provision/transition", "API path for console-to-SSH transition")
	payloadFile := flag.String("payload", "", "Optional JSON file path to override default payload")
	outFile := flag.String("out", "", "Optional output file to write pretty JSON")
	limit := flag.Int("limit", 80, "Max lines of the transition report in printed JSON")
	timeout := flag.Int("http_timeout", 300, "HTTP client timeout seconds")
	killPort := flag.Int("kill_port", 0, "Kill process listening on this port before run (0=disable)")
	wrapWidth := flag.Int("wrap_width", 100, "Auto wrap width per line in report_lines")
	startServerFlag := flag.Bool("start_server", false, "Auto start server if not listening")
	keepServer := flag.Bool("keep_server", false, "Keep started server running after run")
	startTimeout := flag.Int("start_timeout", 10, "Seconds to wait for server port ready")
	serverMain := flag.String("server_main", "cmd/server/main.go", "Path to server main.go to run")

	transport := flag.String("transport", "serial", "Console transport: serial | ssh")
	serialDevice := flag.String("serial_device", "/dev/ttyUSB0", "Serial device path for serial transport")
	sshHost := flag.String("ssh_host", "", "Console host for ssh transport (terminal server or simulator)")
	sshPort := flag.Int("ssh_port", 22, "Console port for ssh transport")
	sshUser := flag.String("ssh_user", "admin", "Console username for ssh transport")
	sshPassword := flag.String("ssh_password", "", "Console password for ssh transport")
	level := flag.String("level", "standard", "Template security level: basic | standard | hardened")
	enableSecret := flag.String("enable_secret", "", "Optional privileged mode secret")
	hostname := flag.String("hostname", "SW-ACCESS-01", "Target hostname to configure")
	domain := flag.String("domain", "example.local", "Domain name for key generation")
	ipAddress := flag.String("ip", "192.168.1.10", "Management IP address")
	subnetMask := flag.String("mask", "255.255.255.0", "Management subnet mask")
	gateway := flag.String("gateway", "192.168.1.254", "Default gateway")
	mgmtUser := flag.String("mgmt_user", "netadmin", "Management account username")
	mgmtPassword := flag.String("mgmt_password", "", "Management account password")
	skipVerify := flag.Bool("skip_verify", false, "Skip the external SSH verification step")
	flag.Parse()

	// Kill port if requested
	if *killPort > 0 {
		pids, _ := killListeningOnPort(*killPort)
		if len(pids) > 0 {
			fmt.Printf("Killed %d process(es) listening on port %d: %v\n", len(pids), *killPort, pids)
			// brief wait for port release
			time.Sleep(500 * time.Millisecond)
		} else {
			fmt.Printf("No listening process found on port %d or lsof not available.\n", *killPort)
		}
	}

	// Start server if requested and not already listening
	host, port := parseHostPort(*server, 18000)
	var srvCmd *exec.Cmd
	if *startServerFlag {
		if !isPortOpen(host, port) {
			fmt.Printf("Starting server: go run %s\n", *serverMain)
			var err error
			srvCmd, err = startServer(*serverMain)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
				os.Exit(1)
			}
			if err = waitForPortReady(host, port, *startTimeout); err != nil {
				fmt.Fprintf(os.Stderr, "server not ready: %v\n", err)
				if srvCmd != nil && srvCmd.Process != nil {
					_ = srvCmd.Process.Kill()
				}
				os.Exit(1)
			}
			fmt.Printf("Server listening on %s:%d\n", host, port)
			if !*keepServer {
				defer func() {
					if srvCmd != nil && srvCmd.Process != nil {
						_ = srvCmd.Process.Signal(syscall.SIGTERM)
					}
				}()
			}
		} else {
			fmt.Printf("Detected existing listener on %s:%d, skip start.\n", host, port)
		}
	}

	// Build default payload from flags
	payload := TransitionPayload{
		Transport:     *transport,
		SecurityLevel: *level,
		EnableSecret:  *enableSecret,
		SkipVerify:    *skipVerify,
		Network: NetworkParams{
			Hostname:       *hostname,
			Domain:         *domain,
			IPAddress:      *ipAddress,
			SubnetMask:     *subnetMask,
			Gateway:        *gateway,
			Username:       *mgmtUser,
			Password:       *mgmtPassword,
			EnablePassword: *enableSecret,
		},
	}
	switch strings.ToLower(*transport) {
	case "serial":
		payload.Serial = &SerialParams{Device: *serialDevice}
	case "ssh":
		payload.SSH = &SSHParams{Host: *sshHost, Port: *sshPort, Username: *sshUser, Password: *sshPassword}
	default:
		fmt.Fprintf(os.Stderr, "unsupported transport: %s\n", *transport)
		os.Exit(1)
	}

	var body []byte
	var err error
	if *payloadFile != "" {
		body, err = os.ReadFile(*payloadFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read payload file: %v\n", err)
			os.Exit(1)
		}
	} else {
		body, err = json.Marshal(payload)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build payload: %v\n", err)
			os.Exit(1)
		}
	}

	endpoint := strings.TrimRight(*server, "/") + *path
	client := &http.Client{Timeout: time.Duration(*timeout) * time.Second}

	httpReq, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create request: %v\n", err)
		os.Exit(1)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read response: %v\n", err)
		os.Exit(1)
	}

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "HTTP %d\n%s\n", resp.StatusCode, string(respBody))
		os.Exit(2)
	}

	// Decode response and split the report into wrapped lines
	var out APIResponse
	if err = json.Unmarshal(respBody, &out); err != nil || out.Data == nil {
		// Fallback: print raw response when schema mismatch
		fmt.Println(string(respBody))
		os.Exit(0)
	}

	printed := TransitionViewPrinted{
		RunID:       out.Data.RunID,
		Summary:     out.Data.Summary,
		DeviceType:  out.Data.DeviceType,
		ApplyStatus: out.Data.ApplyStatus,
		SSHVerified: out.Data.SSHVerified,
		Apply:       out.Data.Apply,
		Verify:      out.Data.Verify,
		ReportLines: buildWrappedLines(out.Data.Report, *wrapWidth, *limit),
	}

	pretty, err := json.MarshalIndent(printed, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal pretty json: %v\n", err)
		os.Exit(1)
	}

	if *outFile != "" {
		if err := os.WriteFile(*outFile, pretty, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote output to %s\n", *outFile)
		return
	}
	fmt.Println(string(pretty))
}
