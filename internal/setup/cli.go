package setup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CLI runs the setup subcommands of the MCP server binary.
type CLI struct {
	// ConfigPath overrides the platform Claude Desktop config location.
	ConfigPath string

	reader *bufio.Reader
	out    io.Writer
}

// NewCLI creates a setup CLI reading confirmations from in and writing to out.
func NewCLI(in io.Reader, out io.Writer) *CLI {
	return &CLI{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run executes the setup command named by args[0].
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		c.showHelp()
		return nil
	}

	switch args[0] {
	case "claude-desktop":
		return c.setupClaudeDesktop(args[1:])
	case "status":
		return c.showStatus()
	case "validate":
		return c.validate()
	case "help", "--help", "-h":
		c.showHelp()
		return nil
	default:
		c.showHelp()
		return fmt.Errorf("unknown setup command: %s", args[0])
	}
}

func (c *CLI) showHelp() {
	fmt.Fprint(c.out, `
Readmission Risk MCP Server Setup

Usage:
  mcp-server-lite setup <command> [options]

Commands:
  claude-desktop  Register the server with Claude Desktop
  status          Show the current registration
  validate        Check that the registered server can load its model bundle

Options for claude-desktop:
  --binary, -b PATH     server binary (default: looked up on PATH)
  --bundle PATH         model bundle passed as READMISSION_BUNDLE_PATH
  --threshold VALUE     decision threshold passed as READMISSION_THRESHOLD
  --yes, -y             do not ask for confirmation
`)
}

func (c *CLI) configPath() (string, error) {
	if c.ConfigPath != "" {
		return c.ConfigPath, nil
	}
	return ClaudeDesktopConfigPath()
}

// parseRegisterArgs reads the claude-desktop options.
func parseRegisterArgs(args []string) (Options, error) {
	var opts Options
	for i := 0; i < len(args); i++ {
		flag := args[i]
		needsValue := func() (string, error) {
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s requires a value", flag)
			}
			i++
			return args[i], nil
		}

		switch flag {
		case "--binary", "-b":
			v, err := needsValue()
			if err != nil {
				return opts, err
			}
			opts.BinaryPath = v
		case "--bundle":
			v, err := needsValue()
			if err != nil {
				return opts, err
			}
			opts.BundlePath = v
		case "--threshold":
			v, err := needsValue()
			if err != nil {
				return opts, err
			}
			t, err := strconv.ParseFloat(v, 64)
			if err != nil || t <= 0 || t >= 1 {
				return opts, fmt.Errorf("threshold must be a number between 0 and 1, got %q", v)
			}
			opts.Threshold = t
		case "--yes", "-y", "--auto":
			opts.AutoConfirm = true
		default:
			return opts, fmt.Errorf("unknown option: %s", flag)
		}
	}
	return opts, nil
}

func (c *CLI) setupClaudeDesktop(args []string) error {
	opts, err := parseRegisterArgs(args)
	if err != nil {
		return err
	}
	if opts.BinaryPath == "" {
		if exe, err := os.Executable(); err == nil {
			opts.BinaryPath = exe
		}
	}

	path, err := c.configPath()
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, "Claude Desktop Configuration")
	fmt.Fprintln(c.out, "============================")
	fmt.Fprintf(c.out, "Config file:   %s\n", path)
	fmt.Fprintf(c.out, "Server binary: %s\n", opts.BinaryPath)
	if opts.BundlePath != "" {
		fmt.Fprintf(c.out, "Model bundle:  %s\n", opts.BundlePath)
	}
	if opts.Threshold > 0 {
		fmt.Fprintf(c.out, "Threshold:     %g\n", opts.Threshold)
	}
	fmt.Fprintln(c.out)

	if !opts.AutoConfirm {
		fmt.Fprint(c.out, "Proceed with configuration? [Y/n]: ")
		response, _ := c.reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "" && response != "y" && response != "yes" {
			fmt.Fprintln(c.out, "Configuration cancelled.")
			return nil
		}
	}

	if _, err := Register(path, opts); err != nil {
		return fmt.Errorf("failed to configure Claude Desktop: %w", err)
	}

	fmt.Fprintln(c.out, "✓ Claude Desktop configured. Restart Claude Desktop to load the server.")
	return nil
}

func (c *CLI) showStatus() error {
	path, err := c.configPath()
	if err != nil {
		return err
	}
	status, err := CheckStatus(path)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, "Readmission Risk MCP Server Status")
	fmt.Fprintln(c.out, "==================================")
	fmt.Fprintf(c.out, "Config file: %s\n", status.ConfigPath)
	if !status.Registered {
		fmt.Fprintln(c.out, "Registration: ✗ Not configured")
		return nil
	}
	fmt.Fprintln(c.out, "Registration: ✓ Configured")
	fmt.Fprintf(c.out, "Binary: %s (%s)\n", status.BinaryPath, mark(status.BinaryOK))
	fmt.Fprintf(c.out, "Bundle: %s (%s)\n", status.BundlePath, mark(status.BundleOK))
	if status.Bundle != nil {
		meta := status.Bundle.Metadata()
		fmt.Fprintf(c.out, "Model: %s %s, %s\n", meta.Name, meta.Version, status.Bundle.Classifier().Kind())
	}
	for _, issue := range status.Issues {
		fmt.Fprintf(c.out, "  ⚠ %s\n", issue)
	}
	return nil
}

func (c *CLI) validate() error {
	path, err := c.configPath()
	if err != nil {
		return err
	}
	status, err := CheckStatus(path)
	if err != nil {
		return err
	}

	if status.Healthy() {
		fmt.Fprintln(c.out, "✓ Configuration is valid")
		return nil
	}
	fmt.Fprintln(c.out, "✗ Configuration has issues:")
	for _, issue := range status.Issues {
		fmt.Fprintf(c.out, "  - %s\n", issue)
	}
	return fmt.Errorf("configuration is not valid")
}

func mark(ok bool) string {
	if ok {
		return "✓ ok"
	}
	return "✗ missing"
}
