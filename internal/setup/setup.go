// Package setup registers the readmission risk MCP server with Claude Desktop and
// checks that a registration can actually serve assessments.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/readmission-risk-server/internal/config"
	"github.com/readmission-risk-server/internal/model"
)

// ServerKey is the entry name under mcpServers.
const ServerKey = "readmission-risk"

// BinaryName is the executable that serves the MCP tools.
const BinaryName = "mcp-server-lite"

// Environment passed to the registered server.
const (
	EnvBundlePath = "READMISSION_BUNDLE_PATH"
	EnvThreshold  = "READMISSION_THRESHOLD"
)

// MCPServerConfig is one entry of the mcpServers map.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// ClaudeDesktopConfig is the Claude Desktop configuration file. Keys other than
// mcpServers are carried through untouched.
type ClaudeDesktopConfig struct {
	MCPServers map[string]MCPServerConfig
	other      map[string]json.RawMessage
}

// UnmarshalJSON keeps unknown top-level keys.
func (c *ClaudeDesktopConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.MCPServers = make(map[string]MCPServerConfig)
	if servers, ok := raw["mcpServers"]; ok {
		if err := json.Unmarshal(servers, &c.MCPServers); err != nil {
			return fmt.Errorf("mcpServers: %w", err)
		}
		delete(raw, "mcpServers")
	}
	c.other = raw
	return nil
}

// MarshalJSON writes mcpServers next to the preserved keys.
func (c ClaudeDesktopConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.other)+1)
	for k, v := range c.other {
		out[k] = v
	}
	servers := c.MCPServers
	if servers == nil {
		servers = map[string]MCPServerConfig{}
	}
	out["mcpServers"] = servers
	return json.Marshal(out)
}

// Options describe one registration.
type Options struct {
	BinaryPath  string  // defaults to a lookup of BinaryName
	BundlePath  string  // made absolute before it is written
	Threshold   float64 // zero leaves the server default
	AutoConfirm bool
}

// ClaudeDesktopConfigPath returns the Claude Desktop config file for this platform.
func ClaudeDesktopConfigPath() (string, error) {
	var dir string
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "Claude")
			break
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", "Claude")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
	return filepath.Join(dir, "claude_desktop_config.json"), nil
}

// LoadClaudeDesktopConfig reads path. A missing file is an empty configuration.
func LoadClaudeDesktopConfig(path string) (*ClaudeDesktopConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &ClaudeDesktopConfig{MCPServers: make(map[string]MCPServerConfig)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg ClaudeDesktopConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// SaveClaudeDesktopConfig writes cfg to path, creating the directory if needed.
func SaveClaudeDesktopConfig(path string, cfg *ClaudeDesktopConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Register adds or replaces the readmission risk entry in the config file at path.
func Register(path string, opts Options) (*MCPServerConfig, error) {
	cfg, err := LoadClaudeDesktopConfig(path)
	if err != nil {
		return nil, err
	}

	binary := opts.BinaryPath
	if binary == "" {
		if binary, err = findBinary(); err != nil {
			return nil, fmt.Errorf("could not find server binary: %w", err)
		}
	}

	entry := MCPServerConfig{Command: binary, Env: map[string]string{}}
	if opts.BundlePath != "" {
		bundle, err := filepath.Abs(opts.BundlePath)
		if err != nil {
			return nil, fmt.Errorf("resolve bundle path: %w", err)
		}
		entry.Env[EnvBundlePath] = bundle
	}
	if opts.Threshold > 0 {
		entry.Env[EnvThreshold] = strconv.FormatFloat(opts.Threshold, 'f', -1, 64)
	}

	cfg.MCPServers[ServerKey] = entry
	if err := SaveClaudeDesktopConfig(path, cfg); err != nil {
		return nil, err
	}
	return &entry, nil
}

func findBinary() (string, error) {
	if path, err := exec.LookPath(BinaryName); err == nil {
		return path, nil
	}

	locations := []string{
		"./" + BinaryName,
		"./build/" + BinaryName,
		filepath.Join(os.Getenv("HOME"), ".local", "bin", BinaryName),
		"/usr/local/bin/" + BinaryName,
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			if abs, err := filepath.Abs(loc); err == nil {
				return abs, nil
			}
			return loc, nil
		}
	}
	return "", fmt.Errorf("binary '%s' not found in common locations", BinaryName)
}

// Status is the state of the registration in one config file.
type Status struct {
	ConfigPath string
	Registered bool
	BinaryPath string
	BinaryOK   bool
	BundlePath string
	BundleOK   bool
	// Bundle is the loaded model when BundleOK is set.
	Bundle *model.Bundle
	Issues []string
}

// Healthy reports whether the registration can serve assessments.
func (s *Status) Healthy() bool {
	return s.Registered && s.BinaryOK && s.BundleOK
}

// CheckStatus inspects the registration in the config file at path and tries to load
// the bundle it points at.
func CheckStatus(path string) (*Status, error) {
	cfg, err := LoadClaudeDesktopConfig(path)
	if err != nil {
		return nil, err
	}

	status := &Status{ConfigPath: path}
	entry, ok := cfg.MCPServers[ServerKey]
	if !ok {
		status.Issues = append(status.Issues, "readmission risk server is not registered with Claude Desktop")
		return status, nil
	}
	status.Registered = true
	status.BinaryPath = entry.Command

	if info, err := os.Stat(entry.Command); err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("server binary not found: %s", entry.Command))
	} else if info.Mode()&0111 == 0 {
		status.Issues = append(status.Issues, fmt.Sprintf("server binary is not executable: %s", entry.Command))
	} else {
		status.BinaryOK = true
	}

	status.BundlePath = entry.Env[EnvBundlePath]
	if status.BundlePath == "" {
		status.BundlePath = config.DefaultBundlePath
	}
	bundle, err := model.Load(status.BundlePath)
	if err != nil {
		status.Issues = append(status.Issues, err.Error())
	} else {
		status.BundleOK = true
		status.Bundle = bundle
		status.Issues = append(status.Issues, bundle.Warnings()...)
	}

	return status, nil
}
