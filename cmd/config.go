package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/joescharf/fixxy/internal/config"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = config.DefaultDir

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage fixxy configuration.

Running bare 'fixxy config' is the same as 'fixxy config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# fixxy configuration
# See: fixxy config show (for effective values and sources)

# State/data directory (default: ~/.config/fixxy)
# state_dir: {{ .StateDir }}

# SQLite database path, used by the sqlite catalog backend
# db_path: {{ .DBPath }}

# Inference service the chat and MCP tools talk to
service:
  endpoint: "{{ .Endpoint }}"
  # Per-request bound; 0 waits forever
  timeout: {{ .Timeout }}

# Chat startup state
chat:
  # Explain, Debug or TestCases
  task: "{{ .Task }}"
  # C++, Python, Java or JavaScript
  language: "{{ .Language }}"
  # Question set shown in the sidebar
  set: "{{ .Set }}"
  # light or dark
  theme: "{{ .Theme }}"
  sidebar: {{ .Sidebar }}
  # Delay between revealed characters
  tick: {{ .Tick }}
  # What to do with a reply that arrives after its conversation was cleared:
  # append or drop
  late_responses: "{{ .LateResponses }}"

# Question catalog: builtin or sqlite
catalog:
  backend: "{{ .CatalogBackend }}"

# fixxy serve
serve:
  port: {{ .Port }}
  # Requests per second across all clients; 0 disables limiting
  rate_limit: {{ .RateLimit }}
  burst: {{ .Burst }}

# Model provider used by fixxy serve: openai (any compatible API) or anthropic
llm:
  provider: "{{ .Provider }}"
  base_url: "{{ .BaseURL }}"
  model: "{{ .Model }}"
  # Falls back to TOGETHER_API_KEY, then OPENAI_API_KEY
  # api_key: ""

anthropic:
  model: "{{ .AnthropicModel }}"
  # Falls back to ANTHROPIC_API_KEY
  # api_key: ""

log:
  # trace, debug, info, warn or error
  level: "{{ .LogLevel }}"
  # console or json
  format: "{{ .LogFormat }}"
`

type configTemplateData struct {
	StateDir       string
	DBPath         string
	Endpoint       string
	Timeout        string
	Task           string
	Language       string
	Set            string
	Theme          string
	Sidebar        bool
	Tick           string
	LateResponses  string
	CatalogBackend string
	Port           int
	RateLimit      float64
	Burst          int
	Provider       string
	BaseURL        string
	Model          string
	AnthropicModel string
	LogLevel       string
	LogFormat      string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		StateDir:       viper.GetString("state_dir"),
		DBPath:         viper.GetString("db_path"),
		Endpoint:       viper.GetString("service.endpoint"),
		Timeout:        viper.GetDuration("service.timeout").String(),
		Task:           viper.GetString("chat.task"),
		Language:       viper.GetString("chat.language"),
		Set:            viper.GetString("chat.set"),
		Theme:          viper.GetString("chat.theme"),
		Sidebar:        viper.GetBool("chat.sidebar"),
		Tick:           viper.GetDuration("chat.tick").String(),
		LateResponses:  viper.GetString("chat.late_responses"),
		CatalogBackend: viper.GetString("catalog.backend"),
		Port:           viper.GetInt("serve.port"),
		RateLimit:      viper.GetFloat64("serve.rate_limit"),
		Burst:          viper.GetInt("serve.burst"),
		Provider:       viper.GetString("llm.provider"),
		BaseURL:        viper.GetString("llm.base_url"),
		Model:          viper.GetString("llm.model"),
		AnthropicModel: viper.GetString("anthropic.model"),
		LogLevel:       viper.GetString("log.level"),
		LogFormat:      viper.GetString("log.format"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may later hold API keys.
	if err := os.WriteFile(cfgPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	Secret bool
}

var configKeys = []configKeyInfo{
	{Key: "state_dir"},
	{Key: "db_path"},
	{Key: "service.endpoint"},
	{Key: "service.timeout"},
	{Key: "chat.task"},
	{Key: "chat.language"},
	{Key: "chat.set"},
	{Key: "chat.theme"},
	{Key: "chat.sidebar"},
	{Key: "chat.tick"},
	{Key: "chat.late_responses"},
	{Key: "catalog.backend"},
	{Key: "serve.port"},
	{Key: "serve.rate_limit"},
	{Key: "serve.burst"},
	{Key: "llm.provider"},
	{Key: "llm.base_url"},
	{Key: "llm.model"},
	{Key: "llm.api_key", Secret: true},
	{Key: "anthropic.model"},
	{Key: "anthropic.api_key", Secret: true},
	{Key: "log.level"},
	{Key: "log.format"},
	{Key: "log.file"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		if k.Secret {
			val = maskSecret(viper.GetString(k.Key))
		}
		source := detectSource(k.Key, config.EnvVar(k.Key), fileValues)
		fmt.Fprintf(ui.Out, "  %-22s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// maskSecret hides all but the last four characters of s.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set; set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'fixxy config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
