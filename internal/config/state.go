package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultLabel is the greeting shown by a fresh session.
const DefaultLabel = "Hello World!"

// State is the part of a browsing session kept across restarts.
type State struct {
	Label    string         `mapstructure:"label"`
	URLInput string         `mapstructure:"url_input"`
	Response *ResponseState `mapstructure:"response"`
}

// ResponseState is the last response shown when the session was saved.
type ResponseState struct {
	Status  int           `mapstructure:"status"`
	Headers []HeaderState `mapstructure:"headers"`
	Body    string        `mapstructure:"body"`
}

// HeaderState is one response header.
type HeaderState struct {
	Name  string `mapstructure:"name"`
	Value string `mapstructure:"value"`
}

// DefaultState returns the state of a session that was never saved.
func DefaultState() State {
	return State{Label: DefaultLabel}
}

// LoadState reads a saved session from path. A missing file yields
// DefaultState; fields absent from the file keep their defaults.
func LoadState(path string) (State, error) {
	state := DefaultState()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return state, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetDefault("label", state.Label)
	if err := v.ReadInConfig(); err != nil {
		return state, fmt.Errorf("read state: %w", err)
	}
	if err := v.Unmarshal(&state); err != nil {
		return DefaultState(), fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

// SaveState writes the session to path, creating its directory if needed.
func SaveState(path string, s State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir state dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("label", s.Label)
	v.Set("url_input", s.URLInput)
	if s.Response != nil {
		headers := make([]map[string]any, 0, len(s.Response.Headers))
		for _, h := range s.Response.Headers {
			headers = append(headers, map[string]any{"name": h.Name, "value": h.Value})
		}
		v.Set("response.status", s.Response.Status)
		v.Set("response.headers", headers)
		v.Set("response.body", s.Response.Body)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
