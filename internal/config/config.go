package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/dspctl/internal/participant"
	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml/v2"
)

func LoadBootstrap(path string) (participant.Bootstrap, error) {
	var cfg participant.Bootstrap
	if err := loadToml(path, &cfg); err != nil {
		return participant.Bootstrap{}, err
	}
	if cfg.ControlPlane.Store.Kind == "" {
		cfg.ControlPlane.Store.Kind = participant.StoreMemory
	}
	if err := ValidateBootstrap(cfg); err != nil {
		return participant.Bootstrap{}, err
	}
	return cfg, nil
}

func WriteBootstrap(path string, b participant.Bootstrap, overwrite bool) error {
	if err := ValidateBootstrap(b); err != nil {
		return err
	}
	data, err := toml.Marshal(b)
	if err != nil {
		return fmt.Errorf("config encode failed (%s): %w", path, err)
	}
	return writeFile(path, data, overwrite)
}

// WriteProperties writes props as sorted key=value lines.
func WriteProperties(path string, props map[string]string, overwrite bool) error {
	var sb strings.Builder
	w := bufio.NewWriter(&sb)
	for _, k := range participant.PropertyKeys(props) {
		fmt.Fprintf(w, "%s=%s\n", k, props[k])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return writeFile(path, []byte(sb.String()), overwrite)
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func writeFile(path string, data []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, data, 0o600)
}

func ValidateBootstrap(b participant.Bootstrap) error {
	var merr *multierror.Error
	cp := b.ControlPlane
	if strings.TrimSpace(b.Name) == "" {
		merr = multierror.Append(merr, fmt.Errorf("bootstrap missing name"))
	}
	if strings.TrimSpace(cp.ParticipantID) == "" {
		merr = multierror.Append(merr, fmt.Errorf("control_plane missing participant_id"))
	}
	for name, ctx := range map[string]participant.WebContext{
		"control_plane.web_protocol":   cp.Protocol,
		"control_plane.web_management": cp.Management,
		"data_plane.web_public":        b.DataPlane.Public,
	} {
		if ctx.Port <= 0 || ctx.Port > 65535 {
			merr = multierror.Append(merr, fmt.Errorf("%s port %d out of range", name, ctx.Port))
		}
	}
	switch cp.Store.Kind {
	case participant.StoreMemory:
	case participant.StorePostgres:
		if strings.TrimSpace(cp.Store.URL) == "" {
			merr = multierror.Append(merr, fmt.Errorf("postgres store requires url"))
		}
	case participant.StoreCosmos:
		if strings.TrimSpace(cp.Store.Database) == "" {
			merr = multierror.Append(merr, fmt.Errorf("cosmos store requires database"))
		}
	default:
		merr = multierror.Append(merr, fmt.Errorf("unsupported store kind %q (expected memory, postgres or cosmos)", cp.Store.Kind))
	}
	return merr.ErrorOrNil()
}
