package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

var ErrSecretNotFound = errors.New("openbao secret path not found")

// BootstrapFromOpenBao loads the gateway's secrets (webhook signing secret,
// database password, merchant bearer tokens) from an OpenBao KV v2 path and
// exports them as environment variables ahead of config.Load. When the
// OPENBAO_* variables are absent the function is a no-op, so plain-env
// deployments keep working.
func BootstrapFromOpenBao(ctx context.Context) ([]string, error) {
	cfg, ok := configFromEnv()
	if !ok {
		return nil, nil
	}

	values, err := cfg.read(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(values))
	for k, v := range values {
		_ = os.Setenv(k, v)
		keys = append(keys, k)
	}
	return keys, nil
}

type baoConfig struct {
	addr      string
	token     string
	mount     string
	path      string
	namespace string
}

func configFromEnv() (baoConfig, bool) {
	addr := strings.TrimSpace(os.Getenv("OPENBAO_ADDR"))
	token := os.Getenv("OPENBAO_TOKEN")
	path := strings.Trim(strings.TrimSpace(os.Getenv("OPENBAO_SECRET_PATH")), "/")
	if addr == "" || token == "" || path == "" {
		return baoConfig{}, false
	}

	mount := strings.Trim(strings.TrimSpace(os.Getenv("OPENBAO_MOUNT")), "/")
	if mount == "" {
		mount = "secret"
	}

	return baoConfig{
		addr:      strings.TrimRight(addr, "/"),
		token:     token,
		mount:     mount,
		path:      path,
		namespace: strings.TrimSpace(os.Getenv("OPENBAO_NAMESPACE")),
	}, true
}

func (cfg baoConfig) read(ctx context.Context) (map[string]string, error) {
	url := fmt.Sprintf("%s/v1/%s/data/%s", cfg.addr, cfg.mount, cfg.path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create OpenBao request: %w", err)
	}
	req.Header.Set("X-Vault-Token", cfg.token)
	if cfg.namespace != "" {
		req.Header.Set("X-Vault-Namespace", cfg.namespace)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call OpenBao: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrSecretNotFound
	default:
		return nil, fmt.Errorf("openbao request failed: status=%d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Data map[string]interface{} `json:"data"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode OpenBao response: %w", err)
	}

	out := make(map[string]string, len(payload.Data.Data))
	for k, v := range payload.Data.Data {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case float64:
			out[k] = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", val), "0"), ".")
		default:
			// skip unsupported value types instead of failing the bootstrap
		}
	}
	return out, nil
}
