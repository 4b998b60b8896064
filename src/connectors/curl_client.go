package connectors

// The Cloudflare-protected archive blocks the Go TLS stack outright on
// some POPs. When the resty client comes back with a challenge page we
// fall through to a curl subprocess, which presents a TLS fingerprint
// the edge accepts. Kept behind the same connector so the refresher and
// backfill never know the difference.

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
)

type curlClient struct {
	binary string
}

func newCurlClient() *curlClient {
	return &curlClient{binary: "curl"}
}

func (c *curlClient) PostForm(ctx context.Context, fullURL string, headers map[string]string, form url.Values) ([]byte, error) {
	args := []string{
		"-s",
		"--fail-with-body",
		"--max-time", "20",
		"-X", "POST",
	}
	for k, v := range headers {
		args = append(args, "-H", fmt.Sprintf("%s: %s", k, v))
	}
	args = append(args, "--data", form.Encode(), fullURL)

	cmd := exec.CommandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return nil, fmt.Errorf("curl subprocess failed: %w: %s", err, msg)
	}
	return stdout.Bytes(), nil
}
