// Package auth resolves the ambient access token used for remote API
// calls. Credential management itself stays outside this tool: the token
// comes from the environment or from the already-authenticated gcloud CLI.
package auth

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"automlflow/internal/ctxlog"
)

// TokenEnvVar short-circuits token resolution when set.
const TokenEnvVar = "GOOGLE_OAUTH_ACCESS_TOKEN"

// AccessToken returns a bearer token for the remote APIs: the value of
// GOOGLE_OAUTH_ACCESS_TOKEN when set, otherwise the output of `gcloud auth
// print-access-token`.
func AccessToken(ctx context.Context) (string, error) {
	if token := strings.TrimSpace(os.Getenv(TokenEnvVar)); token != "" {
		return token, nil
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving access token via gcloud.")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "gcloud", "auth", "print-access-token")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("unable to resolve an access token (set %s or authenticate gcloud): %w: %s", TokenEnvVar, err, msg)
		}
		return "", fmt.Errorf("unable to resolve an access token (set %s or authenticate gcloud): %w", TokenEnvVar, err)
	}

	token := strings.TrimSpace(stdout.String())
	if token == "" {
		return "", fmt.Errorf("gcloud returned an empty access token")
	}
	return token, nil
}
