package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/goforsam/toast-api/pkg/config"
	pkgerrors "github.com/goforsam/toast-api/pkg/errors"
	"github.com/goforsam/toast-api/pkg/logger"
)

// Provider resolves named credentials for the configured tenant.
type Provider interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

type accessFunc func(ctx context.Context, name string) (string, error)

// ManagerProvider reads secrets from Google Secret Manager, falling back to
// environment variables outside production.
type ManagerProvider struct {
	projectID string
	prod      bool
	access    accessFunc
	lookupEnv func(string) (string, bool)
	logg      *logger.Logger
	closer    func() error
}

// New builds a ManagerProvider backed by a Secret Manager client.
func New(ctx context.Context, cfg *config.Config, logg *logger.Logger, lookupEnv func(string) (string, bool)) (*ManagerProvider, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	projectID := strings.TrimSpace(cfg.GCP.ProjectID)
	if projectID == "" {
		return nil, errors.New("gcp project id is required")
	}

	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.GCP.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.GCP.CredentialsJSON)))
	case strings.TrimSpace(cfg.GCP.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.GCP.ApplicationCredentials))
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}

	access := func(ctx context.Context, name string) (string, error) {
		resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
			Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, name),
		})
		if err != nil {
			return "", err
		}
		return string(resp.GetPayload().GetData()), nil
	}

	return &ManagerProvider{
		projectID: projectID,
		prod:      cfg.App.IsProd(),
		access:    access,
		lookupEnv: lookupEnv,
		logg:      logg,
		closer:    client.Close,
	}, nil
}

// GetSecret returns the latest version of the named secret.
func (p *ManagerProvider) GetSecret(ctx context.Context, name string) (string, error) {
	if p == nil || p.access == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "secret provider not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "secret name is required")
	}

	value, err := p.access(ctx, name)
	if err == nil && value != "" {
		return value, nil
	}

	if err != nil && !isNotFound(err) && p.prod {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("accessing secret %s", name))
	}

	// Environment fallback is for development and CI only.
	if !p.prod && p.lookupEnv != nil {
		if fallback, ok := p.lookupEnv(name); ok && fallback != "" {
			if p.logg != nil {
				p.logg.Warn(p.logg.WithField(ctx, "secret", name), "secret resolved from environment fallback")
			}
			return fallback, nil
		}
	}

	return "", pkgerrors.Wrap(pkgerrors.CodeSecretNotFound, err, fmt.Sprintf("secret %s not found", name))
}

// Close releases the underlying Secret Manager client.
func (p *ManagerProvider) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer()
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if st, ok := status.FromError(err); ok {
		return st.Code() == codes.NotFound
	}
	return false
}
