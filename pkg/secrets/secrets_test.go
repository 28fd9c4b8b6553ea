package secrets

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgerrors "github.com/goforsam/toast-api/pkg/errors"
)

func testProvider(prod bool, access accessFunc, env map[string]string) *ManagerProvider {
	return &ManagerProvider{
		projectID: "proj",
		prod:      prod,
		access:    access,
		lookupEnv: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
	}
}

func TestGetSecretFromManager(t *testing.T) {
	p := testProvider(true, func(context.Context, string) (string, error) {
		return "s3cret", nil
	}, nil)

	value, err := p.GetSecret(context.Background(), "TOAST_CLIENT_ID")
	if err != nil {
		t.Fatalf("get secret: %v", err)
	}
	if value != "s3cret" {
		t.Fatalf("expected manager value, got %q", value)
	}
}

func TestGetSecretEnvFallbackOutsideProd(t *testing.T) {
	p := testProvider(false, func(context.Context, string) (string, error) {
		return "", status.Error(codes.NotFound, "missing")
	}, map[string]string{"TOAST_CLIENT_ID": "from-env"})

	value, err := p.GetSecret(context.Background(), "TOAST_CLIENT_ID")
	if err != nil {
		t.Fatalf("get secret: %v", err)
	}
	if value != "from-env" {
		t.Fatalf("expected env fallback, got %q", value)
	}
}

func TestGetSecretNoFallbackInProd(t *testing.T) {
	p := testProvider(true, func(context.Context, string) (string, error) {
		return "", status.Error(codes.NotFound, "missing")
	}, map[string]string{"TOAST_CLIENT_ID": "from-env"})

	_, err := p.GetSecret(context.Background(), "TOAST_CLIENT_ID")
	if !pkgerrors.IsCode(err, pkgerrors.CodeSecretNotFound) {
		t.Fatalf("expected secret-not-found in prod, got %v", err)
	}
}

func TestGetSecretDependencyErrorInProd(t *testing.T) {
	p := testProvider(true, func(context.Context, string) (string, error) {
		return "", errors.New("permission denied")
	}, nil)

	_, err := p.GetSecret(context.Background(), "TOAST_CLIENT_ID")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGetSecretRequiresName(t *testing.T) {
	p := testProvider(false, func(context.Context, string) (string, error) {
		return "", nil
	}, nil)

	_, err := p.GetSecret(context.Background(), "  ")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
