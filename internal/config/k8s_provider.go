package config

import (
	"context"
	"os"
)

// K8sProvider retrieves secrets from Kubernetes using in-cluster service account
// This is a placeholder for future implementation that would use the Kubernetes API
// For now, it delegates to FileProvider since K8s mounts secrets as files by default
type K8sProvider struct {
	fileProvider *FileProvider
	namespace    string
}

// NewK8sProvider creates a new Kubernetes secret provider
// If running in a Kubernetes pod, secrets are typically mounted at /var/run/secrets/kubernetes.io/serviceaccount
// Custom secrets are often mounted at /var/secrets or a custom path
func NewK8sProvider(secretsPath, namespace string) *K8sProvider {
	if secretsPath == "" {
		// Default Kubernetes secret mount path
		secretsPath = "/var/secrets"
	}
	if namespace == "" {
		// Try to detect namespace from pod
		if ns, err := os.ReadFile("/var/run/secrets/kubernetes.io/serviceaccount/namespace"); err == nil {
			namespace = string(ns)
		} else {
			namespace = "default"
		}
	}

	return &K8sProvider{
		fileProvider: NewFileProvider(secretsPath),
		namespace:    namespace,
	}
}

// GetSecret retrieves a secret from Kubernetes
// Currently delegates to FileProvider which reads mounted secret files
// Future: Could be extended to use the Kubernetes API directly
func (k *K8sProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return k.fileProvider.GetSecret(ctx, key)
}

// Name returns the provider name
func (k *K8sProvider) Name() string {
	return "kubernetes"
}

// IsAvailable checks if running in a Kubernetes environment
func (k *K8sProvider) IsAvailable(ctx context.Context) bool {
	// Check if we're running in Kubernetes by looking for service account token
	if _, err := os.Stat("/var/run/secrets/kubernetes.io/serviceaccount/token"); err == nil {
		// Also check if secrets directory exists
		return k.fileProvider.IsAvailable(ctx)
	}
	return false
}

// GetNamespace returns the current Kubernetes namespace
func (k *K8sProvider) GetNamespace() string {
	return k.namespace
}

