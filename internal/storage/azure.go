package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/rs/zerolog"
)

// AzureBlobBackend implements the Backend interface for Azure Blob Storage
type AzureBlobBackend struct {
	client        *azblob.Client
	containerName string
	logger        zerolog.Logger
}

// AzureBlobConfig holds Azure Blob Storage backend configuration
type AzureBlobConfig struct {
	// Connection string authentication (simplest)
	ConnectionString string

	// Account-based authentication
	AccountName string
	AccountKey  string

	// SAS token authentication
	SASToken string

	// Managed Identity authentication (for Azure-hosted deployments)
	UseManagedIdentity bool

	// Container name (required)
	ContainerName string

	// Custom endpoint (for Azurite testing)
	Endpoint string
}

// NewAzureBlobBackend creates a new Azure Blob Storage backend
func NewAzureBlobBackend(ctx context.Context, cfg *AzureBlobConfig, logger zerolog.Logger) (*AzureBlobBackend, error) {
	if cfg.ContainerName == "" {
		return nil, fmt.Errorf("Azure container name is required")
	}

	log := logger.With().Str("component", "azure-storage").Logger()

	client, err := newAzureClient(cfg, log)
	if err != nil {
		return nil, err
	}

	backend := &AzureBlobBackend{
		client:        client,
		containerName: cfg.ContainerName,
		logger:        log,
	}

	propsCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := backend.containerClient().GetProperties(propsCtx, nil); err != nil {
		log.Warn().Err(err).Str("container", cfg.ContainerName).Msg("Could not verify container exists")
	} else {
		log.Debug().Str("container", cfg.ContainerName).Msg("Connected to Azure Blob Storage container")
	}

	return backend, nil
}

// newAzureClient tries the authentication methods in order of preference
func newAzureClient(cfg *AzureBlobConfig, log zerolog.Logger) (*azblob.Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.AccountName != "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AccountName)
	}

	switch {
	case cfg.ConnectionString != "":
		client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure client from connection string: %w", err)
		}
		log.Debug().Msg("Using connection string authentication for Azure Blob Storage")
		return client, nil

	case cfg.AccountName != "" && cfg.SASToken != "":
		serviceURL := fmt.Sprintf("%s?%s", endpoint, strings.TrimPrefix(cfg.SASToken, "?"))
		client, err := azblob.NewClientWithNoCredential(serviceURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure client with SAS token: %w", err)
		}
		log.Debug().Msg("Using SAS token authentication for Azure Blob Storage")
		return client, nil

	case cfg.AccountName != "" && cfg.AccountKey != "":
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err := azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure client with shared key: %w", err)
		}
		log.Debug().Msg("Using shared key authentication for Azure Blob Storage")
		return client, nil

	case cfg.UseManagedIdentity && cfg.AccountName != "":
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create managed identity credential: %w", err)
		}
		client, err := azblob.NewClient(endpoint, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure client with managed identity: %w", err)
		}
		log.Debug().Msg("Using managed identity authentication for Azure Blob Storage")
		return client, nil
	}

	return nil, fmt.Errorf("no valid Azure authentication method configured. Provide connection_string, account_name+account_key, account_name+sas_token, or account_name+use_managed_identity")
}

func (b *AzureBlobBackend) containerClient() *container.Client {
	return b.client.ServiceClient().NewContainerClient(b.containerName)
}

// Write writes data to Azure Blob Storage
func (b *AzureBlobBackend) Write(ctx context.Context, path string, data []byte) error {
	start := time.Now()

	contentType := "text/plain; charset=utf-8"
	if !strings.HasSuffix(path, ".txt") {
		contentType = "application/octet-stream"
	}

	blobClient := b.containerClient().NewBlockBlobClient(path)
	_, err := blobClient.UploadStream(ctx, bytes.NewReader(data), &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	})
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("path", path).
			Int("size", len(data)).
			Msg("Failed to write to Azure Blob Storage")
		return fmt.Errorf("failed to write to Azure Blob Storage: %w", err)
	}

	b.logger.Debug().
		Str("path", path).
		Int("size", len(data)).
		Str("container", b.containerName).
		Dur("duration", time.Since(start)).
		Msg("Wrote to Azure Blob Storage")

	return nil
}

// Read reads data from Azure Blob Storage
func (b *AzureBlobBackend) Read(ctx context.Context, path string) ([]byte, error) {
	resp, err := b.containerClient().NewBlobClient(path).DownloadStream(ctx, nil)
	if err != nil {
		if isAzureNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read from Azure Blob Storage: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read Azure blob body: %w", err)
	}

	return data, nil
}

// List lists blobs with the given prefix
func (b *AzureBlobBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var blobs []string

	pager := b.containerClient().NewListBlobsFlatPager(&container.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list Azure blobs: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				blobs = append(blobs, *item.Name)
			}
		}
	}

	return blobs, nil
}

// Delete deletes a blob from Azure Blob Storage
func (b *AzureBlobBackend) Delete(ctx context.Context, path string) error {
	_, err := b.containerClient().NewBlobClient(path).Delete(ctx, nil)
	if err != nil {
		if isAzureNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to delete from Azure Blob Storage: %w", err)
	}

	b.logger.Debug().Str("path", path).Msg("Deleted from Azure Blob Storage")
	return nil
}

// Exists checks if a blob exists in Azure Blob Storage
func (b *AzureBlobBackend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := b.containerClient().NewBlobClient(path).GetProperties(ctx, nil)
	if err != nil {
		if isAzureNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check Azure blob existence: %w", err)
	}
	return true, nil
}

// Close closes the Azure client (no-op)
func (b *AzureBlobBackend) Close() error {
	return nil
}

// Container returns the configured container name
func (b *AzureBlobBackend) Container() string {
	return b.containerName
}

// Type returns the storage type identifier
func (b *AzureBlobBackend) Type() string {
	return "azure"
}

// isAzureNotFoundError checks if an error indicates the blob doesn't exist
func isAzureNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return true
	}
	// GetProperties is a HEAD request and carries no error code
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode == http.StatusNotFound
	}
	return false
}
