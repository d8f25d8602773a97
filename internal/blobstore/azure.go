package blobstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/marmos91/ingestd/internal/logger"
)

// Config configures the Azure Blob-backed Store.
type Config struct {
	// AccountURL is the blob service endpoint, e.g.
	// https://<account>.blob.core.windows.net.
	AccountURL string

	// ConnectionString, if set, is used instead of AccountURL +
	// azidentity credentials (local/dev and Azurite use this path).
	ConnectionString string

	// AccountName and AccountKey, if both set, authenticate via a shared
	// key credential against AccountURL instead of DefaultAzureCredential.
	AccountName string
	AccountKey  string

	Container  string
	MaxRetries int32

	// UploadConcurrency is the per-call concurrency hint passed to the
	// SDK's block-blob uploader (UploadStreamOptions.Concurrency). Zero
	// leaves the SDK default in place.
	UploadConcurrency int
}

// AzureStore uploads blobs to a single Azure Blob Storage container.
type AzureStore struct {
	client      *azblob.Client
	container   string
	concurrency int
}

// NewAzureStore creates an AzureStore, authenticating via connection
// string when provided, otherwise via a shared key credential against
// AccountURL when AccountName and AccountKey are both set, otherwise via
// DefaultAzureCredential against AccountURL.
func NewAzureStore(cfg Config) (*AzureStore, error) {
	clientOpts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policyRetryOptions(cfg.MaxRetries),
		},
	}

	var client *azblob.Client
	var err error

	switch {
	case cfg.ConnectionString != "":
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, clientOpts)
	case cfg.AccountName != "" && cfg.AccountKey != "":
		var cred *azblob.SharedKeyCredential
		cred, err = azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("create azure shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(cfg.AccountURL, cred, clientOpts)
	default:
		var cred *azidentity.DefaultAzureCredential
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("create azure credential: %w", err)
		}
		client, err = azblob.NewClient(cfg.AccountURL, cred, clientOpts)
	}
	if err != nil {
		return nil, fmt.Errorf("create azure blob client: %w", err)
	}

	return &AzureStore{client: client, container: cfg.Container, concurrency: cfg.UploadConcurrency}, nil
}

func policyRetryOptions(maxRetries int32) policy.RetryOptions {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return policy.RetryOptions{MaxRetries: maxRetries}
}

// Upload implements Store by streaming r to a blob named name within the
// configured container, overwriting any existing blob.
func (s *AzureStore) Upload(ctx context.Context, name string, r io.Reader, size int64) error {
	start := time.Now()

	_, err := s.client.UploadStream(ctx, s.container, name, r, &azblob.UploadStreamOptions{
		Concurrency: s.concurrency,
	})
	if err != nil {
		if bloberror.HasCode(err, bloberror.ContainerNotFound) {
			return fmt.Errorf("container %q not found: %w", s.container, err)
		}
		return fmt.Errorf("upload blob %q: %w", name, err)
	}

	logger.Debug("blob upload complete",
		logger.KeyContainer, s.container,
		logger.KeyBlobKey, name,
		logger.KeySize, size,
		logger.KeyDurationMs, float64(time.Since(start).Microseconds())/1000.0,
	)
	return nil
}

// CheckContainer proves the configured credentials can reach the target
// container before the pipeline starts accepting work, so a bad account
// key or a missing container surfaces as a startup failure rather than as
// the first upload's error.
func (s *AzureStore) CheckContainer(ctx context.Context) error {
	containerClient := s.client.ServiceClient().NewContainerClient(s.container)
	if _, err := containerClient.GetProperties(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.ContainerNotFound) {
			return fmt.Errorf("container %q not found: %w", s.container, err)
		}
		return fmt.Errorf("check container %q: %w", s.container, err)
	}
	return nil
}
