//go:build integration

package blobstore

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/azurite"
)

// These tests exercise AzureStore against a real Azurite emulator rather
// than mocking the SDK client, the same way the rest of this module's
// integration suite drives real backends via testcontainers-go.
func TestAzureStore_UploadAgainstAzurite(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := azurite.Run(ctx, "mcr.microsoft.com/azure-storage/azurite:3.33.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	connStr, err := container.BlobServiceURL(ctx)
	require.NoError(t, err)

	store, err := NewAzureStore(Config{
		AccountName: "devstoreaccount1",
		AccountKey:  "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==",
		AccountURL:  connStr,
		Container:   "ingest-test",
	})
	require.NoError(t, err)

	payload := []byte("hello from the ingest pipeline")

	err = store.Upload(ctx, "2026-07-30/sample.bin", bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)

	// Uploading the same blob name again must overwrite rather than
	// error, per Store's idempotency contract.
	err = store.Upload(ctx, "2026-07-30/sample.bin", bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
}
