package config

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks cfg for structural and cross-field validity. Struct tags
// cover per-field constraints; cross-field invariants that validator can't
// express are checked by hand below.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateNFSSameFilesystem(cfg.NFS); err != nil {
		return err
	}

	if err := validateBlobAuth(cfg.Blob); err != nil {
		return err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry.enabled is true")
	}

	return nil
}

func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("%s failed validation %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// validateNFSSameFilesystem ensures incoming_root and processing_root
// resolve to the same device, since the claim stage relies on an atomic
// same-filesystem rename.
func validateNFSSameFilesystem(cfg NFSConfig) error {
	if cfg.IncomingRoot == "" || cfg.ProcessingRoot == "" {
		return nil
	}

	var incomingStat, processingStat syscall.Stat_t
	if err := syscall.Stat(cfg.IncomingRoot, &incomingStat); err != nil {
		return nil // directory may not exist yet; created at startup
	}
	if err := syscall.Stat(cfg.ProcessingRoot, &processingStat); err != nil {
		return nil
	}

	if incomingStat.Dev != processingStat.Dev {
		return fmt.Errorf("nfs.incoming_root and nfs.processing_root must be on the same filesystem (claim relies on atomic rename)")
	}
	return nil
}

func validateBlobAuth(cfg BlobConfig) error {
	hasConnectionString := cfg.ConnectionString != ""
	hasAccountKey := cfg.AccountName != "" && cfg.AccountKey != ""
	hasAccountURL := cfg.AccountURL != ""

	count := 0
	if hasConnectionString {
		count++
	}
	if hasAccountKey {
		count++
	}
	if hasAccountURL {
		count++
	}

	if count == 0 {
		return fmt.Errorf("blob: one of connection_string, account_name+account_key, or account_url must be set")
	}
	return nil
}
