package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/diegodancourt/SmbSharp/internal/logger"
	"github.com/diegodancourt/SmbSharp/pkg/metrics"
	"github.com/diegodancourt/SmbSharp/pkg/share"
	"github.com/diegodancourt/SmbSharp/pkg/share/local"
	storeS3 "github.com/diegodancourt/SmbSharp/pkg/share/s3"
	"github.com/diegodancourt/SmbSharp/pkg/share/smb"
	"github.com/mitchellh/mapstructure"
)

// CreateFileStore creates a file store based on configuration.
//
// This factory uses the Type field to determine which backend to create,
// then decodes the type-specific configuration from the corresponding
// map and passes it to the backend's constructor.
//
// Supported types:
//   - "local": Uses pkg/share/local (direct filesystem delegation)
//   - "smb": Uses pkg/share/smb (external SMB client tool)
//   - "s3": Uses pkg/share/s3 (Amazon S3 or compatible storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Store configuration
//
// Returns:
//   - share.FileStore: Initialized file store
//   - error: Configuration or initialization error
func CreateFileStore(ctx context.Context, cfg *StoreConfig) (share.FileStore, error) {
	switch cfg.Type {
	case "local":
		return local.New(), nil
	case "smb":
		return createSMBStore(cfg.SMB)
	case "s3":
		return createS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown file store type: %q", cfg.Type)
	}
}

// createSMBStore creates a file store backed by the external SMB client.
func createSMBStore(options map[string]any) (share.FileStore, error) {
	type SMBStoreConfig struct {
		ClientPath      string        `mapstructure:"client_path"`
		AuthMode        string        `mapstructure:"auth_mode"`
		Username        string        `mapstructure:"username"`
		Password        string        `mapstructure:"password"`
		Domain          string        `mapstructure:"domain"`
		CredentialStyle string        `mapstructure:"credential_style"`
		RetryDelay      time.Duration `mapstructure:"retry_delay"`
	}

	var storeCfg SMBStoreConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &storeCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("failed to decode SMB store config: %w", err)
	}

	auth := smb.Auth{
		Username: storeCfg.Username,
		Password: storeCfg.Password,
		Domain:   storeCfg.Domain,
	}
	switch storeCfg.AuthMode {
	case "", "kerberos":
		auth.Mode = smb.AuthKerberos
	case "credentials":
		auth.Mode = smb.AuthCredentials
	default:
		return nil, fmt.Errorf("SMB store: unknown auth_mode %q (supported: kerberos, credentials)", storeCfg.AuthMode)
	}

	opts := smb.Options{
		ClientPath: storeCfg.ClientPath,
		RetryDelay: storeCfg.RetryDelay,
		Metrics:    metrics.NewInvocationMetrics(),
	}
	switch storeCfg.CredentialStyle {
	case "", "file":
		opts.CredentialStyle = smb.CredentialFile
	case "env":
		opts.CredentialStyle = smb.CredentialEnv
	default:
		return nil, fmt.Errorf("SMB store: unknown credential_style %q (supported: file, env)", storeCfg.CredentialStyle)
	}

	store, err := smb.New(auth, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMB store: %w", err)
	}

	return store, nil
}

// createS3Store creates an S3-backed file store.
func createS3Store(ctx context.Context, options map[string]any) (share.FileStore, error) {
	type S3StoreConfig struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var storeCfg S3StoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 store config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 store: region is required")
	}

	// ========================================================================
	// Step 1: Build AWS Config
	// ========================================================================

	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(storeCfg.Region))

	// Custom endpoint support for MinIO, Localstack, etc.
	if storeCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               storeCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Static credentials if provided, otherwise the default chain
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeCfg.AccessKeyID,
			storeCfg.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 Client
	// ========================================================================

	client := awsS3.NewFromConfig(awsCfg, func(o *awsS3.Options) {
		// Path-style addressing for MinIO/Localstack compatibility
		if storeCfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	// ========================================================================
	// Step 3: Create S3 File Store
	// ========================================================================

	store, err := storeS3.New(ctx, storeS3.Config{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 store: %w", err)
	}

	logger.Info("S3 file store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}
