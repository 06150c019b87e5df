package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom
// rules.
//
// Declarative checks live in struct tags; cross-field rules that cannot
// be expressed in tags live in validateCustomRules.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	switch cfg.Store.Type {
	case "smb":
		return validateSMBRules(cfg.Store.SMB)
	case "s3":
		return validateS3Rules(cfg.Store.S3)
	}

	return nil
}

// validateSMBRules checks the cross-field constraints of the SMB
// section that the factory would otherwise only surface at build time.
func validateSMBRules(options map[string]any) error {
	mode, _ := options["auth_mode"].(string)
	if mode == "" || mode == "kerberos" {
		return nil
	}
	if mode != "credentials" {
		return fmt.Errorf("store.smb: unknown auth_mode %q (supported: kerberos, credentials)", mode)
	}

	username, _ := options["username"].(string)
	password, _ := options["password"].(string)
	if username == "" || password == "" {
		return fmt.Errorf("store.smb: credentials auth_mode requires username and password")
	}

	return nil
}

// validateS3Rules checks the required fields of the S3 section.
func validateS3Rules(options map[string]any) error {
	if bucket, _ := options["bucket"].(string); bucket == "" {
		return fmt.Errorf("store.s3: bucket is required")
	}
	if region, _ := options["region"].(string); region == "" {
		return fmt.Errorf("store.s3: region is required")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly
// messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
