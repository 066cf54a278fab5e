// Package config declares the per-provider upload settings, their defaults
// and the schema a host renders to let users edit them.
package config

import (
	"fmt"
	"strings"

	"github.com/tomasbasham/imgup/internal/pathfmt"
)

// DefaultACL is applied to objects when no ACL is configured.
const DefaultACL = "public-read"

// S3Config holds the settings of the aws-s3 provider.
type S3Config struct {
	AccessKeyID     string `mapstructure:"accessKeyID" json:"accessKeyID"`
	SecretAccessKey string `mapstructure:"secretAccessKey" json:"secretAccessKey"`
	BucketName      string `mapstructure:"bucketName" json:"bucketName"`
	UploadPath      string `mapstructure:"uploadPath" json:"uploadPath"`

	Region   string `mapstructure:"region" json:"region,omitempty"`
	Endpoint string `mapstructure:"endpoint" json:"endpoint,omitempty"`

	// URLPrefix replaces the scheme and host of returned URLs, e.g. a CDN
	// in front of the bucket.
	URLPrefix string `mapstructure:"urlPrefix" json:"urlPrefix,omitempty"`

	PathStyleAccess    bool   `mapstructure:"pathStyleAccess" json:"pathStyleAccess"`
	RejectUnauthorized bool   `mapstructure:"rejectUnauthorized" json:"rejectUnauthorized"`
	ACL                string `mapstructure:"acl" json:"acl,omitempty"`
}

// DefaultS3Config returns the settings a fresh profile starts from.
func DefaultS3Config() S3Config {
	return S3Config{
		UploadPath:         pathfmt.DefaultTemplate,
		PathStyleAccess:    false,
		RejectUnauthorized: true,
		ACL:                DefaultACL,
	}
}

// Validate reports the required fields that are still empty.
func (c S3Config) Validate() error {
	var missing []string
	if c.AccessKeyID == "" {
		missing = append(missing, "accessKeyID")
	}
	if c.SecretAccessKey == "" {
		missing = append(missing, "secretAccessKey")
	}
	if c.BucketName == "" {
		missing = append(missing, "bucketName")
	}
	if len(missing) > 0 {
		return &ValidationError{Provider: "aws-s3", Missing: missing}
	}
	return nil
}

// String implements fmt.Stringer with the secret masked.
func (c S3Config) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("accessKeyID=%s ", mask(c.AccessKeyID)))
	sb.WriteString(fmt.Sprintf("secretAccessKey=%s ", mask(c.SecretAccessKey)))
	sb.WriteString(fmt.Sprintf("bucketName=%s uploadPath=%s ", c.BucketName, c.UploadPath))
	sb.WriteString(fmt.Sprintf("region=%s endpoint=%s urlPrefix=%s ", c.Region, c.Endpoint, c.URLPrefix))
	sb.WriteString(fmt.Sprintf("pathStyleAccess=%t rejectUnauthorized=%t acl=%s", c.PathStyleAccess, c.RejectUnauthorized, c.ACL))
	return sb.String()
}

// GCSConfig holds the settings of the gcs provider.
type GCSConfig struct {
	BucketName string `mapstructure:"bucketName" json:"bucketName"`
	UploadPath string `mapstructure:"uploadPath" json:"uploadPath"`

	// CredentialsFile is a service account key; application default
	// credentials are used when empty.
	CredentialsFile string `mapstructure:"credentialsFile" json:"credentialsFile,omitempty"`
	Endpoint        string `mapstructure:"endpoint" json:"endpoint,omitempty"`
	PredefinedACL   string `mapstructure:"predefinedAcl" json:"predefinedAcl,omitempty"`
	URLPrefix       string `mapstructure:"urlPrefix" json:"urlPrefix,omitempty"`
}

func DefaultGCSConfig() GCSConfig {
	return GCSConfig{UploadPath: pathfmt.DefaultTemplate}
}

func (c GCSConfig) Validate() error {
	if c.BucketName == "" {
		return &ValidationError{Provider: "gcs", Missing: []string{"bucketName"}}
	}
	return nil
}

// LocalConfig holds the settings of the local provider.
type LocalConfig struct {
	Directory  string `mapstructure:"directory" json:"directory"`
	UploadPath string `mapstructure:"uploadPath" json:"uploadPath"`
	URLPrefix  string `mapstructure:"urlPrefix" json:"urlPrefix,omitempty"`
}

func DefaultLocalConfig() LocalConfig {
	return LocalConfig{UploadPath: pathfmt.DefaultTemplate}
}

func (c LocalConfig) Validate() error {
	if c.Directory == "" {
		return &ValidationError{Provider: "local", Missing: []string{"directory"}}
	}
	return nil
}

func mask(s string) string {
	if s == "" {
		return "(empty)"
	}
	return "********"
}
