package config

// FieldType tells the host how to render a setting.
type FieldType string

const (
	FieldInput    FieldType = "input"
	FieldPassword FieldType = "password"
	FieldConfirm  FieldType = "confirm"
)

// Field describes one user-facing setting.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Default  any       `json:"default,omitempty"`
	Required bool      `json:"required"`
	Message  string    `json:"message,omitempty"`
	Alias    string    `json:"alias,omitempty"`
}

// S3Schema returns the aws-s3 settings, pre-filled from current.
func S3Schema(current S3Config) []Field {
	return []Field{
		{Name: "accessKeyID", Type: FieldInput, Default: current.AccessKeyID, Required: true, Message: "access key id", Alias: "Access Key ID"},
		{Name: "secretAccessKey", Type: FieldPassword, Default: current.SecretAccessKey, Required: true, Message: "secret access key", Alias: "Secret Access Key"},
		{Name: "bucketName", Type: FieldInput, Default: current.BucketName, Required: true, Alias: "Bucket"},
		{Name: "uploadPath", Type: FieldInput, Default: current.UploadPath, Required: true, Message: "{year}/{month}/{md5}.{extName}", Alias: "Upload Path"},
		{Name: "acl", Type: FieldInput, Default: current.ACL, Required: true, Message: "access control applied to uploaded objects", Alias: "ACL"},
		{Name: "region", Type: FieldInput, Default: current.Region, Alias: "Region"},
		{Name: "endpoint", Type: FieldInput, Default: current.Endpoint, Alias: "Endpoint"},
		{Name: "urlPrefix", Type: FieldInput, Default: current.URLPrefix, Message: "https://img.example.com/bucket-name/", Alias: "URL Prefix"},
		{Name: "pathStyleAccess", Type: FieldConfirm, Default: current.PathStyleAccess, Message: "enable path-style access or not", Alias: "PathStyleAccess"},
		{Name: "rejectUnauthorized", Type: FieldConfirm, Default: current.RejectUnauthorized, Message: "reject endpoints with invalid certificates", Alias: "rejectUnauthorized"},
	}
}

// GCSSchema returns the gcs settings, pre-filled from current.
func GCSSchema(current GCSConfig) []Field {
	return []Field{
		{Name: "bucketName", Type: FieldInput, Default: current.BucketName, Required: true, Alias: "Bucket"},
		{Name: "uploadPath", Type: FieldInput, Default: current.UploadPath, Required: true, Alias: "Upload Path"},
		{Name: "credentialsFile", Type: FieldInput, Default: current.CredentialsFile, Message: "service account key file", Alias: "Credentials File"},
		{Name: "endpoint", Type: FieldInput, Default: current.Endpoint, Alias: "Endpoint"},
		{Name: "predefinedAcl", Type: FieldInput, Default: current.PredefinedACL, Message: "publicRead", Alias: "Predefined ACL"},
		{Name: "urlPrefix", Type: FieldInput, Default: current.URLPrefix, Alias: "URL Prefix"},
	}
}

// LocalSchema returns the local settings, pre-filled from current.
func LocalSchema(current LocalConfig) []Field {
	return []Field{
		{Name: "directory", Type: FieldInput, Default: current.Directory, Required: true, Alias: "Directory"},
		{Name: "uploadPath", Type: FieldInput, Default: current.UploadPath, Required: true, Alias: "Upload Path"},
		{Name: "urlPrefix", Type: FieldInput, Default: current.URLPrefix, Alias: "URL Prefix"},
	}
}

// Redact masks the values of password fields so they can be shown.
func Redact(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		if f.Type == FieldPassword && f.Default != "" {
			f.Default = "********"
		}
		out[i] = f
	}
	return out
}
