package cmd_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasbasham/cli-runtime/iooption"

	"github.com/tomasbasham/imgup/internal/cmd"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	o := cmd.NewRootOptions(iooption.IOStreams{In: strings.NewReader(""), Out: &out, ErrOut: &errOut})
	c := cmd.NewRootCommandWithArgs(o)
	c.SetArgs(args)

	err := c.Execute()
	return out.String(), errOut.String(), err
}

func setup(t *testing.T) (cfgPath, dest string) {
	t.Helper()
	dir := t.TempDir()
	dest = filepath.Join(dir, "out")
	cfgPath = filepath.Join(dir, "config.json")
	content := fmt.Sprintf(`{"picBed":{
		"local":{"directory":%q,"uploadPath":"{filename}.{extName}"},
		"aws-s3":{"accessKeyID":"id","secretAccessKey":"top-secret","bucketName":"images"}}}`, dest)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))
	return cfgPath, dest
}

func TestUploadCommand(t *testing.T) {
	cfgPath, dest := setup(t)

	src := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(src, []byte("meow"), 0o600))

	out, _, err := run(t, "upload", "--config", cfgPath, "--provider", "local", src)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "file://"))
	assert.True(t, strings.HasSuffix(lines[0], "/cat.png"))

	data, err := os.ReadFile(filepath.Join(dest, "cat.png"))
	require.NoError(t, err)
	assert.Equal(t, "meow", string(data))
}

func TestUploadCommandErrors(t *testing.T) {
	cfgPath, _ := setup(t)

	_, _, err := run(t, "upload", "--config", cfgPath)
	assert.Error(t, err, "no files")

	_, _, err = run(t, "upload", "--config", cfgPath, "--provider", "ftp", "x.png")
	assert.ErrorContains(t, err, "unknown provider")

	_, _, err = run(t, "upload", "--config", cfgPath, "--provider", "local", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestUploadCommandNotifiesOnFailure(t *testing.T) {
	src := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(src, []byte("meow"), 0o600))

	emptyCfg := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(emptyCfg, []byte(`{"picBed":{}}`), 0o600))

	out, errOut, err := run(t, "upload", "--config", emptyCfg, src)
	require.Error(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Amazon S3 upload error: Please check your configuration")
}

func TestConfigCommand(t *testing.T) {
	cfgPath, _ := setup(t)

	out, _, err := run(t, "config", "--config", cfgPath, "aws-s3")
	require.NoError(t, err)
	assert.NotContains(t, out, "top-secret")

	var got []struct {
		ID     string `json:"id"`
		Fields []struct {
			Name    string `json:"name"`
			Default any    `json:"default"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "aws-s3", got[0].ID)

	values := make(map[string]any)
	for _, f := range got[0].Fields {
		values[f.Name] = f.Default
	}
	assert.Equal(t, "images", values["bucketName"])
	assert.Equal(t, "public-read", values["acl"])
	assert.Equal(t, "{year}/{month}/{md5}.{extName}", values["uploadPath"])

	_, _, err = run(t, "config", "--config", cfgPath, "ftp")
	assert.Error(t, err)
}
