package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdcr/pkg/errors"
)

const validSource = `
test:
  host: tdtest.example.com
  username: analyst
  password: secret
  database: pdcrdata
prod:
  host: tdprod.example.com
  username: analyst
  password: secret2
  database: pdcrdata
  logmech: LDAP
  tmode: ANSI
  charset: UTF8
`

func TestParse(t *testing.T) {
	reg, err := Parse([]byte(validSource))
	require.NoError(t, err)

	assert.Equal(t, []string{"test", "prod"}, reg.Names())
	assert.Equal(t, 2, reg.Len())

	cfg, err := reg.Get("prod")
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Name)
	assert.Equal(t, "tdprod.example.com", cfg.Host)
	assert.Equal(t, "LDAP", cfg.LogMech)
	assert.Equal(t, "ANSI", cfg.TMode)
	assert.Equal(t, "UTF8", cfg.Charset)

	cfg, err = reg.Get("test")
	require.NoError(t, err)
	assert.Empty(t, cfg.LogMech, "optional fields stay empty when unset")
	assert.Empty(t, cfg.TMode)
}

func TestParse_UnknownEnvironmentListsAlternatives(t *testing.T) {
	reg, err := Parse([]byte(validSource))
	require.NoError(t, err)

	_, err = reg.Get("staging")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfig)
	assert.Contains(t, err.Error(), `"staging"`)
	assert.Contains(t, err.Error(), "test")
	assert.Contains(t, err.Error(), "prod")
}

func TestParse_MissingRequiredField(t *testing.T) {
	_, err := Parse([]byte("test:\n  host: h\n  username: u\n  database: d\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfig)
	assert.Contains(t, err.Error(), "password")
}

func TestParse_NotAMapping(t *testing.T) {
	cases := map[string]string{
		"scalar root":  "just a string",
		"list root":    "- a\n- b\n",
		"scalar entry": "test: not-a-mapping\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrConfig)
		})
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("test:\n\thost: tabs-are-invalid"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfig)
	assert.Contains(t, err.Error(), "parsing environment YAML")
}

func TestParse_DuplicateNameLastWriteWins(t *testing.T) {
	src := `
test:
  host: first.example.com
  username: u
  password: p
  database: d
other:
  host: other.example.com
  username: u
  password: p
  database: d
test:
  host: second.example.com
  username: u
  password: p
  database: d
`
	reg, err := Parse([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"test", "other"}, reg.Names())

	cfg, err := reg.Get("test")
	require.NoError(t, err)
	assert.Equal(t, "second.example.com", cfg.Host)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfig)
	assert.Contains(t, err.Error(), "absent.yaml")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "td_env.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validSource), 0o600))

	reg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"test", "prod"}, reg.Names())
}
