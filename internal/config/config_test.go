package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `
env: dev
listen:
  port: "9090"
paysera:
  project_id: "123456"
  sign_password: "secret"
  test: true
invoice:
  series: YK
  seller:
    name: UAB Test
    city: Kaunas
telegram:
  enabled: true
  allowed_ids: [11, 22]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", conf.Env)
	assert.Equal(t, "9090", conf.Listen.Port)
	assert.Equal(t, "0.0.0.0", conf.Listen.BindIp)
	assert.Equal(t, "123456", conf.Paysera.ProjectId)
	assert.True(t, conf.Paysera.Test)
	assert.Equal(t, "1.6", conf.Paysera.Version)
	assert.Equal(t, []int64{11, 22}, conf.Telegram.AllowedIds)
	assert.Equal(t, "0 * * * *", conf.Scheduler.Overdue)

	settings := conf.Invoice.Settings()
	assert.Equal(t, "YK", settings.Series)
	assert.Equal(t, 4, settings.NumberWidth)
	assert.Equal(t, 0.21, settings.VatRate)
	assert.Equal(t, "UAB Test", settings.Seller.Name)
	assert.Equal(t, "Kaunas", settings.Seller.City)
	assert.Equal(t, "HABALT22", settings.Swift)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}
