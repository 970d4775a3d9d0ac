package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigTree(t *testing.T) {
	t.Parallel()

	cfg := NewDefault()
	cfg.Paths.CredentialsDir = "/srv/credentials"

	out := cfg.String()
	assert.Contains(t, out, "Appforge Config (v1)")
	assert.Contains(t, out, "Logging")
	assert.Contains(t, out, DefaultTemplateDir)
	assert.Contains(t, out, "/srv/credentials")
	assert.Contains(t, out, DefaultTemplateIdentifier)
	assert.Contains(t, out, "flutter build apk --release")
	assert.Contains(t, out, DefaultListenAddr)
	assert.Contains(t, out, DefaultRetentionSchedule)

	cfg.Retention.Disabled = true
	assert.Contains(t, cfg.String(), "disabled")
}
